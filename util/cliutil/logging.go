package cliutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LogOptions struct {
	// info|debug|warn|error
	LogLevel string

	// text|json
	LogFormat string

	// path to write to; "" or "-" for stdout
	LogPath string

	// rotation settings for LogPath
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func firstenv(env_var_names ...string) string {
	for _, env_var_name := range env_var_names {
		val := os.Getenv(env_var_name)
		if val != "" {
			return val
		}
	}
	return ""
}

// SetupSlog integrates passed in options and env vars, and installs the result as the slog default.
//
// passing default cliutil.LogOptions{} is ok.
//
// MODCTL_LOG_LEVEL=info|debug|warn|error
//
// MODCTL_LOG_FMT=text|json
//
// MODCTL_LOG_FILE=path (or "-" or "" for stdout)
//
// MODCTL_LOG_MAX_SIZE=int megabytes per log file before rotating (default 100)
//
// MODCTL_LOG_MAX_BACKUPS=int keep N old logs (default 3)
func SetupSlog(options LogOptions) (*slog.Logger, error) {
	if options.LogLevel == "" {
		options.LogLevel = firstenv("MODCTL_LOG_LEVEL", "LOG_LEVEL")
	}
	level, err := parseLevel(options.LogLevel)
	if err != nil {
		return nil, err
	}

	if options.LogFormat == "" {
		options.LogFormat = firstenv("MODCTL_LOG_FMT", "LOG_FMT")
	}
	if options.LogPath == "" {
		options.LogPath = os.Getenv("MODCTL_LOG_FILE")
	}
	if options.MaxSizeMB == 0 {
		if options.MaxSizeMB, err = envInt("MODCTL_LOG_MAX_SIZE", 100); err != nil {
			return nil, err
		}
	}
	if options.MaxBackups == 0 {
		if options.MaxBackups, err = envInt("MODCTL_LOG_MAX_BACKUPS", 3); err != nil {
			return nil, err
		}
	}

	var out io.Writer
	if options.LogPath == "" || options.LogPath == "-" {
		out = os.Stdout
	} else {
		out = &lumberjack.Logger{
			Filename:   options.LogPath,
			MaxSize:    options.MaxSizeMB,
			MaxBackups: options.MaxBackups,
			MaxAge:     options.MaxAgeDays,
			Compress:   options.Compress,
		}
	}

	handler, err := newHandler(out, options.LogFormat, level)
	if err != nil {
		return nil, err
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %#v", raw)
}

func newHandler(out io.Writer, format string, level slog.Level) (slog.Handler, error) {
	hopts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.NewTextHandler(out, hopts), nil
	case "json":
		return slog.NewJSONHandler(out, hopts), nil
	}
	return nil, fmt.Errorf("invalid log format: %#v", format)
}

func envInt(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", name, err)
	}
	return v, nil
}
