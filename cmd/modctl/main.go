package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	_ "go.uber.org/automaxprocs"

	"github.com/wikiboard/wikimod/moderation"
	"github.com/wikiboard/wikimod/moderation/warncount"
	"github.com/wikiboard/wikimod/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
)

// command results are written here as JSON
var stdout io.Writer = os.Stdout

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting process", "err", err.Error())
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "modctl",
		Usage:   "wiki moderation tool: warnings, bans, censorship screening and cleanup",
		Version: versioninfo.Short(),
	}
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "database connection string for moderation tables",
			Value:   "sqlite://data/modctl/moderation.sqlite",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-conn",
			Usage:   "limit on size of database connection pool",
			Value:   20,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL for censorship counters; in-process memory if not set",
			EnvVars: []string{"MODCTL_REDIS_URL", "REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to moderation policy file (yaml, toml or json)",
			EnvVars: []string{"MODCTL_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (eg: warn, info, debug)",
			EnvVars: []string{"MODCTL_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format: text or json",
			EnvVars: []string{"MODCTL_LOG_FMT"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "write logs to this (rotated) file instead of stdout",
			EnvVars: []string{"MODCTL_LOG_FILE"},
		},
		&cli.BoolFlag{
			Name:    "enable-db-tracing",
			EnvVars: []string{"MODCTL_DB_TRACING"},
		},
		&cli.StringFlag{
			Name:    "otel-exporter-otlp-endpoint",
			EnvVars: []string{"OTEL_EXPORTER_OTLP_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "env",
			Value:   "dev",
			EnvVars: []string{"ENVIRONMENT"},
			Usage:   "declared hosting environment (prod, qa, etc); used in traces",
		},
	}
	app.Before = func(cctx *cli.Context) error {
		_, err := cliutil.SetupSlog(cliutil.LogOptions{
			LogLevel:  cctx.String("log-level"),
			LogFormat: cctx.String("log-format"),
			LogPath:   cctx.String("log-file"),
		})
		return err
	}
	app.Commands = []*cli.Command{
		cmdStatus,
		cmdWarn,
		cmdRemoveWarning,
		cmdBan,
		cmdUnban,
		cmdWarnings,
		cmdBans,
		cmdLog,
		cmdCounter,
		cmdCheckText,
		cmdFilterText,
		cmdScreen,
		cmdMaintain,
	}
	return app.Run(args)
}

// Opens the database, counter store and matcher, and constructs the engine. The policy file is applied on top of the defaults.
func openEngine(cctx *cli.Context) (*moderation.Engine, error) {
	pol, err := loadPolicy(cctx.String("config"))
	if err != nil {
		return nil, err
	}

	db, err := cliutil.SetupDatabase(cctx.String("db-url"), cliutil.DatabaseOptions{
		MaxConnections: cctx.Int("max-db-conn"),
		Tracing:        cctx.Bool("enable-db-tracing"),
	})
	if err != nil {
		return nil, err
	}

	var counters warncount.Store
	if redisURL := cctx.String("redis-url"); redisURL != "" {
		rs, err := warncount.NewRedisStore(redisURL, pol.Engine.CounterTTL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		counters = rs
	} else {
		slog.Info("redis not configured, censorship counters only last for this process")
	}

	matcher, err := pol.Matcher()
	if err != nil {
		return nil, err
	}

	return moderation.NewEngine(db, counters, matcher, pol.Engine)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}

func argUint(cctx *cli.Context, idx int, name string) (uint64, error) {
	raw := cctx.Args().Get(idx)
	if raw == "" {
		return 0, fmt.Errorf("missing required argument: %s", name)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return v, nil
}
