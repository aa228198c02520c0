package censor

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed words/banned.txt
var bannedWordsFile string

//go:embed words/whitelist.txt
var whitelistFile string

var (
	defaultOnce    sync.Once
	defaultMatcher *Matcher
	defaultErr     error
)

// Returns a shared Matcher built from the dictionary and whitelist compiled into the binary.
func DefaultMatcher() (*Matcher, error) {
	defaultOnce.Do(func() {
		defaultMatcher, defaultErr = NewMatcher(DefaultTerms(), DefaultWhitelist())
	})
	return defaultMatcher, defaultErr
}

func DefaultTerms() []string {
	l, _ := ParseWordList(strings.NewReader(bannedWordsFile))
	return l
}

func DefaultWhitelist() []string {
	l, _ := ParseWordList(strings.NewReader(whitelistFile))
	return l
}

// Reads one term per line. Blank lines and lines starting with '#' are skipped.
func ParseWordList(r io.Reader) ([]string, error) {
	out := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func LoadWordList(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	l, err := ParseWordList(f)
	if err != nil {
		return nil, fmt.Errorf("reading word list %s: %w", p, err)
	}
	return l, nil
}
