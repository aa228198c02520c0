package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wikiboard/wikimod/moderation"
	"github.com/wikiboard/wikimod/moderation/models"

	"github.com/stretchr/testify/assert"
)

func writeFile(t *testing.T, name, body string) string {
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadPolicyDefaults(t *testing.T) {
	assert := assert.New(t)

	pol, err := loadPolicy("")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(moderation.DefaultConfig(), pol.Engine)
	assert.Empty(pol.DictionaryPath)
	assert.Empty(pol.WhitelistPath)
}

func TestLoadPolicyFile(t *testing.T) {
	assert := assert.New(t)

	p := writeFile(t, "policy.yaml", `
escalation:
  threshold: 3
  ban_duration: 7d
  system_actor: 1
counter:
  ttl: 48h
retention:
  warnings: 2160h
censor:
  severity: high
  replacement: "***"
`)
	pol, err := loadPolicy(p)
	if err != nil {
		t.Fatal(err)
	}
	cfg := pol.Engine
	assert.Equal(3, cfg.EscalationThreshold)
	assert.Equal(models.BanDurationWeek, cfg.AutoBanDuration)
	assert.Equal(uint64(1), cfg.SystemActorID)
	assert.Equal(48*time.Hour, cfg.CounterTTL)
	assert.Equal(moderation.DefaultConfig().CounterCapacity, cfg.CounterCapacity)
	assert.Equal(90*24*time.Hour, cfg.WarningRetention)
	assert.Equal(30*24*time.Hour, cfg.ModLogRetention)
	assert.Equal(models.SeverityHigh, cfg.AutoWarningSeverity)
	assert.Equal("***", cfg.Replacement)
}

func TestLoadPolicyEnv(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("MODCTL_ESCALATION_THRESHOLD", "6")
	pol, err := loadPolicy("")
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(6, pol.Engine.EscalationThreshold)
}

func TestLoadPolicyInvalid(t *testing.T) {
	assert := assert.New(t)

	_, err := loadPolicy(writeFile(t, "bad.yaml", "escalation:\n  ban_duration: 2d\n"))
	assert.Error(err)

	_, err = loadPolicy(writeFile(t, "bad.yaml", "censor:\n  severity: apocalyptic\n"))
	assert.Error(err)

	_, err = loadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(err)
}

func TestPolicyMatcher(t *testing.T) {
	assert := assert.New(t)

	dict := writeFile(t, "extra.txt", "# site specific\nкриптоказино\n")
	wl := writeFile(t, "whitelist.txt", "криптоказино-обзор\n")
	pol := &policy{
		Engine:         moderation.DefaultConfig(),
		DictionaryPath: dict,
		WhitelistPath:  wl,
	}
	m, err := pol.Matcher()
	if err != nil {
		t.Fatal(err)
	}
	assert.True(m.ContainsBannedWords("лучшее криптоказино"))
	assert.False(m.ContainsBannedWords("наш криптоказино-обзор"))
	// built-in terms are still there
	assert.True(m.ContainsBannedWords("купи хуй дешево"))

	pol.DictionaryPath = filepath.Join(t.TempDir(), "missing.txt")
	_, err = pol.Matcher()
	assert.Error(err)
}
