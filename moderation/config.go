package moderation

import (
	"fmt"
	"time"

	"github.com/wikiboard/wikimod/moderation/models"
	"github.com/wikiboard/wikimod/moderation/warncount"
)

type Config struct {
	// number of active warnings at which an automatic ban is issued. zero or negative disables escalation
	EscalationThreshold int
	AutoBanDuration     models.BanDuration

	// actor recorded on automatic actions when no moderator is involved. when zero, the affected user is recorded instead
	SystemActorID uint64

	CounterTTL      time.Duration
	CounterCapacity int

	ModLogRetention time.Duration
	// warnings older than this are deactivated by the maintenance sweep. zero disables the sweep
	WarningRetention time.Duration

	AutoWarningSeverity models.Severity
	Replacement         string
}

func DefaultConfig() *Config {
	return &Config{
		EscalationThreshold: 4,
		AutoBanDuration:     models.BanDurationDay,
		CounterTTL:          warncount.DefaultTTL,
		CounterCapacity:     100_000,
		ModLogRetention:     30 * 24 * time.Hour,
		AutoWarningSeverity: models.SeverityMedium,
		Replacement:         "[censored]",
	}
}

// Checks the enum-valued settings. An unknown ban duration would produce automatic bans which never take effect.
func (c *Config) Validate() error {
	if _, err := models.ParseBanDuration(string(c.AutoBanDuration)); err != nil {
		return fmt.Errorf("%w: auto ban duration %q", ErrInvalidBanDuration, c.AutoBanDuration)
	}
	if _, err := models.ParseSeverity(string(c.AutoWarningSeverity)); err != nil {
		return fmt.Errorf("%w: auto warning severity %q", ErrInvalidSeverity, c.AutoWarningSeverity)
	}
	return nil
}
