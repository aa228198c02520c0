package models

import (
	"fmt"
	"strings"
	"time"
)

func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return s, nil
	}
	return "", fmt.Errorf("unknown warning severity: %q", raw)
}

func ParseBanReason(raw string) (BanReason, error) {
	r := BanReason(strings.ToLower(strings.TrimSpace(raw)))
	switch r {
	case BanReasonMultipleViolations, BanReasonSpam, BanReasonHarassment, BanReasonInappropriateContent, BanReasonOther:
		return r, nil
	}
	return "", fmt.Errorf("unknown ban reason: %q", raw)
}

func ParseBanDuration(raw string) (BanDuration, error) {
	d := BanDuration(strings.ToLower(strings.TrimSpace(raw)))
	if _, _, ok := d.span(); !ok {
		return "", fmt.Errorf("unknown ban duration: %q", raw)
	}
	return d, nil
}

func (d BanDuration) span() (time.Duration, bool, bool) {
	switch d {
	case BanDurationHour:
		return time.Hour, false, true
	case BanDurationDay:
		return 24 * time.Hour, false, true
	case BanDurationWeek:
		return 7 * 24 * time.Hour, false, true
	case BanDurationMonth:
		return 30 * 24 * time.Hour, false, true
	case BanDurationPermanent:
		return 0, true, true
	}
	return 0, false, false
}

func (d BanDuration) IsPermanent() bool {
	return d == BanDurationPermanent
}

// Computes the expiry timestamp for a ban starting at 'from'. Returns nil for permanent bans, and for unknown duration values.
func (d BanDuration) ExpiresFrom(from time.Time) *time.Time {
	span, permanent, ok := d.span()
	if !ok || permanent {
		return nil
	}
	t := from.Add(span)
	return &t
}

// A ban is effective when it is active, and either permanent or not yet expired.
func (b *Ban) IsEffective(now time.Time) bool {
	if !b.Active {
		return false
	}
	if b.Duration.IsPermanent() {
		return true
	}
	return b.ExpiresAt != nil && b.ExpiresAt.After(now)
}
