package moderation

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wikiboard/wikimod/moderation/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Issues an automatic ban when the user has reached the warning threshold and has no effective ban. Returns the new ban, or nil if none was issued.
//
// The count and the ban creation happen in a single transaction, and a user who is already banned is never banned again, so calling this repeatedly is safe.
func (e *Engine) CheckEscalation(ctx context.Context, userID, actorID uint64) (*models.Ban, error) {
	ctx, span := tracer.Start(ctx, "CheckEscalation")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", int64(userID)))

	if userID == 0 {
		return nil, ErrInvalidUser
	}

	var ban *models.Ban
	var expired []*models.Ban
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, exp, err := e.escalate(tx, userID, actorID)
		if err != nil {
			return err
		}
		ban = b
		expired = exp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("checking escalation for user %d: %w", userID, err)
	}
	e.recordExpired(expired)

	if ban != nil {
		autoBans.Inc()
		bansIssued.WithLabelValues(string(ban.Reason)).Inc()
		e.Logger.Info("automatic ban issued", "user", userID, "ban", ban.ID, "duration", ban.Duration, "actor", ban.BannedBy)
	}
	return ban, nil
}

// Also returns any bans which were deactivated as expired along the way.
func (e *Engine) escalate(tx *gorm.DB, userID, actorID uint64) (*models.Ban, []*models.Ban, error) {
	threshold := e.Config.EscalationThreshold
	if threshold <= 0 {
		return nil, nil, nil
	}

	count, err := countActiveWarnings(tx, userID)
	if err != nil {
		return nil, nil, err
	}
	if count < threshold {
		return nil, nil, nil
	}

	now := e.now()
	existing, expired, err := e.reconcileBans(tx, userID, now)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, expired, nil
	}

	dur, err := models.ParseBanDuration(string(e.Config.AutoBanDuration))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: auto ban duration %q", ErrInvalidBanDuration, e.Config.AutoBanDuration)
	}
	actor := e.resolveActor(userID, actorID)
	ban := &models.Ban{
		UserID:    userID,
		BannedBy:  actor,
		Reason:    models.BanReasonMultipleViolations,
		Duration:  dur,
		ExpiresAt: dur.ExpiresFrom(now),
		Active:    true,
		Notes:     fmt.Sprintf("automatic ban after %d active warnings", count),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.Create(ban).Error; err != nil {
		return nil, nil, err
	}

	entry := &models.ModLogEntry{
		ModeratorID:  actor,
		TargetUserID: userID,
		Action:       models.ModActionBanIssued,
		SubjectKind:  models.SubjectBan,
		SubjectID:    formatID(ban.ID),
		Details: models.Details{
			"automatic":     "true",
			"reason":        string(ban.Reason),
			"duration":      string(ban.Duration),
			"warning_count": strconv.Itoa(count),
		},
		CreatedAt: now,
	}
	if err := e.appendLog(tx, entry); err != nil {
		return nil, nil, err
	}
	return ban, expired, nil
}
