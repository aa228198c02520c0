package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wikiboard/wikimod/moderation/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type BanRequest struct {
	UserID   uint64
	BannedBy uint64
	Reason   models.BanReason
	Duration models.BanDuration
	Notes    string
}

// Bans a user. Any bans which are still active are deactivated first, so a user never holds more than one active ban.
func (e *Engine) BanUser(ctx context.Context, req BanRequest) (*models.Ban, error) {
	ctx, span := tracer.Start(ctx, "BanUser")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", int64(req.UserID)))

	if req.UserID == 0 {
		return nil, ErrInvalidUser
	}
	reason, err := models.ParseBanReason(string(req.Reason))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBanReason, req.Reason)
	}
	dur, err := models.ParseBanDuration(string(req.Duration))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBanDuration, req.Duration)
	}

	now := e.now()
	actor := e.resolveActor(req.UserID, req.BannedBy)
	ban := &models.Ban{
		UserID:    req.UserID,
		BannedBy:  actor,
		Reason:    reason,
		Duration:  dur,
		ExpiresAt: dur.ExpiresFrom(now),
		Active:    true,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var superseded []uint64
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Ban{}).Where("user_id = ? AND active = ?", req.UserID, true).Pluck("id", &superseded).Error; err != nil {
			return err
		}
		if len(superseded) > 0 {
			if err := tx.Model(&models.Ban{}).Where("id IN ? AND active = ?", superseded, true).Updates(map[string]any{
				"active":     false,
				"updated_at": now,
			}).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(ban).Error; err != nil {
			return err
		}

		details := models.Details{
			"reason":   string(ban.Reason),
			"duration": string(ban.Duration),
		}
		if ban.Notes != "" {
			details["notes"] = ban.Notes
		}
		if len(superseded) > 0 {
			details["superseded"] = joinIDs(superseded)
		}
		return e.appendLog(tx, &models.ModLogEntry{
			ModeratorID:  actor,
			TargetUserID: ban.UserID,
			Action:       models.ModActionBanIssued,
			SubjectKind:  models.SubjectBan,
			SubjectID:    formatID(ban.ID),
			Details:      details,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("banning user %d: %w", req.UserID, err)
	}

	bansIssued.WithLabelValues(string(ban.Reason)).Inc()
	e.Logger.Info("ban issued", "user", ban.UserID, "ban", ban.ID, "reason", ban.Reason, "duration", ban.Duration, "actor", actor, "superseded", len(superseded))
	return ban, nil
}

// Deactivates every active ban of the user, logging each one. Returns false if there was nothing to lift.
func (e *Engine) UnbanUser(ctx context.Context, userID, unbannedBy uint64, reason string) (bool, error) {
	ctx, span := tracer.Start(ctx, "UnbanUser")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", int64(userID)))

	if userID == 0 {
		return false, ErrInvalidUser
	}

	now := e.now()
	actor := e.resolveActor(userID, unbannedBy)
	lifted := 0
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bans []models.Ban
		if err := tx.Model(&models.Ban{}).Where("user_id = ? AND active = ?", userID, true).Order("id ASC").Find(&bans).Error; err != nil {
			return err
		}
		for _, b := range bans {
			res := tx.Model(&models.Ban{}).Where("id = ? AND active = ?", b.ID, true).Updates(map[string]any{
				"active":     false,
				"updated_at": now,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			lifted++
			if err := e.appendLog(tx, &models.ModLogEntry{
				ModeratorID:  actor,
				TargetUserID: userID,
				Action:       models.ModActionBanRemoved,
				SubjectKind:  models.SubjectBan,
				SubjectID:    formatID(b.ID),
				Details: models.Details{
					"reason":              reason,
					"original_reason":     string(b.Reason),
					"original_duration":   string(b.Duration),
					"original_created_at": b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
				},
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("unbanning user %d: %w", userID, err)
	}

	if lifted > 0 {
		bansRemoved.Add(float64(lifted))
		e.Logger.Info("user unbanned", "user", userID, "bans", lifted, "actor", actor)
	}
	return lifted > 0, nil
}

func (e *Engine) GetBan(ctx context.Context, banID uint64) (*models.Ban, error) {
	var b models.Ban
	if err := e.db.WithContext(ctx).First(&b, banID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBanNotFound
		}
		return nil, err
	}
	return &b, nil
}

// returns every ban of the user (active or not), newest first
func (e *Engine) ListBans(ctx context.Context, userID uint64) ([]models.Ban, error) {
	out := []models.Ban{}
	if err := e.db.WithContext(ctx).Model(&models.Ban{}).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = formatID(id)
	}
	return strings.Join(parts, ",")
}
