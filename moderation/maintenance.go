package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wikiboard/wikimod/moderation/models"

	"gorm.io/gorm"
)

type MaintenanceReport struct {
	BansExpired         int64         `json:"bans_expired"`
	WarningsDeactivated int64         `json:"warnings_deactivated"`
	EscalationBans      int           `json:"escalation_bans"`
	ModLogPurged        int64         `json:"modlog_purged"`
	Duration            time.Duration `json:"duration"`
}

// Deactivates every active, non-permanent ban whose expiry has passed. The same thing happens lazily on status evaluation; this sweep keeps the table tidy for users who never come back.
func (e *Engine) ExpireBans(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ExpireBans")
	defer span.End()

	now := e.now()
	res := e.db.WithContext(ctx).Model(&models.Ban{}).
		Where("active = ? AND duration <> ? AND expires_at IS NOT NULL AND expires_at <= ?", true, models.BanDurationPermanent, now).
		Updates(map[string]any{
			"active":     false,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("expiring bans: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		bansExpired.Add(float64(res.RowsAffected))
		e.Logger.Info("expired bans", "count", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// Runs the escalation policy for every user at or over the threshold. Covers warnings which were written without going through IssueWarning, or a lowered threshold.
func (e *Engine) SweepEscalations(ctx context.Context) ([]models.Ban, error) {
	ctx, span := tracer.Start(ctx, "SweepEscalations")
	defer span.End()

	out := []models.Ban{}
	if e.Config.EscalationThreshold <= 0 {
		return out, nil
	}

	var users []uint64
	err := e.db.WithContext(ctx).Model(&models.Warning{}).
		Where("active = ?", true).
		Group("user_id").
		Having("COUNT(*) >= ?", e.Config.EscalationThreshold).
		Pluck("user_id", &users).Error
	if err != nil {
		return nil, fmt.Errorf("finding users over warning threshold: %w", err)
	}

	var errs []error
	for _, uid := range users {
		ban, err := e.CheckEscalation(ctx, uid, 0)
		if err != nil {
			e.Logger.Warn("escalation sweep failed for user", "user", uid, "err", err)
			errs = append(errs, err)
			continue
		}
		if ban != nil {
			out = append(out, *ban)
		}
	}
	return out, errors.Join(errs...)
}

// Deactivates active warnings created more than 'olderThan' ago, logging each one under the system actor. A zero or negative 'olderThan' disables the sweep.
func (e *Engine) DeactivateStaleWarnings(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, span := tracer.Start(ctx, "DeactivateStaleWarnings")
	defer span.End()

	if olderThan <= 0 {
		return 0, nil
	}
	now := e.now()
	cutoff := now.Add(-olderThan)

	var count int64
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []models.Warning
		if err := tx.Model(&models.Warning{}).Where("active = ? AND created_at < ?", true, cutoff).Order("id ASC").Find(&stale).Error; err != nil {
			return err
		}
		for _, w := range stale {
			res := tx.Model(&models.Warning{}).Where("id = ? AND active = ?", w.ID, true).Updates(map[string]any{
				"active":     false,
				"updated_at": now,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}
			count++
			if err := e.appendLog(tx, &models.ModLogEntry{
				ModeratorID:  e.resolveActor(w.UserID, 0),
				TargetUserID: w.UserID,
				Action:       models.ModActionWarningRemoved,
				SubjectKind:  models.SubjectWarning,
				SubjectID:    formatID(w.ID),
				Details: models.Details{
					"automatic":         "true",
					"reason":            "warning retention elapsed",
					"original_severity": string(w.Severity),
					"original_reason":   w.Reason,
				},
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deactivating stale warnings: %w", err)
	}
	if count > 0 {
		warningsRemoved.Add(float64(count))
		e.Logger.Info("deactivated stale warnings", "count", count, "cutoff", cutoff)
	}
	return count, nil
}

// One pass of the scheduled cleanup job. Every step runs even if an earlier one failed; the errors are joined.
func (e *Engine) RunMaintenance(ctx context.Context) (*MaintenanceReport, error) {
	start := time.Now()
	report := &MaintenanceReport{}
	var errs []error

	n, err := e.ExpireBans(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.BansExpired = n

	n, err = e.DeactivateStaleWarnings(ctx, e.Config.WarningRetention)
	if err != nil {
		errs = append(errs, err)
	}
	report.WarningsDeactivated = n

	bans, err := e.SweepEscalations(ctx)
	if err != nil {
		errs = append(errs, err)
	}
	report.EscalationBans = len(bans)

	n, err = e.PurgeModLog(ctx, e.Config.ModLogRetention)
	if err != nil {
		errs = append(errs, err)
	}
	report.ModLogPurged = n

	report.Duration = time.Since(start)
	maintenanceDuration.Observe(report.Duration.Seconds())
	e.Logger.Info("maintenance pass complete",
		"bans_expired", report.BansExpired,
		"warnings_deactivated", report.WarningsDeactivated,
		"escalation_bans", report.EscalationBans,
		"modlog_purged", report.ModLogPurged,
		"duration", report.Duration,
	)
	return report, errors.Join(errs...)
}
