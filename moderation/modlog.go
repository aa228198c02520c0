package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/wikiboard/wikimod/moderation/models"

	"gorm.io/gorm"
)

const defaultModLogLimit = 100

type ModLogFilter struct {
	TargetUserID uint64
	ModeratorID  uint64
	Action       models.ModAction
	// only entries created at or after this time; zero means no bound
	Since time.Time
	Limit int
}

func (e *Engine) appendLog(tx *gorm.DB, entry *models.ModLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = e.now()
	}
	if entry.Details == nil {
		entry.Details = models.Details{}
	}
	return tx.Create(entry).Error
}

// Returns log entries matching the filter, newest first.
func (e *Engine) ListModLog(ctx context.Context, filter ModLogFilter) ([]models.ModLogEntry, error) {
	q := e.db.WithContext(ctx).Model(&models.ModLogEntry{})
	if filter.TargetUserID != 0 {
		q = q.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.ModeratorID != 0 {
		q = q.Where("moderator_id = ?", filter.ModeratorID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultModLogLimit
	}

	out := []models.ModLogEntry{}
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Deletes log entries older than 'olderThan' (or the configured retention, when zero). Returns the number of entries deleted.
func (e *Engine) PurgeModLog(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, span := tracer.Start(ctx, "PurgeModLog")
	defer span.End()

	if olderThan <= 0 {
		olderThan = e.Config.ModLogRetention
	}
	if olderThan <= 0 {
		return 0, nil
	}
	cutoff := e.now().Add(-olderThan)

	res := e.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.ModLogEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("purging moderation log: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		e.Logger.Info("purged moderation log", "entries", res.RowsAffected, "cutoff", cutoff)
	}
	return res.RowsAffected, nil
}
