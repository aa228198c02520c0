package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/wikiboard/wikimod/moderation/models"
	"github.com/wikiboard/wikimod/moderation/warncount"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Derived view of a user's moderation standing. Never persisted.
type UserStatus struct {
	UserID   uint64      `json:"user_id"`
	IsBanned bool        `json:"is_banned"`
	Ban      *models.Ban `json:"ban,omitempty"`

	// durable, moderator-issued warnings which are still active
	ActiveWarnings int `json:"active_warnings"`
	// ephemeral counter from automated censorship hits
	CensorshipWarnings int `json:"censorship_warnings"`
	TotalWarnings      int `json:"total_warnings"`

	CanPost    bool `json:"can_post"`
	CanComment bool `json:"can_comment"`
	CanMessage bool `json:"can_message"`
}

// Computes the user's current status. Active bans which are past their expiry are deactivated as a side effect; permanent bans never are.
//
// When several effective bans exist, the most recently created one is reported.
func (e *Engine) EvaluateAndReconcileStatus(ctx context.Context, userID uint64) (*UserStatus, error) {
	ctx, span := tracer.Start(ctx, "EvaluateAndReconcileStatus")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", int64(userID)))

	if userID == 0 {
		return nil, ErrInvalidUser
	}

	db := e.db.WithContext(ctx)
	ban, expired, err := e.reconcileBans(db, userID, e.now())
	if err != nil {
		return nil, fmt.Errorf("reconciling bans: %w", err)
	}
	e.recordExpired(expired)

	active, err := countActiveWarnings(db, userID)
	if err != nil {
		return nil, fmt.Errorf("counting warnings: %w", err)
	}

	censored, err := e.Counters.Get(ctx, warncount.UserKey(userID))
	if err != nil {
		return nil, fmt.Errorf("reading censorship counter: %w", err)
	}

	banned := ban != nil
	return &UserStatus{
		UserID:             userID,
		IsBanned:           banned,
		Ban:                ban,
		ActiveWarnings:     active,
		CensorshipWarnings: censored,
		TotalWarnings:      active + censored,
		CanPost:            !banned,
		CanComment:         !banned,
		CanMessage:         !banned,
	}, nil
}

// Walks the user's active bans, newest first, deactivating any which are no longer effective. Returns the newest effective ban, if any, and the bans this call deactivated.
//
// 'db' may be a transaction, so nothing is logged or counted here; callers pass the deactivated bans to recordExpired once the writes are committed.
func (e *Engine) reconcileBans(db *gorm.DB, userID uint64, now time.Time) (*models.Ban, []*models.Ban, error) {
	var bans []models.Ban
	if err := db.Model(&models.Ban{}).Where("user_id = ? AND active = ?", userID, true).Order("created_at DESC, id DESC").Find(&bans).Error; err != nil {
		return nil, nil, err
	}

	var current *models.Ban
	var expired []*models.Ban
	for i := range bans {
		b := &bans[i]
		if b.IsEffective(now) {
			if current == nil {
				current = b
			}
			continue
		}
		ok, err := expireBan(db, b, now)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			expired = append(expired, b)
		}
	}
	return current, expired, nil
}

// Conditional update, so concurrent readers expiring the same ban is harmless. Returns true if this call deactivated it.
func expireBan(db *gorm.DB, b *models.Ban, now time.Time) (bool, error) {
	res := db.Model(&models.Ban{}).Where("id = ? AND active = ?", b.ID, true).Updates(map[string]any{
		"active":     false,
		"updated_at": now,
	})
	if res.Error != nil {
		return false, res.Error
	}
	b.Active = false
	return res.RowsAffected > 0, nil
}

func (e *Engine) recordExpired(bans []*models.Ban) {
	for _, b := range bans {
		bansExpired.Inc()
		e.Logger.Info("ban expired", "ban", b.ID, "user", b.UserID, "duration", b.Duration)
	}
}

func countActiveWarnings(db *gorm.DB, userID uint64) (int, error) {
	var n int64
	if err := db.Model(&models.Warning{}).Where("user_id = ? AND active = ?", userID, true).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
