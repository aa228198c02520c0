package moderation

import (
	"context"
	"errors"
	"fmt"

	"github.com/wikiboard/wikimod/moderation/models"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

type WarningRequest struct {
	UserID uint64
	// zero means an automated warning, recorded under the system actor
	IssuedBy       uint64
	Severity       models.Severity
	Reason         string
	RelatedContent string
}

// Persists a new active warning and its log entry, then runs the escalation policy.
//
// If the escalation check fails, the (already committed) warning is returned along with the error.
func (e *Engine) IssueWarning(ctx context.Context, req WarningRequest) (*models.Warning, error) {
	w, _, err := e.issueWarning(ctx, req)
	return w, err
}

func (e *Engine) issueWarning(ctx context.Context, req WarningRequest) (*models.Warning, *models.Ban, error) {
	ctx, span := tracer.Start(ctx, "IssueWarning")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", int64(req.UserID)))

	if req.UserID == 0 {
		return nil, nil, ErrInvalidUser
	}
	sev, err := models.ParseSeverity(string(req.Severity))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidSeverity, req.Severity)
	}

	now := e.now()
	actor := e.resolveActor(req.UserID, req.IssuedBy)
	w := &models.Warning{
		UserID:         req.UserID,
		IssuedBy:       actor,
		Severity:       sev,
		Reason:         req.Reason,
		RelatedContent: req.RelatedContent,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(w).Error; err != nil {
			return err
		}
		details := models.Details{
			"severity": string(w.Severity),
			"reason":   w.Reason,
		}
		if w.RelatedContent != "" {
			details["related_content"] = w.RelatedContent
		}
		return e.appendLog(tx, &models.ModLogEntry{
			ModeratorID:  actor,
			TargetUserID: w.UserID,
			Action:       models.ModActionWarningIssued,
			SubjectKind:  models.SubjectWarning,
			SubjectID:    formatID(w.ID),
			Details:      details,
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("issuing warning: %w", err)
	}
	warningsIssued.WithLabelValues(string(w.Severity)).Inc()
	e.Logger.Info("warning issued", "user", w.UserID, "warning", w.ID, "severity", w.Severity, "actor", actor)

	ban, err := e.CheckEscalation(ctx, w.UserID, req.IssuedBy)
	if err != nil {
		return w, nil, fmt.Errorf("warning %d issued: %w", w.ID, err)
	}
	return w, ban, nil
}

// Deactivates a warning. Returns false (and no error) if the warning does not exist. Removing an already inactive warning is a no-op which returns true.
func (e *Engine) RemoveWarning(ctx context.Context, warningID, removedBy uint64, reason string) (bool, error) {
	ctx, span := tracer.Start(ctx, "RemoveWarning")
	defer span.End()

	now := e.now()
	found := false
	removed := false
	var w models.Warning
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&w, warningID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		found = true

		res := tx.Model(&models.Warning{}).Where("id = ? AND active = ?", w.ID, true).Updates(map[string]any{
			"active":     false,
			"updated_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true

		return e.appendLog(tx, &models.ModLogEntry{
			ModeratorID:  e.resolveActor(w.UserID, removedBy),
			TargetUserID: w.UserID,
			Action:       models.ModActionWarningRemoved,
			SubjectKind:  models.SubjectWarning,
			SubjectID:    formatID(w.ID),
			Details: models.Details{
				"reason":            reason,
				"original_severity": string(w.Severity),
				"original_reason":   w.Reason,
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return false, fmt.Errorf("removing warning %d: %w", warningID, err)
	}

	if removed {
		warningsRemoved.Inc()
		e.Logger.Info("warning removed", "user", w.UserID, "warning", w.ID, "actor", removedBy)
	}
	return found, nil
}

func (e *Engine) GetWarning(ctx context.Context, warningID uint64) (*models.Warning, error) {
	var w models.Warning
	if err := e.db.WithContext(ctx).First(&w, warningID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWarningNotFound
		}
		return nil, err
	}
	return &w, nil
}

// returns the user's warnings, newest first
func (e *Engine) ListWarnings(ctx context.Context, userID uint64, activeOnly bool) ([]models.Warning, error) {
	q := e.db.WithContext(ctx).Model(&models.Warning{}).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	out := []models.Warning{}
	if err := q.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
