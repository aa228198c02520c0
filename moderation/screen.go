package moderation

import (
	"context"
	"fmt"
	"strings"

	"github.com/wikiboard/wikimod/moderation/models"

	"go.opentelemetry.io/otel/attribute"
)

type ScreenResult struct {
	Matched      bool     `json:"matched"`
	Words        []string `json:"words"`
	FilteredText string   `json:"filtered_text"`

	CensorshipWarnings int             `json:"censorship_warnings"`
	Warning            *models.Warning `json:"warning,omitempty"`
	// set when the automatic warning pushed the user over the escalation threshold
	Ban *models.Ban `json:"ban,omitempty"`

	Status *UserStatus `json:"status"`
	// the submission should be refused; the author is banned
	Blocked bool `json:"blocked"`
}

// Screens a content submission by 'userID'. On a match, the user's censorship counter is bumped and an automatic warning is issued (which may escalate to a ban). The author's status is always evaluated.
//
// 'contentRef' is an opaque reference to the submitted content, stored on the warning.
func (e *Engine) ScreenContent(ctx context.Context, userID uint64, contentRef, text string) (*ScreenResult, error) {
	ctx, span := tracer.Start(ctx, "ScreenContent")
	defer span.End()
	span.SetAttributes(attribute.Int64("user", int64(userID)))

	if userID == 0 {
		return nil, ErrInvalidUser
	}

	filtered, words := e.Matcher.FilterText(text, e.Config.Replacement)
	res := &ScreenResult{
		Matched:      len(words) > 0,
		Words:        words,
		FilteredText: filtered,
	}
	span.SetAttributes(attribute.Bool("matched", res.Matched))

	if res.Matched {
		// Config may have been changed since NewEngine; refuse before touching any state
		if err := e.Config.Validate(); err != nil {
			return nil, err
		}
		screenedContent.WithLabelValues("matched").Inc()
		n, err := e.AddUserWarning(ctx, userID, words)
		if err != nil {
			return nil, err
		}
		res.CensorshipWarnings = n

		w, ban, err := e.issueWarning(ctx, WarningRequest{
			UserID:         userID,
			Severity:       e.Config.AutoWarningSeverity,
			Reason:         fmt.Sprintf("banned words: %s", strings.Join(words, ", ")),
			RelatedContent: contentRef,
		})
		res.Warning = w
		res.Ban = ban
		if err != nil {
			return res, err
		}
	} else {
		screenedContent.WithLabelValues("clean").Inc()
	}

	status, err := e.EvaluateAndReconcileStatus(ctx, userID)
	if err != nil {
		return res, err
	}
	res.Status = status
	res.CensorshipWarnings = status.CensorshipWarnings
	res.Blocked = status.IsBanned
	return res, nil
}
