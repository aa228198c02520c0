package moderation

import (
	"context"
	"fmt"

	"github.com/wikiboard/wikimod/moderation/warncount"
)

// Bumps the ephemeral censorship counter for a user and returns the new value. The matched 'words' are only logged.
func (e *Engine) AddUserWarning(ctx context.Context, userID uint64, words []string) (int, error) {
	if userID == 0 {
		return 0, ErrInvalidUser
	}
	n, err := e.Counters.Increment(ctx, warncount.UserKey(userID))
	if err != nil {
		return 0, fmt.Errorf("incrementing censorship counter: %w", err)
	}
	censorWarnings.Inc()
	e.Logger.Info("censorship warning", "user", userID, "count", n, "words", words)
	return n, nil
}

// zero when the counter is absent or expired
func (e *Engine) GetUserWarnings(ctx context.Context, userID uint64) (int, error) {
	if userID == 0 {
		return 0, ErrInvalidUser
	}
	return e.Counters.Get(ctx, warncount.UserKey(userID))
}

func (e *Engine) ResetUserWarnings(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return ErrInvalidUser
	}
	if err := e.Counters.Reset(ctx, warncount.UserKey(userID)); err != nil {
		return fmt.Errorf("resetting censorship counter: %w", err)
	}
	e.Logger.Info("censorship counter reset", "user", userID)
	return nil
}
