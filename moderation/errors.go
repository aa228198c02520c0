package moderation

import (
	"errors"
)

var (
	ErrWarningNotFound = errors.New("unknown warning")
	ErrBanNotFound     = errors.New("unknown ban")

	ErrInvalidUser        = errors.New("invalid user id")
	ErrInvalidSeverity    = errors.New("invalid warning severity")
	ErrInvalidBanReason   = errors.New("invalid ban reason")
	ErrInvalidBanDuration = errors.New("invalid ban duration")
)
