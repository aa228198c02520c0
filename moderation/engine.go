package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/wikiboard/wikimod/moderation/censor"
	"github.com/wikiboard/wikimod/moderation/models"
	"github.com/wikiboard/wikimod/moderation/warncount"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("moderation")

// Engine owns the moderation state of users: warnings, bans, the moderation log, and the ephemeral censorship counters.
//
// It never denies anything on its own; callers consult UserStatus and decide.
type Engine struct {
	db       *gorm.DB
	Logger   *slog.Logger
	Counters warncount.Store
	Matcher  *censor.Matcher
	Config   Config

	// injectable for tests
	now func() time.Time
}

// Creates an Engine and migrates its tables. The config is validated first. A nil 'counters' falls back to an in-process store, and a nil 'matcher' to the built-in dictionary.
func NewEngine(db *gorm.DB, counters warncount.Store, matcher *censor.Matcher, config *Config) (*Engine, error) {

	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	if counters == nil {
		counters = warncount.NewMemStore(config.CounterCapacity, config.CounterTTL)
	}

	if matcher == nil {
		m, err := censor.DefaultMatcher()
		if err != nil {
			return nil, err
		}
		matcher = m
	}

	e := &Engine{
		db:       db,
		Logger:   slog.Default().With("system", "moderation"),
		Counters: counters,
		Matcher:  matcher,
		Config:   *config,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}

	if err := e.MigrateDatabase(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) MigrateDatabase() error {
	if err := e.db.AutoMigrate(models.Warning{}); err != nil {
		return err
	}
	if err := e.db.AutoMigrate(models.Ban{}); err != nil {
		return err
	}
	if err := e.db.AutoMigrate(models.ModLogEntry{}); err != nil {
		return err
	}
	return nil
}

// simple check of connection to database
func (e *Engine) Healthcheck(ctx context.Context) error {
	return e.db.WithContext(ctx).Exec("SELECT 1").Error
}

// Actor recorded for an action. Zero means "nobody in particular": the configured system actor, or else the user themself.
func (e *Engine) resolveActor(userID, actorID uint64) uint64 {
	if actorID != 0 {
		return actorID
	}
	if e.Config.SystemActorID != 0 {
		return e.Config.SystemActorID
	}
	return userID
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
