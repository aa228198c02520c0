package moderation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wikiboard/wikimod/moderation/models"
	"github.com/wikiboard/wikimod/moderation/warncount"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testModerator = uint64(7)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time {
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func testDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "moderation.sqlite")), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// transactions never touch the outer handle, so a single connection is enough (and avoids sqlite lock contention)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func testEngine(t *testing.T, config *Config) (*Engine, *testClock) {
	eng, err := NewEngine(testDB(t), warncount.NewMemStore(1000, time.Hour), nil, config)
	require.NoError(t, err)

	clock := &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	eng.now = clock.Now
	return eng, clock
}

// writes active warnings directly, bypassing the escalation check
func insertWarnings(t *testing.T, eng *Engine, userID uint64, n int) {
	for i := 0; i < n; i++ {
		w := models.Warning{
			UserID:    userID,
			IssuedBy:  testModerator,
			Severity:  models.SeverityLow,
			Reason:    "fixture",
			Active:    true,
			CreatedAt: eng.now(),
			UpdatedAt: eng.now(),
		}
		require.NoError(t, eng.db.Create(&w).Error)
	}
}

func warn(t *testing.T, eng *Engine, userID uint64) *models.Warning {
	w, err := eng.IssueWarning(context.Background(), WarningRequest{
		UserID:   userID,
		IssuedBy: testModerator,
		Severity: models.SeverityMedium,
		Reason:   "off-topic rant",
	})
	require.NoError(t, err)
	return w
}

func TestEngineHealthcheck(t *testing.T) {
	eng, _ := testEngine(t, nil)
	assert.NoError(t, eng.Healthcheck(context.Background()))
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	assert := assert.New(t)
	db := testDB(t)

	cfg := DefaultConfig()
	cfg.AutoBanDuration = "2d"
	_, err := NewEngine(db, nil, nil, cfg)
	assert.ErrorIs(err, ErrInvalidBanDuration)

	cfg = DefaultConfig()
	cfg.AutoWarningSeverity = ""
	_, err = NewEngine(db, nil, nil, cfg)
	assert.ErrorIs(err, ErrInvalidSeverity)

	cfg = DefaultConfig()
	cfg.AutoBanDuration = models.BanDurationPermanent
	cfg.AutoWarningSeverity = models.SeverityCritical
	_, err = NewEngine(db, nil, nil, cfg)
	assert.NoError(err)
}

func TestStatusZeroState(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := testEngine(t, nil)

	st, err := eng.EvaluateAndReconcileStatus(ctx, 42)
	assert.NoError(err)
	assert.Equal(uint64(42), st.UserID)
	assert.False(st.IsBanned)
	assert.Nil(st.Ban)
	assert.Equal(0, st.ActiveWarnings)
	assert.Equal(0, st.CensorshipWarnings)
	assert.Equal(0, st.TotalWarnings)
	assert.True(st.CanPost)
	assert.True(st.CanComment)
	assert.True(st.CanMessage)

	_, err = eng.EvaluateAndReconcileStatus(ctx, 0)
	assert.ErrorIs(err, ErrInvalidUser)
}

func TestStatusCombinesWarningPools(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := testEngine(t, nil)

	warn(t, eng, 5)
	warn(t, eng, 5)
	_, err := eng.AddUserWarning(ctx, 5, []string{"хуй"})
	assert.NoError(err)

	st, err := eng.EvaluateAndReconcileStatus(ctx, 5)
	assert.NoError(err)
	assert.Equal(2, st.ActiveWarnings)
	assert.Equal(1, st.CensorshipWarnings)
	assert.Equal(3, st.TotalWarnings)
	assert.False(st.IsBanned)
}

func TestUserCounter(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := testEngine(t, nil)

	n, err := eng.GetUserWarnings(ctx, 9)
	assert.NoError(err)
	assert.Equal(0, n)

	n, err = eng.AddUserWarning(ctx, 9, []string{"a"})
	assert.NoError(err)
	assert.Equal(1, n)
	n, err = eng.AddUserWarning(ctx, 9, []string{"b"})
	assert.NoError(err)
	assert.Equal(2, n)

	n, err = eng.GetUserWarnings(ctx, 9)
	assert.NoError(err)
	assert.Equal(2, n)

	assert.NoError(eng.ResetUserWarnings(ctx, 9))
	n, err = eng.GetUserWarnings(ctx, 9)
	assert.NoError(err)
	assert.Equal(0, n)

	_, err = eng.AddUserWarning(ctx, 0, nil)
	assert.ErrorIs(err, ErrInvalidUser)
}

func TestResolveActor(t *testing.T) {
	assert := assert.New(t)

	eng, _ := testEngine(t, nil)
	assert.Equal(uint64(3), eng.resolveActor(10, 3))
	assert.Equal(uint64(10), eng.resolveActor(10, 0))

	eng.Config.SystemActorID = 1
	assert.Equal(uint64(1), eng.resolveActor(10, 0))
	assert.Equal(uint64(3), eng.resolveActor(10, 3))
}
