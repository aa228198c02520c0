package moderation

import (
	"context"
	"testing"

	"github.com/wikiboard/wikimod/moderation/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScreenCleanContent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := testEngine(t, nil)

	res, err := eng.ScreenContent(ctx, 80, "article:1", "обычная статья про сады")
	require.NoError(t, err)
	assert.False(res.Matched)
	assert.Empty(res.Words)
	assert.Equal("обычная статья про сады", res.FilteredText)
	assert.Nil(res.Warning)
	assert.Nil(res.Ban)
	assert.False(res.Blocked)
	assert.Equal(0, res.Status.TotalWarnings)

	_, err = eng.ScreenContent(ctx, 0, "", "text")
	assert.ErrorIs(err, ErrInvalidUser)
}

func TestScreenMatchedContent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := testEngine(t, nil)

	res, err := eng.ScreenContent(ctx, 81, "comment:5", "купи хуй дешево")
	require.NoError(t, err)
	assert.True(res.Matched)
	assert.Equal([]string{"хуй"}, res.Words)
	assert.Equal("купи [censored] дешево", res.FilteredText)
	assert.Equal(1, res.CensorshipWarnings)
	require.NotNil(t, res.Warning)
	assert.Equal(models.SeverityMedium, res.Warning.Severity)
	assert.Equal("comment:5", res.Warning.RelatedContent)
	assert.Contains(res.Warning.Reason, "хуй")
	// no system actor configured, so the automatic warning is attributed to the author
	assert.Equal(uint64(81), res.Warning.IssuedBy)
	assert.False(res.Blocked)
	assert.Equal(1, res.Status.ActiveWarnings)
	assert.Equal(2, res.Status.TotalWarnings)
}

func TestScreenEscalatesToBan(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.SystemActorID = 1
	cfg.Replacement = "***"
	eng, _ := testEngine(t, cfg)

	for i := 0; i < 3; i++ {
		res, err := eng.ScreenContent(ctx, 82, "", "ну ты и сука")
		require.NoError(t, err)
		assert.False(res.Blocked)
		assert.Equal("ну ты и ***", res.FilteredText)
		assert.Equal(uint64(1), res.Warning.IssuedBy)
	}

	res, err := eng.ScreenContent(ctx, 82, "", "ну ты и сука")
	require.NoError(t, err)
	assert.True(res.Blocked)
	require.NotNil(t, res.Ban)
	assert.Equal(models.BanReasonMultipleViolations, res.Ban.Reason)
	assert.Equal(uint64(1), res.Ban.BannedBy)
	assert.Equal(4, res.CensorshipWarnings)

	// clean content from a banned author is still blocked
	res, err = eng.ScreenContent(ctx, 82, "", "извините")
	require.NoError(t, err)
	assert.False(res.Matched)
	assert.True(res.Blocked)
}

func TestScreenInvalidSeverityLeavesNoState(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	eng, _ := testEngine(t, nil)

	eng.Config.AutoWarningSeverity = ""
	_, err := eng.ScreenContent(ctx, 83, "comment:9", "купи хуй дешево")
	assert.ErrorIs(err, ErrInvalidSeverity)

	n, err := eng.GetUserWarnings(ctx, 83)
	assert.NoError(err)
	assert.Equal(0, n)

	warnings, err := eng.ListWarnings(ctx, 83, false)
	assert.NoError(err)
	assert.Empty(warnings)
}
