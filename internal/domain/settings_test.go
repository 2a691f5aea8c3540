package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.False(t, s.HasCredentials())
}

func TestSettingsApplyRejectsMaxBelowMin(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	require.NoError(t, s.Apply("min_delay", "2.0"))

	err := s.Apply("max_delay", "1.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below min_delay")

	// The rejected mutation must leave the previous value in place.
	assert.Equal(t, 2.0, s.MinDelay)
	assert.Equal(t, 3.0, s.MaxDelay)
}

func TestSettingsApplyKeys(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	require.NoError(t, s.Apply("app_id", "123456"))
	require.NoError(t, s.Apply("app_hash", "0123456789abcdef"))
	require.NoError(t, s.Apply("recipient", "@collector"))
	require.NoError(t, s.Apply("bot_username", "@suslikmetrbot"))
	require.NoError(t, s.Apply("fetch_window", "10"))

	assert.Equal(t, 123456, s.AppID)
	assert.True(t, s.HasCredentials())
	assert.Equal(t, "@collector", s.Recipient)
	assert.Equal(t, "suslikmetrbot", s.BotUsername)
	assert.Equal(t, 10, s.FetchWindow)
}

func TestSettingsApplyUnknownKey(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	err := s.Apply("cadence", "7")
	require.ErrorIs(t, err, ErrUnknownSettingKey)
}

func TestSettingsDelayDurations(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	require.NoError(t, s.Apply("min_delay", "0.5"))
	require.NoError(t, s.Apply("settle_delay", "1.5"))

	assert.Equal(t, 500*time.Millisecond, s.MinDelayDuration())
	assert.Equal(t, 3*time.Second, s.MaxDelayDuration())
	assert.Equal(t, 1500*time.Millisecond, s.SettleDuration())
}

func TestSettingsValidateRejectsEmptyBot(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	s.BotUsername = " "
	require.Error(t, s.Validate())
}

func TestTransferCommandFormat(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/give 5000 @collector", TransferCommand(5000, "@collector"))
}

func TestDefaultScriptOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, CommandScript{"/treat", "/iron", "/treat", "/bonus"}, DefaultScript())
}
