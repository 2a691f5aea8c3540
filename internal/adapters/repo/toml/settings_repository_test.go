package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okunev/nutfarm/internal/domain"
)

func newSettingsRepo(t *testing.T) (*SettingsRepository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.toml")
	config := viper.New()
	config.Set("settings.path", path)

	repo, err := NewSettingsRepository(config, zerolog.Nop())
	require.NoError(t, err)
	return repo, path
}

func TestSettingsLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	repo, _ := newSettingsRepo(t)

	settings, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _ := newSettingsRepo(t)

	settings := domain.DefaultSettings()
	settings.AppID = 123456
	settings.AppHash = "0123456789abcdef"
	settings.Recipient = "@collector"
	settings.ProfileLabel = "Орешков"
	settings.MinDelay = 0.5
	settings.MaxDelay = 4.5

	require.NoError(t, repo.Save(context.Background(), settings))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
}

func TestSettingsLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	repo, path := newSettingsRepo(t)
	require.NoError(t, os.WriteFile(path, []byte("version = [not toml"), 0o600))

	settings, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestSettingsLoadUnsupportedVersionFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	repo, path := newSettingsRepo(t)
	require.NoError(t, os.WriteFile(path, []byte("version = 99\n"), 0o600))

	settings, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), settings)
}

func TestSettingsSaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	repo, _ := newSettingsRepo(t)

	settings := domain.DefaultSettings()
	settings.MinDelay = 5
	settings.MaxDelay = 1

	require.Error(t, repo.Save(context.Background(), settings))
}

func TestSettingsLoadOverlaysPartialDocumentOnDefaults(t *testing.T) {
	t.Parallel()

	repo, path := newSettingsRepo(t)
	doc := "version = 1\n\n[settings]\napp_id = 42\napp_hash = \"deadbeef\"\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	settings, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, settings.AppID)
	assert.Equal(t, domain.DefaultBotUsername, settings.BotUsername)
	assert.Equal(t, domain.DefaultProfileLabel, settings.ProfileLabel)
	assert.Equal(t, 5, settings.FetchWindow)
}
