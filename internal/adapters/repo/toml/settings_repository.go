package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

const (
	settingsPathKey     = "settings.path"
	settingsDefaultFile = "settings.toml"
	settingsVersion     = 1
)

type settingsFileSchema struct {
	Version  int            `toml:"version"`
	Settings settingsSchema `toml:"settings"`
}

type settingsSchema struct {
	AppID        int     `toml:"app_id"`
	AppHash      string  `toml:"app_hash"`
	Recipient    string  `toml:"recipient"`
	BotUsername  string  `toml:"bot_username"`
	ProfileLabel string  `toml:"bot_profile_label"`
	MinDelay     float64 `toml:"min_delay"`
	MaxDelay     float64 `toml:"max_delay"`
	SettleDelay  float64 `toml:"settle_delay"`
	FetchWindow  int     `toml:"fetch_window"`
}

// SettingsRepository stores the tunable parameters as a versioned TOML
// document. A missing or corrupt document degrades to defaults with a
// warning; it never fails a load.
type SettingsRepository struct {
	path string
	mu   *sync.RWMutex
	log  zerolog.Logger
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(cfg *viper.Viper, log zerolog.Logger) (*SettingsRepository, error) {
	path, err := resolvePath(cfg, settingsPathKey, settingsDefaultFile)
	if err != nil {
		return nil, err
	}

	return &SettingsRepository{path: path, mu: lockForPath(path), log: log}, nil
}

func (r *SettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultSettings(), nil
		}
		r.log.Warn().Err(err).Str("path", r.path).Msg("settings unreadable; using defaults")
		return domain.DefaultSettings(), nil
	}

	var file settingsFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("settings corrupt; using defaults")
		return domain.DefaultSettings(), nil
	}
	if file.Version != 0 && file.Version != settingsVersion {
		r.log.Warn().Int("version", file.Version).Str("path", r.path).Msg("unsupported settings version; using defaults")
		return domain.DefaultSettings(), nil
	}

	settings := settingsFromSchema(file.Settings)
	if err := settings.Validate(); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("settings invalid; using defaults")
		return domain.DefaultSettings(), nil
	}

	return settings, nil
}

func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := settingsFileSchema{
		Version:  settingsVersion,
		Settings: settingsToSchema(settings),
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	return writeDocument(r.path, data)
}

// settingsFromSchema overlays the stored document onto defaults so fields
// added after the document was written keep their default values.
func settingsFromSchema(schema settingsSchema) domain.Settings {
	settings := domain.DefaultSettings()

	settings.AppID = schema.AppID
	settings.AppHash = schema.AppHash
	settings.Recipient = schema.Recipient
	if schema.BotUsername != "" {
		settings.BotUsername = schema.BotUsername
	}
	if schema.ProfileLabel != "" {
		settings.ProfileLabel = schema.ProfileLabel
	}
	if schema.MinDelay > 0 || schema.MaxDelay > 0 {
		settings.MinDelay = schema.MinDelay
		settings.MaxDelay = schema.MaxDelay
	}
	if schema.SettleDelay > 0 {
		settings.SettleDelay = schema.SettleDelay
	}
	if schema.FetchWindow > 0 {
		settings.FetchWindow = schema.FetchWindow
	}

	return settings
}

func settingsToSchema(settings domain.Settings) settingsSchema {
	return settingsSchema{
		AppID:        settings.AppID,
		AppHash:      settings.AppHash,
		Recipient:    settings.Recipient,
		BotUsername:  settings.BotUsername,
		ProfileLabel: settings.ProfileLabel,
		MinDelay:     settings.MinDelay,
		MaxDelay:     settings.MaxDelay,
		SettleDelay:  settings.SettleDelay,
		FetchWindow:  settings.FetchWindow,
	}
}
