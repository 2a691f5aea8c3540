package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	farmrender "github.com/okunev/nutfarm/internal/adapters/render/farm"
	tomlrepo "github.com/okunev/nutfarm/internal/adapters/repo/toml"
	"github.com/okunev/nutfarm/internal/adapters/sessions"
	"github.com/okunev/nutfarm/internal/adapters/telegram"
	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

type app struct {
	settingsRepo  *tomlrepo.SettingsRepository
	statsRepo     *tomlrepo.StatsRepository
	sessions      *sessions.Registry
	statsRenderer func(map[domain.AccountID]domain.StatsRecord, farmrender.RenderOptions) (string, error)
	log           zerolog.Logger
	clock         ports.Clock
}

func wireApp() (*app, error) {
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	cfg := viper.New()

	settingsRepo, err := tomlrepo.NewSettingsRepository(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("wire settings repository: %w", err)
	}

	statsRepo, err := tomlrepo.NewStatsRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire stats repository: %w", err)
	}

	registry, err := sessions.NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire session registry: %w", err)
	}

	return &app{
		settingsRepo:  settingsRepo,
		statsRepo:     statsRepo,
		sessions:      registry,
		statsRenderer: farmrender.Render,
		log:           log,
		clock:         ports.SystemClock{},
	}, nil
}

// loadSettings reads stored settings and overlays the environment keys, so
// credentials never have to live in the config file.
func (a *app) loadSettings(ctx context.Context) (domain.Settings, error) {
	settings, err := a.settingsRepo.Load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	return overlayEnv(settings), nil
}

func overlayEnv(settings domain.Settings) domain.Settings {
	if raw := os.Getenv("NUTFARM_APP_ID"); raw != "" {
		if id, err := strconv.Atoi(raw); err == nil {
			settings.AppID = id
		}
	}
	if hash := os.Getenv("NUTFARM_APP_HASH"); hash != "" {
		settings.AppHash = hash
	}
	if recipient := os.Getenv("NUTFARM_RECIPIENT"); recipient != "" {
		settings.Recipient = recipient
	}
	return settings
}

func (a *app) messengerFactory(settings domain.Settings) (*telegram.Factory, error) {
	return telegram.NewFactory(settings.AppID, settings.AppHash, a.log)
}
