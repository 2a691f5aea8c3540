package ports

import (
	"context"

	"github.com/okunev/nutfarm/internal/domain"
)

// SettingsRepository loads and persists the settings document. Load never
// fails on a missing or corrupt file; it falls back to defaults.
type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, settings domain.Settings) error
}
