// Package sessions enumerates the per-account session artifacts on disk.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

const (
	sessionsDirKey     = "sessions.dir"
	configName         = "config"
	configType         = "toml"
	configDirName      = ".nutfarm"
	sessionsDirDefault = "sessions"
	sessionExt         = ".session"
	sessionsDirMode    = 0o700
)

// Registry lists *.session files under the sessions directory. The filename
// stem is the account ID; the file itself is opaque to everything but the
// messenger adapter.
type Registry struct {
	dir string
}

var _ ports.SessionRegistry = (*Registry)(nil)

func NewRegistry(cfg *viper.Viper) (*Registry, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDirName))
	cfg.SetDefault(sessionsDirKey, filepath.Join(homeDir, configDirName, sessionsDirDefault))

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	dir := cfg.GetString(sessionsDirKey)
	if dir == "" {
		return nil, errors.New("sessions dir is empty")
	}
	dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve sessions dir: %w", err)
	}

	return &Registry{dir: filepath.Clean(dir)}, nil
}

func (r *Registry) List(ctx context.Context) ([]domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	accounts := make([]domain.Account, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), sessionExt) {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), sessionExt)
		accounts = append(accounts, domain.Account{
			ID:          domain.AccountID(id),
			SessionPath: filepath.Join(r.dir, entry.Name()),
		})
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (r *Registry) Get(ctx context.Context, id domain.AccountID) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	path := r.PathFor(id)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("stat session file: %w", err)
	}

	return domain.Account{ID: id, SessionPath: path}, nil
}

func (r *Registry) PathFor(id domain.AccountID) string {
	name := sanitizeID(string(id))
	return filepath.Join(r.dir, name+sessionExt)
}

// EnsureDir creates the sessions directory before a new login writes into it.
func (r *Registry) EnsureDir() error {
	if err := os.MkdirAll(r.dir, sessionsDirMode); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}
	return nil
}

// sanitizeID normalizes a phone-derived identifier into a filename stem, the
// same way the artifact was named at login.
func sanitizeID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "+")
	return strings.ReplaceAll(id, " ", "")
}
