package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

const (
	statsPathKey     = "stats.path"
	statsDefaultFile = "stats.toml"
	statsVersion     = 1
)

type statsFileSchema struct {
	Version  int                          `toml:"version"`
	Accounts map[string]statsRecordSchema `toml:"accounts"`
}

type statsRecordSchema struct {
	Total int64 `toml:"total"`
	Runs  int64 `toml:"runs"`
}

// StatsRepository persists per-account cumulative tallies. Every mutation is
// a load-mutate-save under the path write lock, so concurrent transfers from
// independent account loops never lose updates.
type StatsRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.StatsRepository = (*StatsRepository)(nil)

func NewStatsRepository(cfg *viper.Viper) (*StatsRepository, error) {
	path, err := resolvePath(cfg, statsPathKey, statsDefaultFile)
	if err != nil {
		return nil, err
	}

	return &StatsRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *StatsRepository) Get(ctx context.Context, id domain.AccountID) (domain.StatsRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.StatsRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.StatsRecord{}, err
	}

	record := file.Accounts[string(id)]
	return domain.StatsRecord{Total: record.Total, Runs: record.Runs}, nil
}

func (r *StatsRepository) All(ctx context.Context) (map[domain.AccountID]domain.StatsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	records := make(map[domain.AccountID]domain.StatsRecord, len(file.Accounts))
	for id, record := range file.Accounts {
		records[domain.AccountID(id)] = domain.StatsRecord{Total: record.Total, Runs: record.Runs}
	}

	return records, nil
}

func (r *StatsRepository) RecordTransfer(ctx context.Context, id domain.AccountID, amount int64) (domain.StatsRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.StatsRecord{}, err
	}
	if amount <= 0 {
		return domain.StatsRecord{}, fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.StatsRecord{}, err
	}
	if file.Accounts == nil {
		file.Accounts = map[string]statsRecordSchema{}
	}

	record := file.Accounts[string(id)]
	record.Total += amount
	record.Runs++
	file.Accounts[string(id)] = record
	file.Version = statsVersion

	data, err := toml.Marshal(file)
	if err != nil {
		return domain.StatsRecord{}, fmt.Errorf("encode stats: %w", err)
	}

	if err := writeDocument(r.path, data); err != nil {
		return domain.StatsRecord{}, err
	}

	return domain.StatsRecord{Total: record.Total, Runs: record.Runs}, nil
}

func (r *StatsRepository) readSchema() (statsFileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return statsFileSchema{}, nil
		}
		return statsFileSchema{}, fmt.Errorf("read stats file: %w", err)
	}

	var file statsFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return statsFileSchema{}, fmt.Errorf("decode stats file: %w", err)
	}
	if file.Version != 0 && file.Version != statsVersion {
		return statsFileSchema{}, fmt.Errorf("unsupported stats version %d", file.Version)
	}

	return file, nil
}
