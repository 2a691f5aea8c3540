package ports

import (
	"context"

	"github.com/okunev/nutfarm/internal/domain"
)

// StatsRepository persists per-account farming tallies. RecordTransfer is the
// single funnel for mutation and must be safe under concurrent invocation
// from independent account loops.
type StatsRepository interface {
	Get(ctx context.Context, id domain.AccountID) (domain.StatsRecord, error)
	All(ctx context.Context) (map[domain.AccountID]domain.StatsRecord, error)
	RecordTransfer(ctx context.Context, id domain.AccountID, amount int64) (domain.StatsRecord, error)
}
