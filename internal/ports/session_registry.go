package ports

import (
	"context"

	"github.com/okunev/nutfarm/internal/domain"
)

// SessionRegistry enumerates the session artifacts on disk. Presence of the
// artifact is the sole existence check for an account.
type SessionRegistry interface {
	List(ctx context.Context) ([]domain.Account, error)
	Get(ctx context.Context, id domain.AccountID) (domain.Account, error)
	// PathFor yields the session path an artifact for id would live at,
	// whether or not it exists yet.
	PathFor(id domain.AccountID) string
}
