package domain

type AccountID string

// Account is a controlled identity on the platform. The session artifact at
// SessionPath is opaque to everything except the messenger adapter.
type Account struct {
	ID          AccountID
	SessionPath string
}
