package domain

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrNoSessions         = errors.New("no sessions available")
	ErrMissingCredentials = errors.New("platform credentials are not configured")
	ErrMissingRecipient   = errors.New("transfer recipient is not configured")
	ErrUnknownSettingKey  = errors.New("unknown setting key")
)
