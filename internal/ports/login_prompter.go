package ports

import "context"

// LoginPrompter collects interactive login input from the operator. The core
// never reads the terminal itself; the CLI supplies this capability.
type LoginPrompter interface {
	RequestCode(ctx context.Context) (string, error)
	RequestPassword(ctx context.Context) (string, error)
}
