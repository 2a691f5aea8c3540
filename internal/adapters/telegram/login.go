package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"github.com/okunev/nutfarm/internal/domain"
	"github.com/okunev/nutfarm/internal/ports"
)

// Login runs the interactive authorization flow for a phone number and
// leaves the authorized session at sessionPath. Returns the display name
// of the signed-in account.
func (f *Factory) Login(ctx context.Context, phone, sessionPath string, prompter ports.LoginPrompter) (string, error) {
	client := f.newClient(sessionPath)

	var identity string
	err := client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}

		if !status.Authorized {
			flow := auth.NewFlow(promptAuthenticator{phone: phone, prompter: prompter}, auth.SendCodeOptions{})
			if err := flow.Run(ctx, client.Auth()); err != nil {
				return fmt.Errorf("login flow: %w", err)
			}
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetch self: %w", err)
		}
		identity = displayName(self)
		return nil
	})
	if err != nil {
		return "", err
	}

	return identity, nil
}

// Check connects with the stored session and reports who it belongs to.
func (f *Factory) Check(ctx context.Context, account domain.Account) (string, error) {
	client := f.newClient(account.SessionPath)

	var identity string
	err := client.Run(ctx, func(ctx context.Context) error {
		status, err := client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status: %w", err)
		}
		if !status.Authorized {
			return fmt.Errorf("session %s is not authorized", account.ID)
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetch self: %w", err)
		}
		identity = displayName(self)
		return nil
	})
	if err != nil {
		return "", err
	}

	return identity, nil
}

// promptAuthenticator feeds the auth flow from an interactive prompter.
type promptAuthenticator struct {
	phone    string
	prompter ports.LoginPrompter
}

var _ auth.UserAuthenticator = promptAuthenticator{}

func (a promptAuthenticator) Phone(ctx context.Context) (string, error) {
	return a.phone, nil
}

func (a promptAuthenticator) Code(ctx context.Context, _ *tg.AuthSentCode) (string, error) {
	code, err := a.prompter.RequestCode(ctx)
	if err != nil {
		return "", fmt.Errorf("read login code: %w", err)
	}
	return strings.TrimSpace(code), nil
}

func (a promptAuthenticator) Password(ctx context.Context) (string, error) {
	password, err := a.prompter.RequestPassword(ctx)
	if err != nil {
		return "", fmt.Errorf("read 2FA password: %w", err)
	}
	return password, nil
}

func (a promptAuthenticator) AcceptTermsOfService(ctx context.Context, tos tg.HelpTermsOfService) error {
	return nil
}

func (a promptAuthenticator) SignUp(ctx context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign-up of new accounts is not supported")
}

func displayName(self *tg.User) string {
	if username, ok := self.GetUsername(); ok && username != "" {
		return "@" + username
	}

	name := strings.TrimSpace(self.FirstName + " " + self.LastName)
	if name != "" {
		return name
	}
	return fmt.Sprintf("id:%d", self.ID)
}
