package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okunev/nutfarm/internal/domain"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage account sessions",
	}

	cmd.AddCommand(
		newSessionAddCmd(app),
		newSessionListCmd(app),
		newSessionCheckCmd(app),
	)

	return cmd
}

func newSessionAddCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <phone>",
		Short: "Sign in a phone number and store its session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if !settings.HasCredentials() {
				return domain.ErrMissingCredentials
			}

			factory, err := app.messengerFactory(settings)
			if err != nil {
				return err
			}
			if err := app.sessions.EnsureDir(); err != nil {
				return err
			}

			phone := strings.TrimSpace(args[0])
			path := app.sessions.PathFor(domain.AccountID(phone))
			prompter := &terminalPrompter{in: cmd.InOrStdin(), out: cmd.OutOrStdout()}

			identity, err := factory.Login(cmd.Context(), phone, path, prompter)
			if err != nil {
				return fmt.Errorf("sign in %s: %w", phone, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s, session stored at %s\n", identity, path)
			return nil
		},
	}
}

func newSessionListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := app.sessions.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(accounts) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No sessions stored. Run `nutfarm session add <phone>` first.")
				return nil
			}

			for _, account := range accounts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", account.ID, account.SessionPath)
			}

			return nil
		},
	}
}

func newSessionCheckCmd(app *app) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify stored sessions are still authorized",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if !settings.HasCredentials() {
				return domain.ErrMissingCredentials
			}

			factory, err := app.messengerFactory(settings)
			if err != nil {
				return err
			}

			accounts, err := selectAccounts(cmd.Context(), app, accountID)
			if err != nil {
				return err
			}

			var failed int
			for _, account := range accounts {
				var identity string
				err := runConnectSpinner(cmd.Context(), cmd.ErrOrStderr(),
					fmt.Sprintf("Checking %s...", account.ID),
					func(ctx context.Context) error {
						var checkErr error
						identity, checkErr = factory.Check(ctx, account)
						return checkErr
					})
				if err != nil {
					failed++
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tFAILED\t%v\n", account.ID, err)
					continue
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\tOK\t%s\n", account.ID, identity)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d sessions failed the check", failed, len(accounts))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Check a single account instead of all")

	return cmd
}

func selectAccounts(ctx context.Context, app *app, accountID string) ([]domain.Account, error) {
	if accountID != "" {
		account, err := app.sessions.Get(ctx, domain.AccountID(accountID))
		if err != nil {
			return nil, err
		}
		return []domain.Account{account}, nil
	}

	accounts, err := app.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, domain.ErrNoSessions
	}
	return accounts, nil
}

// terminalPrompter reads login codes and 2FA passwords off the CLI's stdin.
type terminalPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *terminalPrompter) RequestCode(ctx context.Context) (string, error) {
	return p.readLine(ctx, "Login code: ")
}

func (p *terminalPrompter) RequestPassword(ctx context.Context) (string, error) {
	return p.readLine(ctx, "2FA password: ")
}

func (p *terminalPrompter) readLine(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, _ = fmt.Fprint(p.out, prompt)

	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}
