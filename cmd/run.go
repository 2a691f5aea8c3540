package cmd

import (
	"github.com/spf13/cobra"

	"github.com/okunev/nutfarm/internal/application"
	"github.com/okunev/nutfarm/internal/domain"
)

func newRunCmd(app *app) *cobra.Command {
	var (
		accountID string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the farm loop until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			if !settings.HasCredentials() {
				return domain.ErrMissingCredentials
			}
			if settings.Recipient == "" {
				return domain.ErrMissingRecipient
			}

			factory, err := app.messengerFactory(settings)
			if err != nil {
				return err
			}

			cycle := application.NewCycle(factory, app.statsRepo, app.clock, app.log)
			orchestrator := application.NewOrchestrator(cycle, app.clock, app.log)

			if all {
				accounts, err := app.sessions.List(cmd.Context())
				if err != nil {
					return err
				}
				return orchestrator.RunAll(cmd.Context(), accounts, settings)
			}

			account, err := app.sessions.Get(cmd.Context(), domain.AccountID(accountID))
			if err != nil {
				return err
			}

			orchestrator.RunAccount(cmd.Context(), account, settings)
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Run a single account's loop")
	cmd.Flags().BoolVar(&all, "all", false, "Run every stored account concurrently")
	cmd.MarkFlagsOneRequired("account", "all")
	cmd.MarkFlagsMutuallyExclusive("account", "all")

	return cmd
}
