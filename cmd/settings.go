package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okunev/nutfarm/internal/domain"
)

func newSettingsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change farm settings",
	}

	cmd.AddCommand(
		newSettingsListCmd(app),
		newSettingsSetCmd(app),
	)

	return cmd
}

func newSettingsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the effective settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}

			for _, key := range domain.SettingKeys() {
				value := settings.Value(key)
				if key == "app_hash" && value != "" {
					value = "(set)"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
			}

			return nil
		},
	}
}

func newSettingsSetCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one setting and persist it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Mutate what is stored, not the env-overlaid view, so an
			// exported credential never leaks into the config file.
			settings, err := app.settingsRepo.Load(cmd.Context())
			if err != nil {
				return err
			}

			if err := settings.Apply(args[0], args[1]); err != nil {
				return err
			}

			if err := app.settingsRepo.Save(cmd.Context(), settings); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], settings.Value(args[0]))
			return nil
		},
	}
}
