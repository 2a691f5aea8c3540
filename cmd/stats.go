package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	farmrender "github.com/okunev/nutfarm/internal/adapters/render/farm"
)

func newStatsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show accumulated transfer statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.loadSettings(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := app.statsRepo.All(cmd.Context())
			if err != nil {
				return err
			}

			output, err := app.statsRenderer(stats, farmrender.RenderOptions{
				Recipient: settings.Recipient,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
}
