package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Execute runs the CLI under a signal-aware context. An interrupt during a
// farm loop is a normal shutdown, not an error.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nutfarm",
		Short:         "Telegram nut farm: sessions, farm loops, transfer stats",
		Long:          "nutfarm drives the squirrel game bot from your own accounts: it provisions a disposable group per cycle, invites the bot, runs the feeding script, reads the balance off the profile card and ships it to the recipient account.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSessionCmd(app),
		newRunCmd(app),
		newSettingsCmd(app),
		newStatsCmd(app),
	)

	return rootCmd
}
