package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bernard",
		Short:         "House Bernard agent security core: sessions, heartbeats, canaries, kill switch",
		Long:          "bernard issues ephemeral agent credentials, verifies agent continuity through challenge-response heartbeats, plants canary markers to detect credential leaks, and executes the escalating compromise response when any check fails.",
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
		newHeartbeatCmd(app),
		newMonitorCmd(app),
		newCanaryCmd(app),
		newPostureCmd(app),
		newStatusCmd(app),
	)

	return rootCmd
}
