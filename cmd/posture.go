package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

func newPostureCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posture",
		Short: "Manage the global threat posture",
	}

	cmd.AddCommand(newPostureSetCmd(app), newPostureShowCmd(app))

	return cmd
}

func newPostureSetCmd(app *app) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "set <nominal|heightened|elevated|critical>",
		Short: "Set the threat posture (affects TTL of future issuances only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.credentials.SetThreatPosture(cmd.Context(), domain.ThreatPosture(args[0]), actor); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "posture: %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "operator", "actor recorded in the audit trail")

	return cmd
}

func newPostureShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current threat posture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(app.credentials.ThreatPosture()))
			return nil
		},
	}
}
