package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Aggregate counts across all five subsystems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := app.manager.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoded, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return fmt.Errorf("encode status: %w", err)
				}
				_, _ = fmt.Fprintln(out, string(encoded))
				return nil
			}

			_, _ = fmt.Fprintf(out, "posture: %s\n", report.Posture)
			_, _ = fmt.Fprintf(out, "sessions: %d active, %d expired, %d revoked\n", report.ActiveSessions, report.ExpiredSessions, report.RevokedSessions)
			_, _ = fmt.Fprintf(out, "agents: %d registered, %d compromised\n", report.RegisteredAgents, report.CompromisedAgents)
			_, _ = fmt.Fprintf(out, "canary sets: %d active\n", report.ActiveCanarySets)
			_, _ = fmt.Fprintf(out, "kill switches: %d armed, %d activated\n", report.ArmedSwitches, report.ActivatedSwitches)
			_, _ = fmt.Fprintf(out, "incidents: %d open, %d closed\n", report.OpenIncidents, report.ClosedIncidents)

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")

	return cmd
}
