package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

func newHeartbeatCmd(app *app) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "heartbeat",
		Short: "Run one challenge-response heartbeat cycle for an agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			outcome, err := app.manager.Heartbeat(cmd.Context(), domain.AgentID(agent))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.Result.Success {
				_, _ = fmt.Fprintln(out, "heartbeat verified")
				return nil
			}

			_, _ = fmt.Fprintf(out, "heartbeat failed: %s (consecutive misses: %d)\n", outcome.Result.Reason, outcome.Result.ConsecutiveMisses)
			if outcome.Compromise != nil {
				_, _ = fmt.Fprintf(out, "compromise protocol executed: incident %s, severity %s\n",
					outcome.Compromise.Protocol.Incident.ID, outcome.Compromise.Protocol.Incident.Severity)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent id")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}
