package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/application"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

func newMonitorCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Feed kill-switch trigger checks for an agent",
	}

	cmd.AddCommand(
		newMonitorQueryCmd(app),
		newMonitorEndpointCmd(app),
		newMonitorPromptCmd(app),
		newMonitorSweepCmd(app),
	)

	return cmd
}

func newMonitorQueryCmd(app *app) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Record an observed query against the interrogation detector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := app.manager.MonitorQuery(cmd.Context(), domain.AgentID(agent), args[0])
			if err != nil {
				return err
			}
			return printMonitorOutcome(cmd, outcome)
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent id")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func newMonitorEndpointCmd(app *app) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "endpoint <url>",
		Short: "Check an observed API endpoint against the authorized set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := app.manager.CheckEndpoint(cmd.Context(), domain.AgentID(agent), args[0])
			if err != nil {
				return err
			}
			return printMonitorOutcome(cmd, outcome)
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent id")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func newMonitorPromptCmd(app *app) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "prompt <text>",
		Short: "Check an observed system prompt against the pinned hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome, err := app.manager.CheckSystemPrompt(cmd.Context(), domain.AgentID(agent), application.HashPrompt(args[0]))
			if err != nil {
				return err
			}
			return printMonitorOutcome(cmd, outcome)
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent id")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func newMonitorSweepCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Sweep for dead heartbeats and escalate silent agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reports, err := app.manager.CheckDeadHeartbeats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				_, _ = fmt.Fprintln(out, "no dead heartbeats")
				return nil
			}

			for _, report := range reports {
				_, _ = fmt.Fprintf(out, "escalated: incident %s (trigger %s)\n",
					report.Protocol.Incident.ID, report.Activation.Trigger)
			}

			return nil
		},
	}
}

func printMonitorOutcome(cmd *cobra.Command, outcome application.MonitorOutcome) error {
	out := cmd.OutOrStdout()
	if !outcome.Activated {
		_, _ = fmt.Fprintln(out, "ok")
		return nil
	}

	_, _ = fmt.Fprintln(out, "kill switch activated")
	if outcome.Compromise != nil {
		_, _ = fmt.Fprintf(out, "compromise protocol executed: incident %s, severity %s\n",
			outcome.Compromise.Protocol.Incident.ID, outcome.Compromise.Protocol.Incident.Severity)
	}

	return nil
}
