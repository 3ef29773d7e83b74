package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/application"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

func newSessionCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage agent sessions",
	}

	cmd.AddCommand(
		newSessionInitCmd(app),
		newSessionTeardownCmd(app),
		newSessionShowCmd(app),
		newSessionListCmd(app),
	)

	return cmd
}

func newSessionInitCmd(app *app) *cobra.Command {
	var (
		agent     string
		role      string
		opContext string
		endpoints []string
		prompt    string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Issue credentials and bring an agent under monitoring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := app.manager.InitializeSession(cmd.Context(), domain.AgentID(agent), domain.RoleID(role), application.InitializeOptions{
				Context:             opContext,
				AuthorizedEndpoints: endpoints,
				SystemPrompt:        prompt,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "session: %s\n", summary.SessionID)
			// The token is shown exactly once; only its hash is persisted.
			_, _ = fmt.Fprintf(out, "token: %s\n", summary.Token)
			_, _ = fmt.Fprintf(out, "expires: %s\n", summary.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
			for _, marker := range summary.CanaryMarkers {
				_, _ = fmt.Fprintf(out, "canary: %s\n", marker)
			}
			for _, warning := range summary.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent id")
	cmd.Flags().StringVar(&role, "role", "", "compartment role")
	cmd.Flags().StringVar(&opContext, "context", "", "operational context note")
	cmd.Flags().StringSliceVar(&endpoints, "endpoint", nil, "authorized API endpoint (repeatable)")
	cmd.Flags().StringVar(&prompt, "system-prompt", "", "authorized system prompt to pin")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newSessionTeardownCmd(app *app) *cobra.Command {
	var (
		agent string
		actor string
	)

	cmd := &cobra.Command{
		Use:   "teardown",
		Short: "Revoke an agent's session and stop monitoring",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := app.manager.TeardownSession(cmd.Context(), domain.AgentID(agent), actor)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s terminated after %d heartbeats\n", result.SessionID, result.TotalHeartbeats)
			for _, warning := range result.Warnings {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent id")
	cmd.Flags().StringVar(&actor, "actor", "operator", "actor recorded in the audit trail")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func newSessionShowCmd(app *app) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show an agent's session (token redacted)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, state, err := app.manager.GetSession(cmd.Context(), domain.AgentID(agent))
			if err != nil {
				return err
			}

			payload := struct {
				Session domain.Session
				State   application.AgentState
			}{Session: session, State: state}

			encoded, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent id")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func newSessionListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := app.credentials.Sessions(cmd.Context())
			if err != nil {
				return err
			}

			for _, session := range sessions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", session.ID, session.AgentID, session.Role, session.Status)
			}

			return nil
		},
	}
}
