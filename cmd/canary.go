package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevereal007-del/House-Bernard-sub000/internal/application"
	"github.com/stevereal007-del/House-Bernard-sub000/internal/domain"
)

func newCanaryCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canary",
		Short: "Detect leaked credential bundles through decoy markers",
	}

	cmd.AddCommand(
		newCanaryDetectCmd(app),
		newCanaryScanCmd(app),
		newCanaryRefreshCmd(app),
	)

	return cmd
}

func newCanaryDetectCmd(app *app) *cobra.Command {
	var (
		observedBy string
		obsContext string
	)

	cmd := &cobra.Command{
		Use:   "detect <marker>",
		Short: "Check a marker observed under an agent identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.canaries.Detect(cmd.Context(), args[0], domain.AgentID(observedBy), obsContext)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch result.Outcome {
			case application.DetectNotFound:
				_, _ = fmt.Fprintln(out, "marker unknown")
			case application.DetectLegitimate:
				_, _ = fmt.Fprintln(out, "legitimate use by owner")
			case application.DetectCompromiseConfirmed:
				_, _ = fmt.Fprintf(out, "compromise confirmed: bundle of %s leaked (detection %s)\n",
					result.OriginalOwner, result.DetectionID)
				for _, action := range result.RecommendedActions {
					_, _ = fmt.Fprintf(out, "recommended: %s\n", action)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&observedBy, "observed-by", "", "agent identity the marker was observed under")
	cmd.Flags().StringVar(&obsContext, "context", "", "where the marker was observed")
	_ = cmd.MarkFlagRequired("observed-by")

	return cmd
}

func newCanaryScanCmd(app *app) *cobra.Command {
	var agent string

	cmd := &cobra.Command{
		Use:   "scan <candidate>...",
		Short: "Scan a credential bundle for foreign canaries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scan, err := app.canaries.ScanBundle(cmd.Context(), domain.AgentID(agent), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if scan.Clean {
				_, _ = fmt.Fprintln(out, "clean")
				return nil
			}
			for _, marker := range scan.ForeignCanaries {
				_, _ = fmt.Fprintf(out, "foreign: %s\n", marker)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&agent, "agent", "", "agent presenting the bundle")
	_ = cmd.MarkFlagRequired("agent")

	return cmd
}

func newCanaryRefreshCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Regenerate every active canary set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			refreshed, err := app.canaries.RefreshAll(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d set(s)\n", refreshed)
			return nil
		},
	}
}
