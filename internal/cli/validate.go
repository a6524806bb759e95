package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/feedback"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/round"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/workspace"
)

type validateFlags struct {
	workspace     string
	contract      string
	requirement   string
	round         int
	maxIssues     int
	checkPackages bool
	jsonOut       bool
}

func (f *validateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.workspace, "workspace", ".", "Generated project directory")
	cmd.Flags().StringVar(&f.contract, "contract", "", "Contract document (YAML or JSON)")
	cmd.Flags().StringVar(&f.requirement, "requirement", "", "Requirement id the round belongs to")
	cmd.Flags().IntVar(&f.round, "round", 1, "Round index")
	cmd.Flags().IntVar(&f.maxIssues, "max-issues", 0, "Issues listed per section (0 uses FEEDBACK_MAX_ISSUES)")
	cmd.Flags().BoolVar(&f.checkPackages, "check-packages", true, "Check imports against package manifests")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the feedback as JSON")
	_ = cmd.MarkFlagRequired("contract")
}

func validateCmd(g *globalFlags) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a workspace once and print the round feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, g, f.contract)
			if err != nil {
				return err
			}
			defer e.Close()

			writes, err := workspace.Walk(f.workspace, workspace.WalkOptions{})
			if err != nil {
				return fmt.Errorf("read workspace: %w", err)
			}
			if _, err := e.session.Apply(ctx, writes); err != nil {
				return err
			}
			fb, err := runRound(ctx, e, f, f.round)
			if err != nil {
				return err
			}
			if err := printFeedback(cmd.OutOrStdout(), fb, f, e.cfg.FeedbackMaxIssues); err != nil {
				return err
			}
			if !fb.IsSuccessful() {
				return ErrRoundFailed
			}
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func runRound(ctx context.Context, e *env, f *validateFlags, index int) (feedback.RoundFeedback, error) {
	in := round.RoundInput{
		RequirementID: f.requirement,
		RoundIndex:    index,
		Workers:       e.cfg.Workers,
	}
	if f.checkPackages {
		declared, err := workspace.DeclaredPackages(f.workspace)
		if err != nil {
			return feedback.RoundFeedback{}, fmt.Errorf("read manifests: %w", err)
		}
		// Without any manifest every third-party import would be flagged.
		if len(declared) > 0 {
			in.DeclaredPackages = declared
		}
	}
	return e.session.Validate(ctx, in)
}

func printFeedback(w io.Writer, fb feedback.RoundFeedback, f *validateFlags, defMax int) error {
	if f.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(fb)
	}
	limit := f.maxIssues
	if limit <= 0 {
		limit = defMax
	}
	_, err := fmt.Fprintln(w, fb.BuildFeedbackPrompt(limit))
	return err
}
