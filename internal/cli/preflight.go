package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/blueprint"
)

func preflightCmd(g *globalFlags) *cobra.Command {
	var planPath, contractPath string
	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Check a generation plan before any file is written",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := blueprint.LoadPlan(planPath)
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context(), g, contractPath)
			if err != nil {
				return err
			}
			defer e.Close()

			issues, err := e.session.Preflight(plan)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintln(out, "plan ok")
				return nil
			}
			for _, is := range issues {
				line := is.String()
				if is.Suggestion != "" {
					line += " (" + is.Suggestion + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "Plan document (YAML or JSON)")
	cmd.Flags().StringVar(&contractPath, "contract", "", "Contract document (YAML or JSON)")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("contract")
	return cmd
}
