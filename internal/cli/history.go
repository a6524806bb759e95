package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/config"
	"github.com/Hiveagents-ones/HiveCore-sub002/internal/round"
)

func historyCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded rounds for the configured project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			rounds, err := round.NewHistory(g.historyDir).Read(cfg.ProjectID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, fb := range rounds {
				status := "FAILED"
				if fb.IsSuccessful() {
					status = "PASSED"
				}
				fmt.Fprintf(out, "%s\tround %d\t%s\tcritical=%d\twarnings=%d\tcompliance=%.0f%%\n",
					fb.RequirementID, fb.RoundIndex, status, len(fb.CriticalIssues), len(fb.Warnings), fb.ContractCompliance*100)
			}
			return nil
		},
	}
}
