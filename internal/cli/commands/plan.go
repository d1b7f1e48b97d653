package commands

import (
	"github.com/spf13/cobra"
)

func newPlanCmd(ctx *appContext) *cobra.Command {
	opts := applyCommandOptions{dryRun: true}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview convergence changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplyWithOptions(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.force, "force", false, "plan as if locally modified files were overwritten")
	return cmd
}
