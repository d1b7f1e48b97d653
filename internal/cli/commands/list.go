package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			for _, entry := range cfg.Entries {
				spec, err := entry.Build()
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tinvalid\n", entry.Name)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s -> %s\n",
					spec.Name, spec.Ensure, spec.Source, spec.Target)
			}
			return nil
		},
	}
}
