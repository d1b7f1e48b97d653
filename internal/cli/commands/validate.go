package commands

import (
	"fmt"

	"github.com/monotek/duplyconf/internal/cli/shared"
	"github.com/spf13/cobra"
)

func newValidateCmd(ctx *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate declared profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			invalid := 0
			for _, entry := range cfg.Entries {
				if _, err := entry.Build(); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), err.Error())
					invalid++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "profile %q: ok\n", entry.Name)
			}

			if invalid > 0 {
				return newExitCodeError(shared.ExitValidationFailed,
					fmt.Errorf("%d of %d profiles invalid", invalid, len(cfg.Entries)))
			}
			return nil
		},
	}
}
