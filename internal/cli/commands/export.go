package commands

import (
	"fmt"
	"os"

	"github.com/monotek/duplyconf/internal/cli/bundle"
	"github.com/monotek/duplyconf/internal/cli/compiler"
	"github.com/monotek/duplyconf/internal/cli/shared"
	"github.com/spf13/cobra"
)

func newExportCmd(ctx *appContext) *cobra.Command {
	var output string
	var encoding string

	cmd := &cobra.Command{
		Use:   "export <profile>",
		Short: "Export a compiled profile as a compressed archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			entry, ok := cfg.Entry(args[0])
			if !ok {
				return newExitCodeError(shared.ExitConfigError,
					fmt.Errorf("profile %q is not declared", args[0]))
			}
			spec, err := entry.Build()
			if err != nil {
				return newExitCodeError(shared.ExitValidationFailed, err)
			}

			plan := compiler.Compile(spec, compiler.LayoutFromSettings(cfg.Settings))
			content, err := bundle.Build(plan, cfg.Settings.ConfigRoot, encoding)
			if err != nil {
				return newExitCodeError(shared.ExitExportFailed, err)
			}

			if output == "" {
				output, err = bundle.FileName(spec.Name, encoding)
				if err != nil {
					return newExitCodeError(shared.ExitExportFailed, err)
				}
			}
			if err := os.WriteFile(output, content, 0o600); err != nil {
				return newExitCodeError(shared.ExitExportFailed, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s %s\n", output, bundle.Digest(content))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <profile>.tar.<ext>)")
	cmd.Flags().StringVar(&encoding, "encoding", bundle.EncodingTarZstd, "bundle encoding: tar+gzip|tar+xz|tar+zstd")
	return cmd
}
