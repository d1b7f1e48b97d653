package commands

import (
	"fmt"

	"github.com/monotek/duplyconf/internal/cli/keylink"
	"github.com/monotek/duplyconf/internal/cli/shared"
	"github.com/monotek/duplyconf/pkg/resource"
	"github.com/spf13/cobra"
)

func newKeysCmd(ctx *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Key material helpers",
	}
	cmd.AddCommand(newKeysImportCmd(ctx))
	return cmd
}

func newKeysImportCmd(ctx *appContext) *cobra.Command {
	var id string
	var from string
	var checksum string
	var private bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Install armored key material into the keys directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			kind := resource.KeyPublic
			if private {
				kind = resource.KeyPrivate
			}
			path, err := keylink.Import(keylink.ImportOptions{
				KeysDir:  cfg.Settings.KeysDir,
				KeyID:    id,
				Kind:     kind,
				From:     from,
				Checksum: checksum,
			})
			if err != nil {
				return newExitCodeError(shared.ExitKeyImportFailed, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "key id the material is stored under")
	cmd.Flags().StringVar(&from, "from", "", "local path or URL of the armored key file")
	cmd.Flags().StringVar(&checksum, "checksum", "", "optional algo:hex checksum to verify")
	cmd.Flags().BoolVar(&private, "private", false, "treat the material as a private key")
	return cmd
}
