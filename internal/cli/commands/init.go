package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultConfigName = "duplyconf.yaml"

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a duplyconf.yaml template",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeIfNotExists(defaultConfigName, configTemplate()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized: %s\n", defaultConfigName)
			return nil
		},
	}
	return cmd
}

func writeIfNotExists(path, content string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func configTemplate() string {
	return `version: 1
settings:
  config_root: /etc/duply
  keys_dir: /etc/duply/keys
profiles:
  system:
    ensure: present
    source: /
    target: sftp://backup.example.com/system
    gpg_encryption_keys: [A1B2C3D4]
    full_if_older_than: 1M
    volsize: 50
    include_filelist:
      - /etc
      - /home
    exclude_by_default: true
`
}
