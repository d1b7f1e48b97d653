package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/monotek/duplyconf/internal/cli/profiles"
	"github.com/monotek/duplyconf/internal/cli/shared"
	"github.com/spf13/cobra"
)

type appContext struct {
	configPath string
	verbose    bool
}

func NewRootCmd(version string) *cobra.Command {
	ctx := &appContext{}
	cmd := &cobra.Command{
		Use:   "duplyconf",
		Short: "Declarative provisioner for duply backup profiles",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(ctx.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&ctx.configPath, "config", "duplyconf.yaml", "path or URL of the profile config")
	cmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newValidateCmd(ctx))
	cmd.AddCommand(newListCmd(ctx))
	cmd.AddCommand(newPlanCmd(ctx))
	cmd.AddCommand(newApplyCmd(ctx))
	cmd.AddCommand(newExportCmd(ctx))
	cmd.AddCommand(newKeysCmd(ctx))
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd(version))

	return cmd
}

func Execute(version string) int {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return mapExitCode(err)
	}
	return shared.ExitOK
}

func mapExitCode(err error) int {
	var codeErr *exitCodeError
	if errors.As(err, &codeErr) {
		return codeErr.code
	}
	return 1
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig(ctx *appContext) (*profiles.Config, error) {
	cfg, err := profiles.Load(ctx.configPath)
	if err != nil {
		return nil, newExitCodeError(shared.ExitConfigError, err)
	}
	return cfg, nil
}

type exitCodeError struct {
	code int
	err  error
}

func newExitCodeError(code int, err error) *exitCodeError {
	return &exitCodeError{code: code, err: err}
}

func (e *exitCodeError) Error() string {
	return e.err.Error()
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}
