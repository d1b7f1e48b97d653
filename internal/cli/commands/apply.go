package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/monotek/duplyconf/internal/cli/compiler"
	"github.com/monotek/duplyconf/internal/cli/converge"
	"github.com/monotek/duplyconf/internal/cli/keylink"
	"github.com/monotek/duplyconf/internal/cli/profiles"
	"github.com/monotek/duplyconf/internal/cli/shared"
	"github.com/monotek/duplyconf/pkg/resource"
	"github.com/spf13/cobra"
)

type applyCommandOptions struct {
	dryRun bool
	force  bool
}

func newApplyCmd(ctx *appContext) *cobra.Command {
	opts := applyCommandOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Converge profiles to their declared state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplyWithOptions(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show actions without writing files")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite locally modified managed files")
	return cmd
}

// compileAll validates and compiles every declared profile. One invalid
// profile is reported and skipped without blocking the rest.
func compileAll(cfg *profiles.Config) ([]compiler.Plan, []error) {
	layout := compiler.LayoutFromSettings(cfg.Settings)
	var plans []compiler.Plan
	var errs []error
	for _, entry := range cfg.Entries {
		spec, err := entry.Build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		plans = append(plans, compiler.Compile(spec, layout))
	}
	return plans, errs
}

func runApplyWithOptions(ctx *appContext, opts applyCommandOptions) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	plans, buildErrs := compileAll(cfg)
	for _, buildErr := range buildErrs {
		fmt.Fprintln(os.Stderr, buildErr.Error())
	}

	layout := compiler.LayoutFromSettings(cfg.Settings)
	applier, err := converge.NewApplier(converge.Options{
		LockPath: filepath.Join(layout.ConfigRoot, converge.LockFileName),
		DryRun:   opts.dryRun,
		Force:    opts.force,
		OnChange: func(c converge.Change) {
			if opts.dryRun {
				fmt.Printf("%s: %s\n", c.Outcome, c.Path)
				return
			}
			slog.Debug("converged", "profile", c.Profile, "path", c.Path, "outcome", c.Outcome)
		},
	})
	if err != nil {
		return newExitCodeError(shared.ExitApplyFailed, err)
	}

	total := converge.Result{}
	conflicted := false
	for _, plan := range plans {
		decls := append([]resource.Declaration(nil), plan.Resources...)
		// Key links only materialize for present profiles; converging a
		// present symlink under a directory being torn down would recreate
		// the directory.
		if plan.Ensure.Present() {
			for _, missing := range keylink.MissingMaterial(plan.KeyLinks, layout.KeysDir) {
				slog.Warn("key material missing", "profile", plan.Profile, "path", missing)
			}
			for _, link := range keylink.Declarations(plan.KeyLinks, layout.ConfigRoot, layout.KeysDir) {
				decls = append(decls, link)
			}
		}

		res, applyErr := applier.ApplyProfile(plan.Profile, decls)
		total.Created += res.Created
		total.Updated += res.Updated
		total.Unchanged += res.Unchanged
		total.Removed += res.Removed
		total.Conflicts = append(total.Conflicts, res.Conflicts...)
		if applyErr != nil {
			if errors.Is(applyErr, converge.ErrConflict) {
				conflicted = true
				continue
			}
			return newExitCodeError(shared.ExitApplyFailed, applyErr)
		}
	}
	if err := applier.Close(); err != nil {
		return newExitCodeError(shared.ExitApplyFailed, err)
	}

	fmt.Printf("created=%d updated=%d unchanged=%d removed=%d\n",
		total.Created, total.Updated, total.Unchanged, total.Removed)
	for _, c := range total.Conflicts {
		fmt.Printf("conflict: %s\n", c)
	}

	if conflicted {
		return newExitCodeError(shared.ExitApplyConflict, converge.ErrConflict)
	}
	if len(buildErrs) > 0 {
		return newExitCodeError(shared.ExitValidationFailed,
			fmt.Errorf("%d profile(s) failed validation", len(buildErrs)))
	}
	return nil
}
