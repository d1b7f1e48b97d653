// Package converge applies resource declarations to the local filesystem:
// it diffs declared content against real state, backs up what it replaces,
// and tears down resources declared absent. Compilation never touches disk;
// everything with a side effect lives here.
package converge

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/monotek/duplyconf/internal/cli/shared"
	"github.com/monotek/duplyconf/pkg/resource"
)

// ErrConflict reports a managed file whose current content matches neither
// the last applied hash nor the incoming content. Someone edited it locally;
// converging would destroy their change unless forced.
var ErrConflict = errors.New("local changes conflict with managed content")

const (
	OutcomeCreated   = "created"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeRemoved   = "removed"
)

// Change describes one processed declaration.
type Change struct {
	Profile string
	Path    string
	Outcome string
}

// Options controls apply behavior.
type Options struct {
	// LockPath is where apply state is kept. Empty disables drift detection.
	LockPath string
	// DryRun reports outcomes without touching the filesystem.
	DryRun bool
	// Force overwrites locally drifted files instead of failing.
	Force bool
	// Backup is the pre-overwrite strategy, shared.BackupTimestamp by default.
	Backup string
	Now    func() time.Time
	// OnChange, when set, observes every non-unchanged outcome.
	OnChange func(Change)
}

// Result aggregates apply outcomes.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
	Removed   int
	Conflicts []string
}

// Applier converges declarations for one or more profiles against a shared
// lock file. Not safe for concurrent use; convergence runs are serialized by
// the caller.
type Applier struct {
	opts Options
	lock *LockFile

	currentProfile string
}

func NewApplier(opts Options) (*Applier, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Backup == "" {
		opts.Backup = shared.BackupTimestamp
	}
	lock := &LockFile{Version: "v1", Files: map[string]LockEntry{}}
	if opts.LockPath != "" {
		loaded, err := LoadLock(opts.LockPath)
		if err != nil {
			return nil, fmt.Errorf("load lock: %w", err)
		}
		lock = loaded
	}
	return &Applier{opts: opts, lock: lock}, nil
}

// ApplyProfile converges one profile's declarations in order. A conflict
// stops the profile and is reported in the result; other profiles can still
// be applied afterwards.
func (a *Applier) ApplyProfile(profileName string, decls []resource.Declaration) (*Result, error) {
	a.currentProfile = profileName
	res := &Result{}
	for _, decl := range decls {
		outcome, err := a.applyOne(decl)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				res.Conflicts = append(res.Conflicts, decl.TargetPath())
				return res, err
			}
			return res, fmt.Errorf("apply %s: %w", decl.TargetPath(), err)
		}
		a.record(res, profileName, decl.TargetPath(), outcome)
	}
	return res, nil
}

// Close persists the lock file. No-op for dry runs.
func (a *Applier) Close() error {
	if a.opts.DryRun || a.opts.LockPath == "" {
		return nil
	}
	return SaveLock(a.opts.LockPath, a.lock)
}

func (a *Applier) applyOne(decl resource.Declaration) (string, error) {
	switch d := decl.(type) {
	case resource.Directory:
		return a.directory(d)
	case resource.File:
		return a.file(d.Path, []byte(d.Content), d.Mode, d.Owner, d.Group, d.State)
	case resource.ComposedFile:
		return a.file(d.Path, []byte(d.Render()), d.Mode, d.Owner, d.Group, d.State)
	case resource.Symlink:
		return a.symlink(d)
	default:
		return "", fmt.Errorf("unsupported declaration %T", decl)
	}
}

func (a *Applier) directory(d resource.Directory) (string, error) {
	info, err := os.Lstat(d.Path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	if d.State == resource.StateAbsent {
		if !exists {
			return OutcomeUnchanged, nil
		}
		if a.opts.DryRun {
			return OutcomeRemoved, nil
		}
		if err := os.RemoveAll(d.Path); err != nil {
			return "", err
		}
		a.dropLockPrefix(d.Path)
		return OutcomeRemoved, nil
	}

	if exists && info.IsDir() {
		if a.opts.DryRun {
			return OutcomeUnchanged, nil
		}
		if err := os.Chmod(d.Path, d.Mode); err != nil {
			return "", err
		}
		return OutcomeUnchanged, a.chown(d.Path, d.Owner, d.Group)
	}
	if a.opts.DryRun {
		return OutcomeCreated, nil
	}
	if exists {
		// A non-directory squats on the path; replace it.
		if err := os.Remove(d.Path); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(d.Path, d.Mode); err != nil {
		return "", err
	}
	if err := os.Chmod(d.Path, d.Mode); err != nil {
		return "", err
	}
	return OutcomeCreated, a.chown(d.Path, d.Owner, d.Group)
}

func (a *Applier) file(path string, content []byte, mode os.FileMode, owner, group string, state resource.State) (string, error) {
	current, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	if state == resource.StateAbsent {
		if !exists {
			return OutcomeUnchanged, nil
		}
		if a.opts.DryRun {
			return OutcomeRemoved, nil
		}
		if err := os.Remove(path); err != nil {
			return "", err
		}
		delete(a.lock.Files, path)
		return OutcomeRemoved, nil
	}

	incomingHash := shared.SHA256Hex(content)
	if exists {
		currentHash := shared.SHA256Hex(current)
		if currentHash == incomingHash {
			// Adopt already-matching files into the lock so later drift
			// is detected.
			if !a.opts.DryRun {
				a.setLock(path, incomingHash)
			}
			return OutcomeUnchanged, nil
		}
		if entry, ok := a.lock.Files[path]; ok && !a.opts.Force && currentHash != entry.AppliedHash {
			return "", ErrConflict
		}
	}

	if a.opts.DryRun {
		if exists {
			return OutcomeUpdated, nil
		}
		return OutcomeCreated, nil
	}

	if exists {
		if err := shared.BackupFile(path, current, a.opts.Backup, a.opts.Now()); err != nil {
			return "", err
		}
		// Managed files are often mode 0400; WriteFile cannot truncate
		// those, so replace instead of overwriting in place.
		if err := os.Remove(path); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, mode.Perm()); err != nil {
		return "", err
	}
	// The create mode is subject to umask.
	if err := os.Chmod(path, mode.Perm()); err != nil {
		return "", err
	}
	if err := a.chown(path, owner, group); err != nil {
		return "", err
	}
	a.setLock(path, incomingHash)

	if exists {
		return OutcomeUpdated, nil
	}
	return OutcomeCreated, nil
}

func (a *Applier) symlink(s resource.Symlink) (string, error) {
	currentTarget, err := os.Readlink(s.Path)
	exists := err == nil
	if err != nil {
		if _, statErr := os.Lstat(s.Path); statErr == nil {
			// Path exists but is not a symlink.
			exists = true
			currentTarget = ""
		} else if !os.IsNotExist(statErr) {
			return "", statErr
		}
	}

	if s.State == resource.StateAbsent {
		if !exists {
			return OutcomeUnchanged, nil
		}
		if a.opts.DryRun {
			return OutcomeRemoved, nil
		}
		if err := os.Remove(s.Path); err != nil {
			return "", err
		}
		return OutcomeRemoved, nil
	}

	if exists && currentTarget == s.Target {
		return OutcomeUnchanged, nil
	}
	if a.opts.DryRun {
		if exists {
			return OutcomeUpdated, nil
		}
		return OutcomeCreated, nil
	}
	if exists {
		if err := os.Remove(s.Path); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return "", err
	}
	if err := os.Symlink(s.Target, s.Path); err != nil {
		return "", err
	}
	if exists {
		return OutcomeUpdated, nil
	}
	return OutcomeCreated, nil
}

// chown applies declared ownership. Only root may chown, so anything else
// skips silently; running unprivileged against a scratch root is the normal
// test setup.
func (a *Applier) chown(path, owner, group string) error {
	if owner == "" || os.Geteuid() != 0 {
		return nil
	}
	u, err := user.Lookup(owner)
	if err != nil {
		return fmt.Errorf("lookup owner %q: %w", owner, err)
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return fmt.Errorf("lookup group %q: %w", group, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return err
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return err
	}
	return os.Chown(path, uid, gid)
}

func (a *Applier) setLock(path, hash string) {
	a.lock.Files[path] = LockEntry{
		Profile:     a.currentProfile,
		AppliedHash: hash,
		UpdatedAt:   a.opts.Now().UTC().Format(time.RFC3339),
	}
}

func (a *Applier) dropLockPrefix(dir string) {
	prefix := dir + string(filepath.Separator)
	for path := range a.lock.Files {
		if path == dir || strings.HasPrefix(path, prefix) {
			delete(a.lock.Files, path)
		}
	}
}

func (a *Applier) record(res *Result, profileName, path, outcome string) {
	switch outcome {
	case OutcomeCreated:
		res.Created++
	case OutcomeUpdated:
		res.Updated++
	case OutcomeUnchanged:
		res.Unchanged++
	case OutcomeRemoved:
		res.Removed++
	}
	if outcome != OutcomeUnchanged && a.opts.OnChange != nil {
		a.opts.OnChange(Change{Profile: profileName, Path: path, Outcome: outcome})
	}
}
