// Package compiler turns validated backup profiles into ordered resource
// declarations and key-link requests. Compilation is a pure function: no
// I/O, no shared state, byte-identical output for equal input. Applying the
// declarations is the convergence engine's job.
package compiler

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/monotek/duplyconf/pkg/profile"
	"github.com/monotek/duplyconf/pkg/resource"
)

// Profile directory entries, fixed by the duply layout.
const (
	ConfName     = "conf"
	FilelistName = "exclude"
	PreName      = "pre"
	PostName     = "post"
)

// Fragment sort keys of the filelist composed file.
const (
	fragmentHeader   = "01"
	fragmentIncludes = "10"
	fragmentExcludes = "20"
	fragmentCatchAll = "30"
)

const filelistHeader = "# Managed by duplyconf. Manual edits will be overwritten.\n" +
	"# One pattern per line, duplicity FILE SELECTION syntax:\n" +
	"#   + <glob>  include\n" +
	"#   - <glob>  exclude\n\n"

const scriptShebang = "#!/bin/bash\n\n"

// Layout names the host directories everything is derived from.
type Layout struct {
	ConfigRoot string
	KeysDir    string
}

// LayoutFromSettings builds a Layout from parsed config settings.
func LayoutFromSettings(s profile.Settings) Layout {
	return Layout{ConfigRoot: s.ConfigRoot, KeysDir: s.KeysDir}
}

// ProfileDir returns the directory a profile is provisioned under. Derived
// paths are pure functions of the profile name, so distinct profiles never
// collide.
func (l Layout) ProfileDir(name string) string {
	return filepath.Join(l.ConfigRoot, name)
}

// Plan is the compiled desired state for one profile: an ordered list of
// resource declarations plus the key links the profile needs.
type Plan struct {
	Profile   string
	Ensure    profile.Ensure
	Resources []resource.Declaration
	KeyLinks  []resource.KeyLink
}

// Compile derives the full declaration set for a validated spec. An absent
// profile yields the same paths with every state flipped to absent, so the
// convergence engine can tear the profile down.
func Compile(spec *profile.Spec, layout Layout) Plan {
	state := resource.StatePresent
	if !spec.Ensure.Present() {
		state = resource.StateAbsent
	}
	dir := layout.ProfileDir(spec.Name)

	resources := []resource.Declaration{
		resource.Directory{
			Path:  dir,
			State: state,
			Owner: "root",
			Group: "root",
			Mode:  0o700,
		},
		resource.File{
			Path:    filepath.Join(dir, ConfName),
			State:   state,
			Content: renderConf(spec),
			Owner:   "root",
			Group:   "root",
			Mode:    0o400,
		},
		filelist(spec, dir, state),
		script(filepath.Join(dir, PreName), spec.PreFragments, state),
		script(filepath.Join(dir, PostName), spec.PostFragments, state),
	}

	return Plan{
		Profile:   spec.Name,
		Ensure:    spec.Ensure,
		Resources: resources,
		KeyLinks:  keyLinks(spec),
	}
}

// filelist assembles the exclude file from ordered fragments. Include and
// exclude entries keep their declared order inside their fragment; the
// catch-all fragment is absent, not empty, when exclude_by_default is off.
func filelist(spec *profile.Spec, dir string, state resource.State) resource.ComposedFile {
	catchAll := resource.StateAbsent
	if spec.ExcludeByDefault {
		catchAll = resource.StatePresent
	}

	return resource.ComposedFile{
		Path:  filepath.Join(dir, FilelistName),
		State: state,
		Owner: "root",
		Group: "root",
		Mode:  0o400,
		Fragments: []resource.Fragment{
			{SortKey: fragmentHeader, Content: filelistHeader, State: resource.StatePresent},
			{SortKey: fragmentIncludes, Content: patternLines("+ ", spec.IncludeFilelist), State: resource.StatePresent},
			{SortKey: fragmentExcludes, Content: patternLines("- ", spec.ExcludeFilelist), State: resource.StatePresent},
			{SortKey: fragmentCatchAll, Content: "\n- **\n", State: catchAll},
		},
	}
}

// script builds a pre or post hook file: a shebang fragment plus any
// caller-contributed fragments, ordered by sort key.
func script(path string, extra map[string]string, state resource.State) resource.ComposedFile {
	composed := resource.ComposedFile{
		Path:  path,
		State: state,
		Owner: "root",
		Group: "root",
		Mode:  0o700,
		Fragments: []resource.Fragment{
			{SortKey: fragmentHeader, Content: scriptShebang, State: resource.StatePresent},
		},
	}

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		composed = composed.WithFragment(resource.Fragment{
			SortKey: key,
			Content: extra[key],
			State:   resource.StatePresent,
		})
	}
	return composed
}

func patternLines(prefix string, patterns []string) string {
	var b strings.Builder
	for _, p := range patterns {
		b.WriteString(prefix)
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}

// keyLinks emits one public link request per encryption key and a private
// one for the signing key. Requests stay present even for absent profiles;
// removing the profile directory tears the links down with it, so no
// separate cleanup pass exists for them.
func keyLinks(spec *profile.Spec) []resource.KeyLink {
	var links []resource.KeyLink
	for _, key := range spec.GPGEncryptionKeys {
		links = append(links, resource.KeyLink{
			KeyID: key,
			Scope: spec.Name,
			Kind:  resource.KeyPublic,
			State: resource.StatePresent,
		})
	}
	if spec.GPGSigningKey != "" {
		links = append(links, resource.KeyLink{
			KeyID: spec.GPGSigningKey,
			Scope: spec.Name,
			Kind:  resource.KeyPrivate,
			State: resource.StatePresent,
		})
	}
	return links
}
