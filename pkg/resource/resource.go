// Package resource defines the desired-state declarations emitted by the
// profile compiler and consumed by the convergence engine. Declarations are
// plain values; nothing in this package touches the filesystem.
package resource

import (
	"os"
	"sort"
	"strings"
)

// State is the desired lifecycle state of a declared resource.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// Declaration is one desired filesystem end state.
type Declaration interface {
	TargetPath() string
	Desired() State
}

// Directory declares a directory with fixed ownership and permissions.
type Directory struct {
	Path  string
	State State
	Owner string
	Group string
	Mode  os.FileMode
}

func (d Directory) TargetPath() string { return d.Path }
func (d Directory) Desired() State     { return d.State }

// File declares a regular file with fixed content.
type File struct {
	Path    string
	State   State
	Content string
	Owner   string
	Group   string
	Mode    os.FileMode
}

func (f File) TargetPath() string { return f.Path }
func (f File) Desired() State     { return f.State }

// Fragment is one ordered piece of a composed file. An absent fragment is
// removed from the rendered output entirely, not emitted as empty content.
type Fragment struct {
	SortKey string
	Content string
	State   State
}

// ComposedFile declares a file whose content is the ordered concatenation of
// fragments. Fragments may be contributed by multiple callers; ordering is
// decided by sort key alone, never by insertion order.
type ComposedFile struct {
	Path      string
	State     State
	Fragments []Fragment
	Owner     string
	Group     string
	Mode      os.FileMode
}

func (c ComposedFile) TargetPath() string { return c.Path }
func (c ComposedFile) Desired() State     { return c.State }

// WithFragment returns a copy of the composed file with one more fragment.
// The receiver is not modified, so independently held copies never observe
// each other's contributions.
func (c ComposedFile) WithFragment(f Fragment) ComposedFile {
	out := c
	out.Fragments = append(append([]Fragment(nil), c.Fragments...), f)
	return out
}

// Render concatenates the present fragments by ascending sort key. The sort
// is stable, so fragments sharing a key keep their contribution order.
func (c ComposedFile) Render() string {
	frags := append([]Fragment(nil), c.Fragments...)
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].SortKey < frags[j].SortKey })

	var b strings.Builder
	for _, f := range frags {
		if f.State == StateAbsent {
			continue
		}
		b.WriteString(f.Content)
	}
	return b.String()
}

// Symlink declares a symbolic link at Path pointing to Target.
type Symlink struct {
	Path   string
	Target string
	State  State
}

func (s Symlink) TargetPath() string { return s.Path }
func (s Symlink) Desired() State     { return s.State }
