// Package keylink resolves key-link requests against the host's GPG key
// material store. Requests are lowered into symlink declarations so the
// convergence engine applies them like any other resource.
package keylink

import (
	"os"
	"path/filepath"

	"github.com/monotek/duplyconf/pkg/resource"
)

// MaterialPath returns where the underlying key material for a link lives.
// Material is addressed by bare key id: profiles sharing an id share the
// same file, the scope only namespaces the link name.
func MaterialPath(keysDir string, link resource.KeyLink) string {
	return filepath.Join(keysDir, materialName(link))
}

// LinkPath returns the symlink location inside the owning profile directory.
func LinkPath(configRoot string, link resource.KeyLink) string {
	return filepath.Join(configRoot, link.Scope, "gpgkey."+materialName(link))
}

func materialName(link resource.KeyLink) string {
	if link.Kind == resource.KeyPrivate {
		return link.KeyID + ".sec.asc"
	}
	return link.KeyID + ".asc"
}

// Declarations lowers key-link requests into symlink declarations.
func Declarations(links []resource.KeyLink, configRoot, keysDir string) []resource.Symlink {
	out := make([]resource.Symlink, 0, len(links))
	for _, link := range links {
		out = append(out, resource.Symlink{
			Path:   LinkPath(configRoot, link),
			Target: MaterialPath(keysDir, link),
			State:  link.State,
		})
	}
	return out
}

// MissingMaterial returns the material paths a set of links point at that do
// not exist yet. Dangling links still converge; this is for warning the
// operator before duply trips over them.
func MissingMaterial(links []resource.KeyLink, keysDir string) []string {
	var missing []string
	seen := map[string]bool{}
	for _, link := range links {
		path := MaterialPath(keysDir, link)
		if seen[path] {
			continue
		}
		seen[path] = true
		if _, err := os.Stat(path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}
