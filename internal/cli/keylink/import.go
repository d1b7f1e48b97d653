package keylink

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/monotek/duplyconf/internal/cli/shared"
	"github.com/monotek/duplyconf/pkg/profile"
	"github.com/monotek/duplyconf/pkg/resource"
)

// ImportOptions describes one key material installation.
type ImportOptions struct {
	KeysDir string
	KeyID   string
	Kind    resource.KeyKind
	// From is a local path or http(s) URL of the armored key file.
	From string
	// Checksum is an optional "algo:hex" spec verified before install.
	Checksum string
}

// Import fetches armored key material and installs it under the keys dir so
// key links have something to point at. Returns the installed path.
func Import(opts ImportOptions) (string, error) {
	if opts.KeyID == "" {
		return "", fmt.Errorf("key id is required")
	}
	if opts.From == "" {
		return "", fmt.Errorf("key source is required")
	}

	content, err := fetch(opts.From)
	if err != nil {
		return "", err
	}
	if err := shared.VerifyChecksum(content, opts.Checksum); err != nil {
		return "", err
	}

	if err := os.MkdirAll(opts.KeysDir, 0o700); err != nil {
		return "", err
	}

	link := resource.KeyLink{KeyID: opts.KeyID, Kind: opts.Kind}
	path := MaterialPath(opts.KeysDir, link)

	mode := os.FileMode(0o644)
	if opts.Kind == resource.KeyPrivate {
		mode = 0o600
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return "", err
	}
	// WriteFile leaves the old mode on pre-existing files.
	if err := os.Chmod(path, mode); err != nil {
		return "", err
	}
	return path, nil
}

func fetch(from string) ([]byte, error) {
	if !profile.IsRemoteLocation(from) {
		return os.ReadFile(filepath.Clean(from))
	}

	req, err := http.NewRequest(http.MethodGet, from, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch key failed: %s status=%d", from, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
