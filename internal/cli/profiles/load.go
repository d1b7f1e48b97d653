package profiles

import (
	"fmt"
	"io"
	"net/http"
	"os"

	pkgprofile "github.com/monotek/duplyconf/pkg/profile"
)

// Load reads and parses a duplyconf document from a local path or an
// http(s) URL.
func Load(path string) (*Config, error) {
	content, err := read(path)
	if err != nil {
		return nil, err
	}
	return pkgprofile.ParseConfig(content)
}

// IsRemoteLocation reports whether value names an http(s) URL.
func IsRemoteLocation(value string) bool {
	return pkgprofile.IsRemoteLocation(value)
}

func read(path string) ([]byte, error) {
	if IsRemoteLocation(path) {
		return readRemote(path)
	}
	return os.ReadFile(path)
}

func readRemote(location string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("load config failed: %s status=%d", location, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
