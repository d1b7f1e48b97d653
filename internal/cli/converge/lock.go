package converge

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LockFileName is the state file kept under the config root. It remembers
// what duplyconf last wrote so local drift can be told apart from our own
// updates.
const LockFileName = ".duplyconf.lock"

// LockFile tracks last applied content hashes per managed path.
type LockFile struct {
	Version string               `yaml:"version"`
	Files   map[string]LockEntry `yaml:"files"`
}

// LockEntry stores per-file apply metadata.
type LockEntry struct {
	Profile     string `yaml:"profile"`
	AppliedHash string `yaml:"applied_hash"`
	UpdatedAt   string `yaml:"updated_at"`
}

func LoadLock(path string) (*LockFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &LockFile{Version: "v1", Files: map[string]LockEntry{}}, nil
		}
		return nil, err
	}
	var lock LockFile
	if err := yaml.Unmarshal(b, &lock); err != nil {
		return nil, err
	}
	if lock.Version == "" {
		lock.Version = "v1"
	}
	if lock.Files == nil {
		lock.Files = map[string]LockEntry{}
	}
	return &lock, nil
}

func SaveLock(path string, lock *LockFile) error {
	if lock.Version == "" {
		lock.Version = "v1"
	}
	if lock.Files == nil {
		lock.Files = map[string]LockEntry{}
	}
	b, err := yaml.Marshal(lock)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
