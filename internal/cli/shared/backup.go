// Package shared holds small helpers used across the CLI: content digests,
// checksum verification, pre-overwrite backups, and process exit codes.
package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	BackupNone      = "none"
	BackupTimestamp = "timestamp"
)

// BackupFile writes a timestamped copy of content next to path before the
// original is overwritten. A strategy other than timestamp is a no-op.
func BackupFile(path string, content []byte, strategy string, now time.Time) error {
	if strategy != BackupTimestamp {
		return nil
	}
	ts := now.Format("20060102150405")
	backupPath := fmt.Sprintf("%s.%s.bak", path, ts)
	if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(backupPath, content, 0o600)
}
