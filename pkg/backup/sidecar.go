package backup

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/genivi/pclient/pkg/crc32c"
	"github.com/genivi/pclient/pkg/metrics"
	"github.com/genivi/pclient/pkg/plog"
)

// SidecarPaths computes the backup and checksum sidecar paths for a file
// whose subpath (relative to the application's cache or write-through
// tree root) is subPath, rooted under backupTree. The sidecar suffixes
// (~ and ~.crc) are applied to the relative subpath, not the absolute
// original path.
func SidecarPaths(backupTree, subPath string) (backupPath, checksumPath string) {
	base := backupTree + "/" + strings.TrimPrefix(subPath, "/")
	return base + "~", base + "~.crc"
}

// VerifyAndRecover implements the open-time consistency check: if both
// sidecars exist, hash the backup and compare against the stored
// hex; on match, the previous session crashed mid-update and the backup
// replaces the original. On mismatch, the backup itself is torn and the
// original is left as-is. If only one sidecar exists, it is removed and
// the original is left as-is. Read-only opens never call this.
func VerifyAndRecover(originalPath, backupPath, checksumPath string) error {
	_, backupErr := os.Stat(backupPath)
	_, checksumErr := os.Stat(checksumPath)
	backupExists := backupErr == nil
	checksumExists := checksumErr == nil

	switch {
	case backupExists && checksumExists:
		return recoverIfConsistent(originalPath, backupPath, checksumPath)
	case backupExists && !checksumExists:
		metrics.BackupRecoveriesTotal.WithLabelValues("no_sidecar").Inc()
		return os.Remove(backupPath)
	case !backupExists && checksumExists:
		metrics.BackupRecoveriesTotal.WithLabelValues("no_sidecar").Inc()
		return os.Remove(checksumPath)
	default:
		return nil
	}
}

func recoverIfConsistent(originalPath, backupPath, checksumPath string) error {
	backupContent, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("read backup %s: %w", backupPath, err)
	}
	storedHex, err := os.ReadFile(checksumPath)
	if err != nil {
		return fmt.Errorf("read checksum %s: %w", checksumPath, err)
	}

	actualHex := crc32c.HexString(crc32c.Checksum(crc32c.Seed, backupContent))
	if actualHex != strings.TrimSpace(string(storedHex)) {
		metrics.BackupRecoveriesTotal.WithLabelValues("kept_original").Inc()
		plog.WithComponent("backup").Warn().Str("path", originalPath).
			Msg("backup sidecar checksum mismatch, backup itself is torn; keeping original")
		return nil
	}

	metrics.BackupRecoveriesTotal.WithLabelValues("restored").Inc()
	plog.WithComponent("backup").Info().Str("path", originalPath).
		Msg("recovering from crash-time backup sidecar")
	return os.WriteFile(originalPath, backupContent, 0644)
}

// CreateOnFirstWrite performs the backup-on-first-write sequence: compute
// the CRC32 of the file's current content, write it as lower-case hex to
// checksumPath, copy the current content to backupPath, both
// truncate-create. Called exactly once per open session, guarded by the
// caller checking FileHandleEntry.BackupCreated.
func CreateOnFirstWrite(originalPath, backupPath, checksumPath string) error {
	content, err := os.ReadFile(originalPath)
	if err != nil {
		if os.IsNotExist(err) {
			content = nil
		} else {
			return fmt.Errorf("read %s for backup: %w", originalPath, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(backupPath), 0755); err != nil {
		return fmt.Errorf("create backup dir %s: %w", filepath.Dir(backupPath), err)
	}
	sum := crc32c.Checksum(crc32c.Seed, content)
	if err := os.WriteFile(checksumPath, []byte(crc32c.HexString(sum)), 0644); err != nil {
		return fmt.Errorf("write checksum %s: %w", checksumPath, err)
	}
	if err := copyFile(content, backupPath); err != nil {
		return fmt.Errorf("write backup %s: %w", backupPath, err)
	}
	metrics.BackupSidecarsCreatedTotal.Inc()
	return nil
}

func copyFile(content []byte, dst string) error {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, bytes.NewReader(content))
	return err
}

// RemoveSidecars removes both sidecar files on close of a writable file
// handle, best-effort: errors are logged, never returned.
func RemoveSidecars(backupPath, checksumPath string) {
	for _, p := range []string{backupPath, checksumPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			plog.WithComponent("backup").Warn().Err(err).Str("path", p).Msg("failed to remove sidecar on close")
		}
	}
}
