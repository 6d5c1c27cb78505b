// Package backup implements the backup/recovery component: the
// backup-blacklist set, crash-safe backup creation on first write, and
// CRC-verified recovery on open. It is grounded on the original
// persistence_client_library_backup_filelist.c and
// persistence_client_library_file.c position-based parsing and sidecar
// conventions.
package backup

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/genivi/pclient/pkg/crc32c"
	"github.com/genivi/pclient/pkg/plog"
)

// NeedResult is the three-valued outcome of a blacklist lookup: the
// original C code's need_backup_path/need_backup_key can return
// needed/not-needed/unknown (on a tree or allocation error), and callers
// must treat unknown as needed — the safe default.
type NeedResult int

const (
	NeedUnknown NeedResult = iota - 1
	NeedNotNeeded
	NeedNeeded
)

// Blacklist is the set of CRC32 hashes of canonical blacklisted paths,
// loaded once at init and read-only thereafter.
type Blacklist struct {
	hashes map[uint32]struct{}
}

// EmptyBlacklist returns a blacklist with no entries (used when no
// BackupFileList.info exists for an application).
func EmptyBlacklist() *Blacklist {
	return &Blacklist{hashes: make(map[uint32]struct{})}
}

// LoadBlacklist reads path (the application's BackupFileList.info),
// tokenizing each line into five whitespace-separated fields assembled
// into a canonical path and CRC32-hashed. Malformed rows (wrong token
// count) are rejected rather than read past the end of the row — logged
// and skipped, not fatal.
func LoadBlacklist(path string) (*Blacklist, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return EmptyBlacklist(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open blacklist %s: %w", path, err)
	}
	defer f.Close()

	bl := EmptyBlacklist()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			plog.WithComponent("backup").Warn().
				Str("path", path).Int("line", lineNo).Int("fields", len(fields)).
				Msg("malformed blacklist row, skipping")
			continue
		}
		canonical := fmt.Sprintf("/%s/%s/%s/%s/%s.pers", fields[0], fields[1], fields[2], fields[3], fields[4])
		bl.hashes[crc32c.OfString(canonical)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan blacklist %s: %w", path, err)
	}
	return bl, nil
}

// NeedBackup reports whether canonicalPath (assembled the same way entries
// were at load time; it is hashed here) requires a backup sidecar. A hit in
// the set means "not needed"; a miss means "needed" (the safe default). A
// nil Blacklist reports unknown.
func (b *Blacklist) NeedBackup(canonicalPath string) NeedResult {
	if b == nil {
		return NeedUnknown
	}
	if _, blacklisted := b.hashes[crc32c.OfString(canonicalPath)]; blacklisted {
		return NeedNotNeeded
	}
	return NeedNeeded
}
