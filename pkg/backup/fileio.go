package backup

import "os"

// OpenSession carries the per-open-session paths a FileHandleEntry needs
// to drive the backup/recovery sequence around a real *os.File.
type OpenSession struct {
	OriginalPath string
	BackupPath   string
	ChecksumPath string
	Writable     bool
}

// PrepareOpen runs the open-time sequence for a writable resource:
// compute sidecar paths, verify-and-recover, and return the OpenSession
// the caller stores in its FileHandleEntry. Read-only opens and
// blacklisted paths skip the sidecar machinery entirely.
func PrepareOpen(originalPath string, backupTree, subPath string, writable bool, bl *Blacklist) (OpenSession, error) {
	if !writable {
		return OpenSession{OriginalPath: originalPath, Writable: false}, nil
	}

	canonical := subPath + ".pers"
	if bl.NeedBackup(canonical) == NeedNotNeeded {
		return OpenSession{OriginalPath: originalPath, Writable: true}, nil
	}

	backupPath, checksumPath := SidecarPaths(backupTree, subPath)
	if err := VerifyAndRecover(originalPath, backupPath, checksumPath); err != nil {
		return OpenSession{}, err
	}
	return OpenSession{
		OriginalPath: originalPath,
		BackupPath:   backupPath,
		ChecksumPath: checksumPath,
		Writable:     true,
	}, nil
}

// NeedsSidecar reports whether this session tracks sidecar files at all
// (false for read-only opens and for blacklisted paths).
func (s OpenSession) NeedsSidecar() bool {
	return s.Writable && s.BackupPath != "" && s.ChecksumPath != ""
}

// OnFirstWrite runs CreateOnFirstWrite for this session if it tracks
// sidecars and backupCreated is still false, reporting whether a backup
// was created so the caller can flip its handle entry's BackupCreated flag.
func (s OpenSession) OnFirstWrite(backupCreated bool) (bool, error) {
	if !s.NeedsSidecar() || backupCreated {
		return backupCreated, nil
	}
	if err := CreateOnFirstWrite(s.OriginalPath, s.BackupPath, s.ChecksumPath); err != nil {
		return backupCreated, err
	}
	return true, nil
}

// OnClose removes the sidecars for a writable session, best-effort.
func (s OpenSession) OnClose() {
	if s.NeedsSidecar() {
		RemoveSidecars(s.BackupPath, s.ChecksumPath)
	}
}

// EnsureDir makes sure the directory component of path exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
