package handle

import "github.com/genivi/pclient/pkg/pcltypes"

// FileHandleEntry is the per-handle record for a live file open.
type FileHandleEntry struct {
	Permission    pcltypes.Permission
	BackupCreated bool
	CacheStatus   *int
	UserID        uint32
	BackupPath    string
	ChecksumPath  string
	FilePath      string
}

// KeyHandleEntry is the per-handle record for a live key open.
type KeyHandleEntry struct {
	Ldbid      uint32
	User       uint32
	Seat       uint32
	ResourceID string
}

// OpenPathHandleEntry is the per-handle record for an "open-path" handle:
// an external process that wants the resolved path without the library
// owning the fd.
type OpenPathHandleEntry struct {
	ResolvedPath pcltypes.ResolvedPath
}
