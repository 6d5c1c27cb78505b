// Package pcltypes holds the addressing and configuration value types
// shared across the library's subsystems: the tuple applications address
// resources by, the per-resource configuration an RCT yields, and the
// resolved backend/path/key a lookup produces.
package pcltypes

const (
	// LdbidLocal denotes "local to this application" addressing.
	LdbidLocal uint32 = 0xFF
	// LdbidPublic denotes the shared-public namespace.
	LdbidPublic uint32 = 0x00
	// LdbidSharedMax is the exclusive upper bound of the shared-group range.
	LdbidSharedMax uint32 = 0x80

	// UserDefaultData is the sentinel user id that routes key writes to the
	// configurable-default store under the bare resource id.
	UserDefaultData uint32 = 0xFFFFFFFF

	// DefaultMaxKeyValSize is the default per-key value ceiling, overridden
	// by PERS_MAX_KEY_VAL_DATA_SIZE.
	DefaultMaxKeyValSize = 16 * 1024

	// MaxPersHandle bounds each handle table's live handle count.
	MaxPersHandle = 256
)

// ResourceKey is the addressing tuple applications use to name a resource.
type ResourceKey struct {
	Ldbid      uint32
	ResourceID string
	User       uint32
	Seat       uint32
}

// IsLocal reports whether k addresses the local-to-application namespace.
func (k ResourceKey) IsLocal() bool { return k.Ldbid == LdbidLocal }

// IsShared reports whether k addresses a shared (public or group) namespace.
func (k ResourceKey) IsShared() bool { return k.Ldbid < LdbidSharedMax }

// Policy selects which directory tree (cache vs write-through) a resource's
// storage lives under.
type Policy int

const (
	PolicyNA Policy = iota
	PolicyWriteCached
	PolicyWriteThrough
)

// Storage selects the backend class a resource is served from.
type Storage int

const (
	StorageLocal Storage = iota
	StorageShared
	StorageCustom
)

// ResourceType distinguishes key-value resources from whole-file resources.
type ResourceType int

const (
	TypeKey ResourceType = iota
	TypeFile
)

// Permission is the RCT-declared access mode for a resource.
type Permission int

const (
	PermissionReadWrite Permission = iota
	PermissionReadOnly
	PermissionWriteOnly
)

// ResourceConfig is one RCT entry: immutable once the table is built and
// consumed read-only by the path resolver and KV/file layers.
type ResourceConfig struct {
	Policy      Policy
	Storage     Storage
	Type        ResourceType
	Permission  Permission
	MaxSize     uint32
	Responsible string
	CustomName  string
	CustomID    string
}

// DefaultLocalConfig is the synthesized entry the resolver falls back to
// when ldbid is local and the application's RCT has no matching entry:
// write-cached, local storage, read-write, key type, 16 KiB max.
func DefaultLocalConfig() ResourceConfig {
	return ResourceConfig{
		Policy:     PolicyWriteCached,
		Storage:    StorageLocal,
		Type:       TypeKey,
		Permission: PermissionReadWrite,
		MaxSize:    DefaultMaxKeyValSize,
	}
}

// ResolvedPath is the backend/path/key triple the path resolver computes
// for one operation. Transient; recomputed per call.
type ResolvedPath struct {
	Backend     Storage
	StoragePath string
	InternalKey string
}

// ShutdownMode selects whether and how the library participates in
// lifecycle-peer-driven shutdown.
type ShutdownMode int

const (
	ShutdownNone ShutdownMode = iota
	ShutdownNormal
	ShutdownFast
)

// ShutdownKind distinguishes a full teardown (close fds) from a partial
// one (flush but keep fds open).
type ShutdownKind int

const (
	ShutdownFull ShutdownKind = iota
	ShutdownPartial
)

// NotifyStatus is the change-notification reason carried on emit.
type NotifyStatus int

const (
	NotifyChanged NotifyStatus = iota
	NotifyCreated
	NotifyDeleted
)

// Notification is the fully-populated record delivered to the single
// registered callback.
type Notification struct {
	ResourceID string
	Ldbid      uint32
	User       uint32
	Seat       uint32
	Status     NotifyStatus
}
