// Package resolve implements the path resolver and the
// configurable/factory-default fallback search. Both are pure functions
// of a ResourceKey, a ResourceConfig and the fixed directory templates in
// pclconfig.Paths; neither touches a backend.
package resolve

import (
	"fmt"
	"strconv"

	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pcltypes"
)

// InternalKey builds the internal-key component of a ResolvedPath from the
// addressing tuple. A ldbid in the local-namespace range (>= LdbidSharedMax
// and not the LdbidLocal sentinel) addresses a namespace distinct from every
// other such ldbid, so its key carries a "/<ldbid-hex>" prefix to keep two
// local namespaces with the same user/resource from colliding.
func InternalKey(key pcltypes.ResourceKey) string {
	if key.Ldbid < pcltypes.LdbidSharedMax || key.Ldbid == pcltypes.LdbidLocal {
		switch {
		case key.User == 0 && key.Seat == 0:
			return "/Node/" + key.ResourceID
		case key.Seat == 0:
			return fmt.Sprintf("/User/%d/%s", key.User, key.ResourceID)
		default:
			return fmt.Sprintf("/User/%d/Seat/%d/%s", key.User, key.Seat, key.ResourceID)
		}
	}
	if key.Seat != 0 {
		return fmt.Sprintf("/%x/User/%d/Seat/%d/%s", key.Ldbid, key.User, key.Seat, key.ResourceID)
	}
	return fmt.Sprintf("/%x/User/%d/%s", key.Ldbid, key.User, key.ResourceID)
}

// DB identifies one of the six fixed (storage x policy) backend stores a
// key/file-type resource can live in.
type DB int

const (
	DBLocalCache DB = iota
	DBLocalWriteThrough
	DBSharedGroupCache
	DBSharedGroupWriteThrough
	DBSharedPublicCache
	DBSharedPublicWriteThrough
)

// Resolve computes the ResolvedPath for key under cfg.
func Resolve(paths pclconfig.Paths, key pcltypes.ResourceKey, cfg pcltypes.ResourceConfig) pcltypes.ResolvedPath {
	if cfg.Storage == pcltypes.StorageCustom {
		internalKey := fmt.Sprintf("0x%x/%s/%s", key.Ldbid, cfg.CustomName, key.ResourceID)
		if cfg.CustomID != "" {
			internalKey = fmt.Sprintf("0x%x/%s", key.Ldbid, cfg.CustomID)
		}
		return pcltypes.ResolvedPath{
			Backend:     pcltypes.StorageCustom,
			StoragePath: cfg.CustomName,
			InternalKey: internalKey,
		}
	}

	internalKey := InternalKey(key)
	db := DBFor(key, cfg)
	storagePath := storagePathFor(paths, key, db)

	if cfg.Type == pcltypes.TypeFile {
		storagePath = storagePath + internalKey
	}

	return pcltypes.ResolvedPath{
		Backend:     cfg.Storage,
		StoragePath: storagePath,
		InternalKey: internalKey,
	}
}

// DBFor classifies which of the six fixed backend stores key/cfg maps to.
func DBFor(key pcltypes.ResourceKey, cfg pcltypes.ResourceConfig) DB {
	wt := cfg.Policy == pcltypes.PolicyWriteThrough
	switch cfg.Storage {
	case pcltypes.StorageShared:
		if key.Ldbid == pcltypes.LdbidPublic {
			if wt {
				return DBSharedPublicWriteThrough
			}
			return DBSharedPublicCache
		}
		if wt {
			return DBSharedGroupWriteThrough
		}
		return DBSharedGroupCache
	default: // local
		if wt {
			return DBLocalWriteThrough
		}
		return DBLocalCache
	}
}

func storagePathFor(paths pclconfig.Paths, key pcltypes.ResourceKey, db DB) string {
	groupHex := strconv.FormatUint(uint64(key.Ldbid), 16)
	switch db {
	case DBLocalCache:
		return paths.LocalCacheDB()
	case DBLocalWriteThrough:
		return paths.LocalWriteThroughDB()
	case DBSharedGroupCache:
		return paths.SharedGroupCacheDB(groupHex)
	case DBSharedGroupWriteThrough:
		return paths.SharedGroupCacheDB(groupHex) + ".wt"
	case DBSharedPublicCache:
		return paths.SharedPublicCacheDB()
	case DBSharedPublicWriteThrough:
		return paths.SharedPublicCacheDB() + ".wt"
	}
	return paths.LocalCacheDB()
}

// DefaultFallback describes the two read-only per-application stores
// consulted, in order, when a user-resource read/size misses.
type DefaultFallback struct {
	ConfigurableDefaultPath string
	FactoryDefaultPath      string
}

// NewDefaultFallback builds the fallback pair for an application rooted at paths.
func NewDefaultFallback(paths pclconfig.Paths) DefaultFallback {
	return DefaultFallback{
		ConfigurableDefaultPath: paths.WriteThroughTree() + "/configurable-default.itz",
		FactoryDefaultPath:      paths.WriteThroughTree() + "/factory-default.itz",
	}
}

// IsDefaultDataUser reports whether user is the PCL_USER_DEFAULTDATA
// sentinel that routes writes to the configurable-default store under the
// bare resource id instead of the usual user/seat-prefixed internal key.
func IsDefaultDataUser(user uint32) bool {
	return user == pcltypes.UserDefaultData
}
