package kv

import (
	"context"
	"fmt"

	"github.com/genivi/pclient/pkg/metrics"
	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
	"github.com/genivi/pclient/pkg/resolve"
)

func storageLabel(s pcltypes.Storage) string {
	switch s {
	case pcltypes.StorageShared:
		return "shared"
	case pcltypes.StorageCustom:
		return "custom"
	default:
		return "local"
	}
}

// NotifyPoster is the subset of the event loop's command-posting surface
// the KV layer needs: shared writes/deletes must emit a change-notification
// command into the loop, never call the bus directly. internalKey must be
// the same string RegisterNotification hashes (the resource's full
// internal key, not its bare resource id), or the interest-set check on
// delivery never matches.
type NotifyPoster interface {
	PostNotify(internalKey string, n pcltypes.Notification)
}

// Access is the KV access layer: the backend cache plus the
// default-fallback consultation and max-value-size enforcement every
// read/write/size/delete goes through.
type Access struct {
	cache    *Cache
	fallback defaultStores
	poster   NotifyPoster
	maxSize  uint32
}

type defaultStores struct {
	configurable Backend
	factory      Backend
}

// NewAccess builds an Access layer. configurableDefault/factoryDefault may
// be nil if no default stores are configured for this application.
func NewAccess(cache *Cache, poster NotifyPoster, maxSize uint32, configurableDefault, factoryDefault Backend) *Access {
	return &Access{
		cache:   cache,
		poster:  poster,
		maxSize: maxSize,
		fallback: defaultStores{
			configurable: configurableDefault,
			factory:      factoryDefault,
		},
	}
}

// Read implements the read operation: on a backend miss it transparently
// consults the configurable-default then factory-default store.
func (a *Access) Read(ctx context.Context, key pcltypes.ResourceKey, cfg pcltypes.ResourceConfig, paths pclconfig.Paths) ([]byte, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOperationDuration, "read")
	metrics.KVOperationsTotal.WithLabelValues("read", storageLabel(cfg.Storage)).Inc()

	rp := resolve.Resolve(paths, key, cfg)
	b, err := a.backendFor(rp, key, cfg, true)
	if err != nil {
		return nil, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	v, ok, err := b.Read(ctx, rp.InternalKey)
	if err != nil {
		return nil, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	if ok {
		return v, nil
	}
	return a.readFallback(ctx, rp.InternalKey)
}

func (a *Access) readFallback(ctx context.Context, internalKey string) ([]byte, error) {
	for _, b := range []Backend{a.fallback.configurable, a.fallback.factory} {
		if b == nil {
			continue
		}
		v, ok, err := b.Read(ctx, internalKey)
		if err == nil && ok {
			return v, nil
		}
	}
	return nil, pclerror.New(pclerror.CodeNoKey)
}

// Size mirrors Read's fallback order.
func (a *Access) Size(ctx context.Context, key pcltypes.ResourceKey, cfg pcltypes.ResourceConfig, paths pclconfig.Paths) (int, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOperationDuration, "size")
	metrics.KVOperationsTotal.WithLabelValues("size", storageLabel(cfg.Storage)).Inc()

	rp := resolve.Resolve(paths, key, cfg)
	b, err := a.backendFor(rp, key, cfg, true)
	if err != nil {
		return 0, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	n, ok, err := b.Size(ctx, rp.InternalKey)
	if err != nil {
		return 0, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	if ok {
		return n, nil
	}
	for _, fb := range []Backend{a.fallback.configurable, a.fallback.factory} {
		if fb == nil {
			continue
		}
		if n, ok, err := fb.Size(ctx, rp.InternalKey); err == nil && ok {
			return n, nil
		}
	}
	return 0, pclerror.New(pclerror.CodeNoKey)
}

// Write implements the write operation, enforcing the per-key maximum
// and the default-data-user routing rule, and emitting a
// changed/created notification command for shared writes.
func (a *Access) Write(ctx context.Context, key pcltypes.ResourceKey, cfg pcltypes.ResourceConfig, paths pclconfig.Paths, val []byte) (int, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOperationDuration, "write")
	metrics.KVOperationsTotal.WithLabelValues("write", storageLabel(cfg.Storage)).Inc()

	if cfg.Permission == pcltypes.PermissionReadOnly {
		return 0, pclerror.New(pclerror.CodeResourceReadOnly)
	}
	// the smaller of the resource's own limit and the access-wide maximum
	// applies; a zero on either side means that side sets no limit.
	limit := cfg.MaxSize
	if limit == 0 || (a.maxSize != 0 && a.maxSize < limit) {
		limit = a.maxSize
	}
	if uint32(len(val)) > limit {
		return 0, pclerror.New(pclerror.CodeBufLimit)
	}

	if resolve.IsDefaultDataUser(key.User) {
		if a.fallback.configurable == nil {
			return 0, pclerror.New(pclerror.CodeDBErrorInternal)
		}
		if err := a.fallback.configurable.Write(ctx, key.ResourceID, val); err != nil {
			return 0, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
		}
		return len(val), nil
	}

	rp := resolve.Resolve(paths, key, cfg)
	b, err := a.backendFor(rp, key, cfg, false)
	if err != nil {
		return 0, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	_, existed, _ := b.Read(ctx, rp.InternalKey)
	if err := b.Write(ctx, rp.InternalKey, val); err != nil {
		return 0, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}

	if cfg.Storage == pcltypes.StorageShared && a.poster != nil {
		status := pcltypes.NotifyChanged
		if !existed {
			status = pcltypes.NotifyCreated
		}
		a.poster.PostNotify(rp.InternalKey, pcltypes.Notification{
			ResourceID: key.ResourceID, Ldbid: key.Ldbid, User: key.User, Seat: key.Seat, Status: status,
		})
	}
	return len(val), nil
}

// Delete implements the delete operation, emitting a deleted
// notification command for shared keys.
func (a *Access) Delete(ctx context.Context, key pcltypes.ResourceKey, cfg pcltypes.ResourceConfig, paths pclconfig.Paths) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.KVOperationDuration, "delete")
	metrics.KVOperationsTotal.WithLabelValues("delete", storageLabel(cfg.Storage)).Inc()

	rp := resolve.Resolve(paths, key, cfg)
	b, err := a.backendFor(rp, key, cfg, false)
	if err != nil {
		return pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	existed, err := b.Delete(ctx, rp.InternalKey)
	if err != nil {
		return pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	if !existed {
		return pclerror.New(pclerror.CodeNoKey)
	}
	if cfg.Storage == pcltypes.StorageShared && a.poster != nil {
		a.poster.PostNotify(rp.InternalKey, pcltypes.Notification{
			ResourceID: key.ResourceID, Ldbid: key.Ldbid, User: key.User, Seat: key.Seat, Status: pcltypes.NotifyDeleted,
		})
	}
	return nil
}

func (a *Access) backendFor(rp pcltypes.ResolvedPath, key pcltypes.ResourceKey, cfg pcltypes.ResourceConfig, readOnly bool) (Backend, error) {
	if cfg.Storage == pcltypes.StorageCustom {
		return nil, fmt.Errorf("custom-backend resources are not served by kv.Access")
	}
	db := resolve.DBFor(key, cfg)
	return a.cache.Get(db, key.Ldbid, readOnly)
}
