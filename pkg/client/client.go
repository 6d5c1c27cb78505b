// Package client is the public facade applications embed: one Client per
// application process, wrapping the RCT store, KV access layer, handle
// tables, backup/recovery, notification registry, plugin gateway, and
// event loop behind the same kind of single facade-over-subsystems the
// teacher's pkg/manager presents to its own callers, narrowed here to the
// fixed operation set instead of a generic orchestration API.
package client

import (
	"context"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/genivi/pclient/pkg/backup"
	"github.com/genivi/pclient/pkg/bus"
	"github.com/genivi/pclient/pkg/handle"
	"github.com/genivi/pclient/pkg/kv"
	"github.com/genivi/pclient/pkg/lifecycle"
	"github.com/genivi/pclient/pkg/loop"
	"github.com/genivi/pclient/pkg/metrics"
	"github.com/genivi/pclient/pkg/notify"
	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
	"github.com/genivi/pclient/pkg/plog"
	"github.com/genivi/pclient/pkg/plugin"
	"github.com/genivi/pclient/pkg/rct"
	"github.com/genivi/pclient/pkg/resolve"
)

// metricsSampleInterval is how often the per-process Collector samples
// live handle/lock/plugin state into the package-level gauges.
const metricsSampleInterval = 5 * time.Second

// Client is one application's handle onto the library. Build with New,
// then call Init before any data operation and Deinit when the
// application is done with it; Init and Deinit are reference-counted per
// Client, so nested Init/Deinit pairs on one Client are safe. Each New
// builds its own stores and event loop.
type Client struct {
	appID string
	cfg   pclconfig.Config
	paths pclconfig.Paths

	rctStore *rct.Store
	kvCache  *kv.Cache
	access   *kv.Access

	fileHandles     *handle.Table[*handle.FileHandleEntry]
	keyHandles      *handle.Table[*handle.KeyHandleEntry]
	openPathHandles *handle.Table[*handle.OpenPathHandleEntry]

	blacklist *backup.Blacklist
	registry  *notify.Registry
	transport bus.Transport
	gateway   *plugin.Gateway

	accessLock     *lifecycle.AccessLock
	shutdownPolicy *lifecycle.ShutdownPolicy
	core           *lifecycle.Core

	loopCtl    *loop.Loop
	loopCancel context.CancelFunc

	collector *metrics.Collector
}

// New builds a Client for appID. redisClient may be nil if the process
// never touches shared storage; transport may be nil for shutdown-none
// deployments that never register with a lifecycle peer. checkTrusted
// enables the coarse trusted-application admission filter.
func New(cfg pclconfig.Config, redisClient *redis.Client, transport bus.Transport, checkTrusted bool) *Client {
	paths := pclconfig.NewPaths(cfg)

	c := &Client{
		appID:           cfg.AppID,
		cfg:             cfg,
		paths:           paths,
		rctStore:        rct.NewStore(paths),
		kvCache:         kv.NewCache(paths, redisClient),
		fileHandles:     handle.NewLabeled[*handle.FileHandleEntry]("file"),
		keyHandles:      handle.NewLabeled[*handle.KeyHandleEntry]("key"),
		openPathHandles: handle.NewLabeled[*handle.OpenPathHandleEntry]("open_path"),
		registry:        notify.NewRegistry(),
		transport:       transport,
		accessLock:      &lifecycle.AccessLock{},
		shutdownPolicy:  lifecycle.NewShutdownPolicy(cfg.ShutdownMode),
	}

	fallback := resolve.NewDefaultFallback(paths)
	configurableDefault, _ := kv.OpenBolt(fallback.ConfigurableDefaultPath, false)
	factoryDefault, _ := kv.OpenBolt(fallback.FactoryDefaultPath, true)
	c.access = kv.NewAccess(c.kvCache, c, cfg.MaxKeyValSize, configurableDefault, factoryDefault)

	c.core = lifecycle.NewCore(checkTrusted, c.onProcessInit, c.onProcessDeinit)
	return c
}

// Init performs the process-wide 0→1 init transition: load the backup
// blacklist, resolve the plugin config, and start the event loop.
// Subsequent calls on the same Client only bump the refcount.
func (c *Client) Init() error {
	return c.core.Init(c.appID, c.paths.RCTPath())
}

// Deinit performs the matching 1→0 deinit transition: request an orderly
// shutdown from the event loop and stop it. Returns not-initialized if
// called more times than Init.
func (c *Client) Deinit() error {
	return c.core.Deinit()
}

func (c *Client) onProcessInit(string) error {
	bl, err := backup.LoadBlacklist(c.paths.BlacklistPath())
	if err != nil {
		plog.WithComponent("client").Warn().Err(err).Msg("failed to load backup blacklist, treating as empty")
		bl = backup.EmptyBlacklist()
	}
	c.blacklist = bl

	rows, err := plugin.LoadConfig(c.cfg.PluginConfigPath)
	if err != nil {
		plog.WithComponent("client").Warn().Err(err).Msg("failed to load plugin config")
	}
	c.gateway = plugin.NewGateway(rows, nil)

	if c.transport == nil {
		c.transport = bus.NewInProcess(32)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.loopCancel = cancel
	c.loopCtl = loop.New(c.transport, c.registry, loop.Hooks{
		LockAccess: func() error { c.accessLock.Lock(); return nil },
		CloseFiles: func(kind pcltypes.ShutdownKind) {
			// file data is written through writeFn as it arrives, so a
			// partial shutdown has nothing to flush and keeps handles open.
			if kind == pcltypes.ShutdownPartial {
				return
			}
			c.fileHandles.CloseAll(func(_ int, e *handle.FileHandleEntry) {
				if e != nil {
					backup.OpenSession{BackupPath: e.BackupPath, ChecksumPath: e.ChecksumPath}.OnClose()
				}
			})
		},
		CloseKV:     c.kvCache.CloseAll,
		CloseRCT:    func() { _ = c.rctStore.Close() },
		UnloadPlugs: func() { _ = c.gateway.Deinit() },
	}, 16)
	go c.loopCtl.Run(ctx)
	<-c.loopCtl.Ready()

	c.collector = metrics.NewCollector(metrics.Source{
		FileHandles:     c.fileHandles.Len,
		KeyHandles:      c.keyHandles.Len,
		OpenPathHandles: c.openPathHandles.Len,
		AccessLocked:    c.accessLock.IsLocked,
		InitRefCount:    c.core.RefCount,
		PluginSlots:     c.gateway.LoadedSlots,
		LoopQueueDepth:  c.loopCtl.QueueDepth,
	})
	c.collector.Start(metricsSampleInterval)

	if c.shutdownPolicy.Mode() != pcltypes.ShutdownNone {
		return c.loopCtl.Post(loop.Command{Kind: loop.KindSendLcRegister, Register: true, Mode: c.shutdownPolicy.Mode()})
	}
	return nil
}

func (c *Client) onProcessDeinit() error {
	if c.collector != nil {
		c.collector.Stop()
		c.collector = nil
	}
	if c.loopCtl == nil {
		return nil
	}
	err := c.loopCtl.Post(loop.Command{Kind: loop.KindPrepareShutdown})
	_ = c.loopCtl.Post(loop.Command{Kind: loop.KindQuit})
	<-c.loopCtl.Done()
	if c.loopCancel != nil {
		c.loopCancel()
	}
	return err
}

// PostNotify implements kv.NotifyPoster, routing KV write/delete
// notifications through the event loop instead of the bus directly.
func (c *Client) PostNotify(internalKey string, n pcltypes.Notification) {
	if c.loopCtl != nil {
		c.loopCtl.PostNotify(internalKey, n)
	}
}

func (c *Client) lookup(key pcltypes.ResourceKey) (pcltypes.ResourceConfig, error) {
	if c.accessLock.IsLocked() {
		return pcltypes.ResourceConfig{}, pclerror.New(pclerror.CodeLockedFS)
	}
	if err := c.core.CheckTrusted(); err != nil {
		return pcltypes.ResourceConfig{}, err
	}
	return c.rctStore.Lookup(key, c.appID)
}

// KeyRead implements the key-value read operation.
func (c *Client) KeyRead(ctx context.Context, key pcltypes.ResourceKey) ([]byte, error) {
	cfg, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if cfg.Type != pcltypes.TypeKey {
		return nil, pclerror.New(pclerror.CodeNoKey)
	}
	return c.access.Read(ctx, key, cfg, c.paths)
}

// KeySize reports the stored value's length without reading it.
func (c *Client) KeySize(ctx context.Context, key pcltypes.ResourceKey) (int, error) {
	cfg, err := c.lookup(key)
	if err != nil {
		return 0, err
	}
	if cfg.Type != pcltypes.TypeKey {
		return 0, pclerror.New(pclerror.CodeNoKey)
	}
	return c.access.Size(ctx, key, cfg, c.paths)
}

// KeyWrite implements the key-value write operation.
func (c *Client) KeyWrite(ctx context.Context, key pcltypes.ResourceKey, value []byte) (int, error) {
	cfg, err := c.lookup(key)
	if err != nil {
		return 0, err
	}
	if cfg.Type != pcltypes.TypeKey {
		return 0, pclerror.New(pclerror.CodeNoKey)
	}
	return c.access.Write(ctx, key, cfg, c.paths, value)
}

// KeyDelete implements the key-value delete operation.
func (c *Client) KeyDelete(ctx context.Context, key pcltypes.ResourceKey) error {
	cfg, err := c.lookup(key)
	if err != nil {
		return err
	}
	if cfg.Type != pcltypes.TypeKey {
		return pclerror.New(pclerror.CodeNoKey)
	}
	return c.access.Delete(ctx, key, cfg, c.paths)
}

// KeyOpen allocates a key handle echoing the addressing tuple, for callers
// that want a stable handle to a key resource instead of passing the
// tuple to every read/write/size/delete call.
func (c *Client) KeyOpen(key pcltypes.ResourceKey) (int, error) {
	cfg, err := c.lookup(key)
	if err != nil {
		return 0, err
	}
	if cfg.Type != pcltypes.TypeKey {
		return 0, pclerror.New(pclerror.CodeNoKey)
	}
	return c.keyHandles.Allocate(&handle.KeyHandleEntry{
		Ldbid: key.Ldbid, User: key.User, Seat: key.Seat, ResourceID: key.ResourceID,
	})
}

// KeyClose releases a key handle opened with KeyOpen.
func (c *Client) KeyClose(id int) bool {
	return c.keyHandles.Close(id)
}

// KeyHandleTuple resolves an open key handle back to its addressing tuple.
func (c *Client) KeyHandleTuple(id int) (pcltypes.ResourceKey, bool) {
	e, ok := c.keyHandles.Get(id)
	if !ok {
		return pcltypes.ResourceKey{}, false
	}
	return pcltypes.ResourceKey{Ldbid: e.Ldbid, User: e.User, Seat: e.Seat, ResourceID: e.ResourceID}, true
}

// FileOpen resolves key to a file path, runs the open-time backup
// sequence, opens the underlying file, and returns a live file handle.
func (c *Client) FileOpen(key pcltypes.ResourceKey, writable bool) (int, error) {
	cfg, err := c.lookup(key)
	if err != nil {
		return 0, err
	}
	if cfg.Type != pcltypes.TypeFile {
		return 0, pclerror.New(pclerror.CodeNoKey)
	}
	if writable && cfg.Permission == pcltypes.PermissionReadOnly {
		return 0, pclerror.New(pclerror.CodeResourceReadOnly)
	}

	rp := resolve.Resolve(c.paths, key, cfg)
	if err := backup.EnsureDir(filepath.Dir(rp.StoragePath)); err != nil {
		return 0, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}

	session, err := backup.PrepareOpen(rp.StoragePath, c.paths.BackupTree(), rp.InternalKey, writable, c.blacklist)
	if err != nil {
		return 0, pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}

	id, err := c.fileHandles.Allocate(&handle.FileHandleEntry{
		Permission:   cfg.Permission,
		UserID:       key.User,
		BackupPath:   session.BackupPath,
		ChecksumPath: session.ChecksumPath,
		FilePath:     rp.StoragePath,
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FileWrite passes data and the handle's file path to writeFn, first
// creating the first-write backup sidecar if this handle hasn't created
// one yet.
func (c *Client) FileWrite(id int, data []byte, writeFn func(path string, data []byte) error) error {
	e, ok := c.fileHandles.Get(id)
	if !ok {
		return pclerror.New(pclerror.CodeNoKey)
	}
	if e.Permission == pcltypes.PermissionReadOnly {
		return pclerror.New(pclerror.CodeResourceReadOnly)
	}

	session := backup.OpenSession{
		OriginalPath: e.FilePath,
		BackupPath:   e.BackupPath,
		ChecksumPath: e.ChecksumPath,
		Writable:     true,
	}
	created, err := session.OnFirstWrite(e.BackupCreated)
	if err != nil {
		return pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	if created != e.BackupCreated {
		e.BackupCreated = created
		c.fileHandles.Set(id, e)
	}

	if err := writeFn(e.FilePath, data); err != nil {
		return pclerror.Wrap(pclerror.CodeDBErrorInternal, err)
	}
	return nil
}

// FileClose releases a file handle, removing its backup sidecars.
func (c *Client) FileClose(id int) error {
	e, ok := c.fileHandles.Get(id)
	if !ok {
		return pclerror.New(pclerror.CodeNoKey)
	}
	backup.OpenSession{BackupPath: e.BackupPath, ChecksumPath: e.ChecksumPath}.OnClose()
	c.fileHandles.Close(id)
	return nil
}

// OpenPath allocates an open-path handle: the resolved path for key
// without the library itself opening a file descriptor.
func (c *Client) OpenPath(key pcltypes.ResourceKey) (int, pcltypes.ResolvedPath, error) {
	cfg, err := c.lookup(key)
	if err != nil {
		return 0, pcltypes.ResolvedPath{}, err
	}
	rp := resolve.Resolve(c.paths, key, cfg)
	id, err := c.openPathHandles.Allocate(&handle.OpenPathHandleEntry{ResolvedPath: rp})
	if err != nil {
		return 0, pcltypes.ResolvedPath{}, err
	}
	return id, rp, nil
}

// ClosePath releases an open-path handle.
func (c *Client) ClosePath(id int) bool {
	return c.openPathHandles.Close(id)
}

// RegisterNotification implements the notification-registration operation:
// key must name a shared key-type resource.
func (c *Client) RegisterNotification(key pcltypes.ResourceKey, cb notify.Callback) error {
	cfg, err := c.lookup(key)
	if err != nil {
		return err
	}
	internalKey := resolve.InternalKey(key)
	cbToken := &cb
	if err := c.registry.Register(key, cfg, internalKey, cbToken); err != nil {
		return err
	}
	if c.loopCtl == nil {
		return pclerror.New(pclerror.CodeNotInitialized)
	}
	return c.loopCtl.Post(loop.Command{Kind: loop.KindRegNotify, InternalKey: internalKey, Register: true})
}

// UnregisterNotification removes key's interest registration.
func (c *Client) UnregisterNotification(key pcltypes.ResourceKey) error {
	internalKey := resolve.InternalKey(key)
	c.registry.Unregister(internalKey)
	if c.loopCtl == nil {
		return nil
	}
	return c.loopCtl.Post(loop.Command{Kind: loop.KindRegNotify, InternalKey: internalKey, Register: false})
}

// LifecycleSet applies a lifecycle_set flag's cancel/permission policy.
func (c *Client) LifecycleSet(flag lifecycle.SetFlag) error {
	return c.shutdownPolicy.Apply(flag)
}

// BlockAndWriteBack sets the access lock via the event loop so it
// serializes with any in-flight command, then acknowledges requestID back
// to the admin service that asked for the block (PersistenceAdminRequestCompleted).
func (c *Client) BlockAndWriteBack(requestID uint32) error {
	if c.loopCtl == nil {
		return pclerror.New(pclerror.CodeNotInitialized)
	}
	return c.loopCtl.Post(loop.Command{Kind: loop.KindBlockAndWriteBack, RequestID: requestID})
}

// UnblockAccess releases the access lock: a plain atomic decrement the
// admin service drives directly.
func (c *Client) UnblockAccess() {
	c.accessLock.Unlock()
}

// PluginCapability resolves slot to its live Plugin.
func (c *Client) PluginCapability(slot plugin.Slot) (plugin.Plugin, error) {
	if c.gateway == nil {
		return nil, pclerror.New(pclerror.CodeNotInitialized)
	}
	return c.gateway.Capability(slot)
}

// Stats reports live counts for diagnostics and metrics collection.
func (c *Client) Stats() (fileHandles, keyHandles, openPathHandles int) {
	return c.fileHandles.Len(), c.keyHandles.Len(), c.openPathHandles.Len()
}

// AccessLocked reports whether the global access lock is currently held.
func (c *Client) AccessLocked() bool { return c.accessLock.IsLocked() }

// InitRefCount reports this Client's init/deinit reference count.
func (c *Client) InitRefCount() int { return c.core.RefCount() }
