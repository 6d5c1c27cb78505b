package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/notify"
	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
	"github.com/genivi/pclient/pkg/rct"
)

func newTestClient(t *testing.T) (*Client, pclconfig.Paths) {
	t.Helper()
	root := t.TempDir()
	cfg := pclconfig.Config{Root: root, AppID: "app", ShutdownMode: pcltypes.ShutdownNone, MaxKeyValSize: pcltypes.DefaultMaxKeyValSize}
	paths := pclconfig.NewPaths(cfg)
	for _, dir := range []string{paths.CacheTree(), paths.WriteThroughTree(), paths.BackupTree()} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}

	cl := New(cfg, nil, nil, false)
	require.NoError(t, cl.Init())
	t.Cleanup(func() { require.NoError(t, cl.Deinit()) })
	return cl, paths
}

func TestKeyWriteReadDeleteRoundTrip(t *testing.T) {
	cl, _ := newTestClient(t)
	ctx := context.Background()
	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1}

	n, err := cl.KeyWrite(ctx, key, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	v, err := cl.KeyRead(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), v)

	sz, err := cl.KeySize(ctx, key)
	require.NoError(t, err)
	require.Equal(t, 5, sz)

	require.NoError(t, cl.KeyDelete(ctx, key))
	_, err = cl.KeyRead(ctx, key)
	require.Error(t, err)
}

func TestAccessLockBlocksKeyOperations(t *testing.T) {
	cl, _ := newTestClient(t)
	ctx := context.Background()
	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1}

	require.NoError(t, cl.BlockAndWriteBack(1))
	_, err := cl.KeyWrite(ctx, key, []byte("x"))
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeLockedFS), pe.Code())

	cl.UnblockAccess()
	_, err = cl.KeyWrite(ctx, key, []byte("x"))
	require.NoError(t, err)
}

func TestKeyOpenCloseEchoesTuple(t *testing.T) {
	cl, _ := newTestClient(t)
	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 7, Seat: 2}

	id, err := cl.KeyOpen(key)
	require.NoError(t, err)

	got, ok := cl.KeyHandleTuple(id)
	require.True(t, ok)
	require.Equal(t, key, got)

	require.True(t, cl.KeyClose(id))
	_, ok = cl.KeyHandleTuple(id)
	require.False(t, ok)
}

func TestFileOpenWriteCloseCreatesBackupSidecar(t *testing.T) {
	cl, paths := newTestClient(t)
	rctPath := paths.RCTPath()
	require.NoError(t, rct.WriteTable(rctPath, map[string]pcltypes.ResourceConfig{
		"log/today": {Type: pcltypes.TypeFile, Storage: pcltypes.StorageLocal, Permission: pcltypes.PermissionReadWrite, Policy: pcltypes.PolicyWriteThrough},
	}))

	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "log/today", User: 1}

	id, err := cl.FileOpen(key, true)
	require.NoError(t, err)

	writeFn := func(path string, data []byte) error { return os.WriteFile(path, data, 0644) }
	require.NoError(t, cl.FileWrite(id, []byte("line one"), writeFn))

	e, ok := cl.fileHandles.Get(id)
	require.True(t, ok)
	require.True(t, e.BackupCreated)
	require.FileExists(t, e.BackupPath)
	require.FileExists(t, e.ChecksumPath)

	require.NoError(t, cl.FileClose(id))
	require.NoFileExists(t, e.BackupPath)
}

func TestRegisterNotificationRequiresSharedKey(t *testing.T) {
	cl, paths := newTestClient(t)

	publicRCT := filepath.Join(paths.WriteThroughTree(), "..", "shared", "public", "resource-table-cfg.itz")
	require.NoError(t, os.MkdirAll(filepath.Dir(publicRCT), 0755))
	require.NoError(t, rct.WriteTable(publicRCT, map[string]pcltypes.ResourceConfig{
		"shared/counter": {Type: pcltypes.TypeKey, Storage: pcltypes.StorageShared, Permission: pcltypes.PermissionReadWrite},
	}))

	shared := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidPublic, ResourceID: "shared/counter"}
	cb := notify.Callback(func(pcltypes.Notification) {})
	require.NoError(t, cl.RegisterNotification(shared, cb))
	require.NoError(t, cl.UnregisterNotification(shared))

	local := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1}
	err := cl.RegisterNotification(local, cb)
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeNotifyNotAllowed), pe.Code())
}

func TestPluginCapabilityWithNoConfiguredSlotsReturnsNoPluginFunction(t *testing.T) {
	cl, _ := newTestClient(t)
	_, err := cl.PluginCapability("hwinfo")
	require.Error(t, err)
}

func TestStatsReflectsOpenHandles(t *testing.T) {
	cl, _ := newTestClient(t)
	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1}

	id, err := cl.KeyOpen(key)
	require.NoError(t, err)

	_, keyHandles, _ := cl.Stats()
	require.Equal(t, 1, keyHandles)

	require.True(t, cl.KeyClose(id))
	_, keyHandles, _ = cl.Stats()
	require.Equal(t, 0, keyHandles)
}
