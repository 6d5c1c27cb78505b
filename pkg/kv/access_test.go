package kv

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pcltypes"
)

type recordingPoster struct {
	notes        []pcltypes.Notification
	internalKeys []string
}

func (r *recordingPoster) PostNotify(internalKey string, n pcltypes.Notification) {
	r.internalKeys = append(r.internalKeys, internalKey)
	r.notes = append(r.notes, n)
}

func testSetup(t *testing.T) (pclconfig.Paths, *Cache) {
	root := t.TempDir()
	paths := pclconfig.NewPaths(pclconfig.Config{Root: root, AppID: "app"})
	require.NoError(t, mkdirAll(paths))
	return paths, NewCache(paths, nil)
}

func mkdirAll(paths pclconfig.Paths) error {
	for _, dir := range []string{paths.CacheTree(), paths.WriteThroughTree(), paths.BackupTree()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func TestLocalKeyRoundTrip(t *testing.T) {
	paths, cache := testSetup(t)
	access := NewAccess(cache, nil, pcltypes.DefaultMaxKeyValSize, nil, nil)

	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1, Seat: 1}
	cfg := pcltypes.DefaultLocalConfig()
	ctx := context.Background()

	n, err := access.Write(ctx, key, cfg, paths, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	v, err := access.Read(ctx, key, cfg, paths)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), v)

	sz, err := access.Size(ctx, key, cfg, paths)
	require.NoError(t, err)
	require.Equal(t, 5, sz)

	require.NoError(t, access.Delete(ctx, key, cfg, paths))

	_, err = access.Read(ctx, key, cfg, paths)
	require.Error(t, err)
}

func TestWriteRejectsOverLimit(t *testing.T) {
	paths, cache := testSetup(t)
	access := NewAccess(cache, nil, 4, nil, nil)
	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1, Seat: 1}
	cfg := pcltypes.DefaultLocalConfig()

	_, err := access.Write(context.Background(), key, cfg, paths, []byte("toolong"))
	require.Error(t, err)
}

func TestDefaultFallbackOnMiss(t *testing.T) {
	paths, cache := testSetup(t)
	confDefault, err := OpenBolt(paths.WriteThroughTree()+"/configurable-default.itz", false)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, confDefault.Write(ctx, "/Node/media/mediaData_01.configurable", []byte("Some default file content: 01")))

	access := NewAccess(cache, nil, pcltypes.DefaultMaxKeyValSize, confDefault, nil)
	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "media/mediaData_01.configurable"}
	cfg := pcltypes.DefaultLocalConfig()

	v, err := access.Read(ctx, key, cfg, paths)
	require.NoError(t, err)
	require.Equal(t, "Some default file content: 01", string(v))
}

func TestSharedWriteWithoutRedisFailsWithoutNotification(t *testing.T) {
	paths, cache := testSetup(t)
	poster := &recordingPoster{}
	access := NewAccess(cache, poster, pcltypes.DefaultMaxKeyValSize, nil, nil)

	// shared storage without a redis client configured fails closed; this
	// confirms the access layer never silently degrades to a local file
	// for a resource configured as shared.
	key := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidPublic, ResourceID: "r", User: 1}
	cfg := pcltypes.ResourceConfig{Storage: pcltypes.StorageShared, Policy: pcltypes.PolicyWriteCached, Type: pcltypes.TypeKey}
	_, err := access.Write(context.Background(), key, cfg, paths, []byte("v"))
	require.Error(t, err)
	require.Empty(t, poster.notes)
}
