package rct

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

func TestLookupSynthesizesLocalDefault(t *testing.T) {
	root := t.TempDir()
	paths := pclconfig.NewPaths(pclconfig.Config{Root: root, AppID: "app"})
	require.NoError(t, os.MkdirAll(paths.WriteThroughTree(), 0755))
	require.NoError(t, WriteTable(paths.RCTPath(), map[string]pcltypes.ResourceConfig{}))

	store := NewStore(paths)
	cfg, err := store.Lookup(pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a"}, "app")
	require.NoError(t, err)
	require.Equal(t, pcltypes.DefaultLocalConfig(), cfg)
}

func TestLookupHitsConfiguredEntry(t *testing.T) {
	root := t.TempDir()
	paths := pclconfig.NewPaths(pclconfig.Config{Root: root, AppID: "app"})
	require.NoError(t, os.MkdirAll(paths.WriteThroughTree(), 0755))
	want := pcltypes.ResourceConfig{Policy: pcltypes.PolicyWriteCached, Storage: pcltypes.StorageLocal, Type: pcltypes.TypeFile, MaxSize: 4096}
	require.NoError(t, WriteTable(paths.RCTPath(), map[string]pcltypes.ResourceConfig{
		"media/file.db": want,
	}))

	store := NewStore(paths)
	cfg, err := store.Lookup(pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "media/file.db"}, "app")
	require.NoError(t, err)
	require.Equal(t, want, cfg)
}

func TestLookupSharedMissReturnsNoEntry(t *testing.T) {
	root := t.TempDir()
	paths := pclconfig.NewPaths(pclconfig.Config{Root: root, AppID: "app"})
	store := NewStore(paths)

	_, err := store.Lookup(pcltypes.ResourceKey{Ldbid: pcltypes.LdbidPublic, ResourceID: "r"}, "app")
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, pclerror.CodeNoPrctTable, pclerror.Code(pe.Code()))
}
