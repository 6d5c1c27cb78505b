package resolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/pclconfig"
	"github.com/genivi/pclient/pkg/pcltypes"
)

func testPaths() pclconfig.Paths {
	return pclconfig.NewPaths(pclconfig.Config{Root: "/Data", AppID: "app"})
}

func TestInternalKeyNodeScope(t *testing.T) {
	k := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 0, Seat: 0}
	require.Equal(t, "/Node/cfg/a", InternalKey(k))
}

func TestInternalKeyUserScope(t *testing.T) {
	k := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1, Seat: 0}
	require.Equal(t, "/User/1/cfg/a", InternalKey(k))
}

func TestInternalKeyUserSeatScope(t *testing.T) {
	k := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1, Seat: 1}
	require.Equal(t, "/User/1/Seat/1/cfg/a", InternalKey(k))
}

func TestInternalKeyLocalNamespaceHighLdbid(t *testing.T) {
	k := pcltypes.ResourceKey{Ldbid: 0x90, ResourceID: "r", User: 2, Seat: 0}
	require.Equal(t, "/90/User/2/r", InternalKey(k))

	k.Seat = 3
	require.Equal(t, "/90/User/2/Seat/3/r", InternalKey(k))
}

func TestResolveCustomBackend(t *testing.T) {
	cfg := pcltypes.ResourceConfig{Storage: pcltypes.StorageCustom, CustomName: "hwplugin"}
	k := pcltypes.ResourceKey{Ldbid: 0x10, ResourceID: "sensor"}
	rp := Resolve(testPaths(), k, cfg)
	require.Equal(t, pcltypes.StorageCustom, rp.Backend)
	require.Equal(t, "hwplugin", rp.StoragePath)
	require.Equal(t, "0x10/hwplugin/sensor", rp.InternalKey)
}

func TestResolveCustomBackendWithCustomID(t *testing.T) {
	cfg := pcltypes.ResourceConfig{Storage: pcltypes.StorageCustom, CustomName: "hwplugin", CustomID: "slotA"}
	k := pcltypes.ResourceKey{Ldbid: 0x10, ResourceID: "sensor"}
	rp := Resolve(testPaths(), k, cfg)
	require.Equal(t, "0x10/slotA", rp.InternalKey)
}

func TestResolveLocalKeyGoesToCacheDB(t *testing.T) {
	cfg := pcltypes.DefaultLocalConfig()
	k := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "cfg/a", User: 1, Seat: 1}
	rp := Resolve(testPaths(), k, cfg)
	require.Equal(t, pcltypes.StorageLocal, rp.Backend)
	require.Equal(t, testPaths().LocalCacheDB(), rp.StoragePath)
	require.Equal(t, "/User/1/Seat/1/cfg/a", rp.InternalKey)
}

func TestResolveFileAppendsInternalKeyToPath(t *testing.T) {
	cfg := pcltypes.ResourceConfig{Storage: pcltypes.StorageLocal, Policy: pcltypes.PolicyWriteCached, Type: pcltypes.TypeFile}
	k := pcltypes.ResourceKey{Ldbid: pcltypes.LdbidLocal, ResourceID: "media/file.db", User: 1, Seat: 1}
	rp := Resolve(testPaths(), k, cfg)
	require.Equal(t, testPaths().LocalCacheDB()+"/User/1/Seat/1/media/file.db", rp.StoragePath)
}
