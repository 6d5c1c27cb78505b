package handle

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

func TestAllocateCloseReuse(t *testing.T) {
	tbl := New[FileHandleEntry]()

	h1, err := tbl.Allocate(FileHandleEntry{FilePath: "a"})
	require.NoError(t, err)
	require.Equal(t, 1, h1)

	h2, err := tbl.Allocate(FileHandleEntry{FilePath: "b"})
	require.NoError(t, err)
	require.Equal(t, 2, h2)

	require.True(t, tbl.Close(h1))

	h3, err := tbl.Allocate(FileHandleEntry{FilePath: "c"})
	require.NoError(t, err)
	require.Equal(t, h1, h3, "freed handle id must be reused before a new one is minted")
}

func TestCloseTwiceFails(t *testing.T) {
	tbl := New[KeyHandleEntry]()
	h, _ := tbl.Allocate(KeyHandleEntry{ResourceID: "r"})
	require.True(t, tbl.Close(h))
	require.False(t, tbl.Close(h))
}

func TestExhaustion(t *testing.T) {
	tbl := New[KeyHandleEntry]()
	var last int
	for i := 0; i < pcltypes.MaxPersHandle; i++ {
		h, err := tbl.Allocate(KeyHandleEntry{})
		require.NoError(t, err)
		last = h
	}
	_, err := tbl.Allocate(KeyHandleEntry{})
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeMaxHandle), pe.Code())

	require.True(t, tbl.Close(last))
	h, err := tbl.Allocate(KeyHandleEntry{})
	require.NoError(t, err)
	require.Equal(t, last, h)
}

func TestCloseAllInvokesCallback(t *testing.T) {
	tbl := New[FileHandleEntry]()
	h1, _ := tbl.Allocate(FileHandleEntry{FilePath: "a"})
	h2, _ := tbl.Allocate(FileHandleEntry{FilePath: "b"})

	seen := map[int]string{}
	tbl.CloseAll(func(id int, data FileHandleEntry) {
		seen[id] = data.FilePath
	})

	require.Equal(t, "a", seen[h1])
	require.Equal(t, "b", seen[h2])
	require.Equal(t, 0, tbl.Len())

	h3, err := tbl.Allocate(FileHandleEntry{})
	require.NoError(t, err)
	require.Equal(t, 1, h3)
}
