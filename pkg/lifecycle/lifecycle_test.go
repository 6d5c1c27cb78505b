package lifecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

func TestAccessLockCounter(t *testing.T) {
	var a AccessLock
	require.False(t, a.IsLocked())
	a.Lock()
	a.Lock()
	require.True(t, a.IsLocked())
	a.Unlock()
	require.True(t, a.IsLocked())
	a.Unlock()
	require.False(t, a.IsLocked())
}

func TestShutdownPolicyModeNoneAllowsCancelUpToMax(t *testing.T) {
	p := NewShutdownPolicy(pcltypes.ShutdownNone)
	for i := 0; i < ShutdownMaxCancel; i++ {
		require.NoError(t, p.Apply(FlagShutdownCancel))
	}
	err := p.Apply(FlagShutdownCancel)
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeShutdownMaxCancel), pe.Code())
}

func TestShutdownPolicyNonNoneModeRejectsSet(t *testing.T) {
	p := NewShutdownPolicy(pcltypes.ShutdownNormal)
	err := p.Apply(FlagShutdown)
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeShutdownNoPermit), pe.Code())
}

func TestCoreOnlyRunsHooksOnEdgeTransitions(t *testing.T) {
	initCalls, deinitCalls := 0, 0
	c := NewCore(false,
		func(string) error { initCalls++; return nil },
		func() error { deinitCalls++; return nil })

	require.NoError(t, c.Init("app", ""))
	require.NoError(t, c.Init("app", ""))
	require.Equal(t, 1, initCalls)
	require.Equal(t, 2, c.RefCount())

	require.NoError(t, c.Deinit())
	require.Equal(t, 0, deinitCalls)
	require.NoError(t, c.Deinit())
	require.Equal(t, 1, deinitCalls)

	err := c.Deinit()
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeNotInitialized), pe.Code())
}

func TestCoreTrustedCheck(t *testing.T) {
	dir := t.TempDir()
	rctPath := filepath.Join(dir, "resource-table-cfg.itz")
	require.NoError(t, os.WriteFile(rctPath, []byte("x"), 0o644))

	c := NewCore(true, nil, nil)
	require.NoError(t, c.Init("app", rctPath))
	require.NoError(t, c.CheckTrusted())

	require.NoError(t, os.Remove(rctPath))
	err := c.CheckTrusted()
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeShutdownNoTrusted), pe.Code())
}
