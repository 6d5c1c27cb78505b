package bus

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/pcltypes"
)

func TestSendNotifyMapsStatusToSignalKind(t *testing.T) {
	tr := NewInProcess(4)
	require.NoError(t, tr.SendNotify("r1", pcltypes.Notification{Status: pcltypes.NotifyCreated}))
	require.NoError(t, tr.SendNotify("r2", pcltypes.Notification{Status: pcltypes.NotifyDeleted}))
	require.NoError(t, tr.SendNotify("r3", pcltypes.Notification{Status: pcltypes.NotifyChanged}))

	require.Equal(t, SignalResCreate, (<-tr.Signals()).Kind)
	require.Equal(t, SignalResDelete, (<-tr.Signals()).Kind)
	require.Equal(t, SignalResChange, (<-tr.Signals()).Kind)
}

func TestSendNotifyIsNonBlockingWhenFull(t *testing.T) {
	tr := NewInProcess(1)
	require.NoError(t, tr.SendNotify("r1", pcltypes.Notification{Status: pcltypes.NotifyChanged}))
	require.NoError(t, tr.SendNotify("r2", pcltypes.Notification{Status: pcltypes.NotifyChanged})) // would block without the default case
}

func TestMatchUnmatchKey(t *testing.T) {
	tr := NewInProcess(1)
	require.NoError(t, tr.MatchKey("k"))
	require.True(t, tr.matched["k"])
	require.NoError(t, tr.UnmatchKey("k"))
	require.False(t, tr.matched["k"])
}

func TestInjectShutdownRequestDeliversOnChannel(t *testing.T) {
	tr := NewInProcess(1)
	tr.InjectShutdownRequest(ShutdownRequest{RequestID: 42, Mode: pcltypes.ShutdownNormal})

	req := <-tr.ShutdownRequests()
	require.Equal(t, uint32(42), req.RequestID)
	require.Equal(t, pcltypes.ShutdownNormal, req.Mode)
}

func TestCloseIsIdempotent(t *testing.T) {
	tr := NewInProcess(1)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
}

func TestRegisterAdminAndLifecycle(t *testing.T) {
	tr := NewInProcess(1)
	require.NoError(t, tr.RegisterAdminNotification())
	require.True(t, tr.adminRegistered)
	require.NoError(t, tr.UnregisterAdminNotification())
	require.False(t, tr.adminRegistered)

	require.NoError(t, tr.RegisterLifecycleClient(pcltypes.ShutdownFast))
	require.True(t, tr.lcRegistered)
	require.Equal(t, pcltypes.ShutdownFast, tr.lcMode)
	require.NoError(t, tr.UnregisterLifecycleClient())
	require.False(t, tr.lcRegistered)
}
