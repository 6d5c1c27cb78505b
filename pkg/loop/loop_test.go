package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/bus"
	"github.com/genivi/pclient/pkg/notify"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

func startLoop(t *testing.T, hooks Hooks) (*Loop, bus.Transport, func()) {
	t.Helper()
	tr := bus.NewInProcess(8)
	reg := notify.NewRegistry()
	l := New(tr, reg, hooks, 8)

	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	select {
	case <-l.Ready():
	case <-time.After(time.Second):
		t.Fatal("loop never became ready")
	}
	return l, tr, func() { cancel(); <-l.Done() }
}

func TestBlockAndWriteBackLocksAccess(t *testing.T) {
	locked := false
	l, tr, stop := startLoop(t, Hooks{LockAccess: func() error { locked = true; return nil }})
	defer stop()

	require.NoError(t, l.Post(Command{Kind: KindBlockAndWriteBack, RequestID: 9}))
	require.True(t, locked)
	require.Equal(t, uint32(9), tr.(*bus.InProcess).LastAdminRequestID())
	require.Equal(t, 0, tr.(*bus.InProcess).LastAdminStatus())
}

func TestPrepareShutdownRunsTeardownInOrder(t *testing.T) {
	var order []string
	hooks := Hooks{
		CloseFiles:  func(pcltypes.ShutdownKind) { order = append(order, "files") },
		CloseKV:     func() { order = append(order, "kv") },
		CloseRCT:    func() { order = append(order, "rct") },
		UnloadPlugs: func() { order = append(order, "plugins") },
	}
	l, _, stop := startLoop(t, hooks)
	defer stop()

	require.NoError(t, l.Post(Command{Kind: KindPrepareShutdown, RequestID: 7}))
	require.Equal(t, []string{"files", "kv", "rct", "plugins"}, order)
}

func TestRegNotifyThenSignalInvokesCallback(t *testing.T) {
	l, tr, stop := startLoop(t, Hooks{})
	defer stop()

	reg := l.registry
	var got pcltypes.Notification
	done := make(chan struct{})
	cb := notify.Callback(func(n pcltypes.Notification) { got = n; close(done) })
	require.NoError(t, reg.Register(
		pcltypes.ResourceKey{Ldbid: 0, ResourceID: "shared.key"},
		pcltypes.ResourceConfig{Type: pcltypes.TypeKey, Storage: pcltypes.StorageShared},
		"shared.key", &cb))

	require.NoError(t, l.Post(Command{Kind: KindRegNotify, InternalKey: "shared.key", Register: true}))

	// Round-trip through the bus the same way a peer process's write would:
	// SendNotify enqueues onto the transport's own signal channel, which the
	// loop's select picks up and matches against the registry.
	require.NoError(t, tr.SendNotify("shared.key", pcltypes.Notification{ResourceID: "shared.key", Status: pcltypes.NotifyCreated}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback was never invoked")
	}
	require.Equal(t, "shared.key", got.ResourceID)
	require.Equal(t, pcltypes.NotifyCreated, got.Status)
}

func TestQuitStopsTheLoop(t *testing.T) {
	l, _, stop := startLoop(t, Hooks{})
	defer stop()

	require.NoError(t, l.Post(Command{Kind: KindQuit}))
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after KindQuit")
	}
}

func TestUnknownCommandReturnsCommonError(t *testing.T) {
	l, _, stop := startLoop(t, Hooks{})
	defer stop()

	err := l.Post(Command{Kind: Kind(99)})
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeCommon), pe.Code())
}
