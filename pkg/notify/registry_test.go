package notify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

func sharedKeyCfg() pcltypes.ResourceConfig {
	return pcltypes.ResourceConfig{Type: pcltypes.TypeKey, Storage: pcltypes.StorageShared}
}

func TestRegisterRejectsLocalResource(t *testing.T) {
	reg := NewRegistry()
	var cb Callback = func(pcltypes.Notification) {}
	err := reg.Register(pcltypes.ResourceKey{}, pcltypes.DefaultLocalConfig(), "/Node/r", &cb)
	require.Error(t, err)
	var pe *pclerror.PCLError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, int(pclerror.CodeNotifyNotAllowed), pe.Code())
}

func TestRegisterSecondDifferentCallbackRejected(t *testing.T) {
	reg := NewRegistry()
	var cb1 Callback = func(pcltypes.Notification) {}
	var cb2 Callback = func(pcltypes.Notification) {}

	require.NoError(t, reg.Register(pcltypes.ResourceKey{}, sharedKeyCfg(), "/k1", &cb1))
	err := reg.Register(pcltypes.ResourceKey{}, sharedKeyCfg(), "/k2", &cb2)
	require.Error(t, err)
}

func TestEmitInvokesCallbackOnlyForInterestedKey(t *testing.T) {
	reg := NewRegistry()
	var received *pcltypes.Notification
	var cb Callback = func(n pcltypes.Notification) { received = &n }

	require.NoError(t, reg.Register(pcltypes.ResourceKey{}, sharedKeyCfg(), "/k1", &cb))

	reg.Emit("/other", pcltypes.Notification{ResourceID: "x"})
	require.Nil(t, received)

	reg.Emit("/k1", pcltypes.Notification{ResourceID: "k1", Status: pcltypes.NotifyChanged})
	require.NotNil(t, received)
	require.Equal(t, "k1", received.ResourceID)
}

func TestUnregisterClearsCallbackWhenEmpty(t *testing.T) {
	reg := NewRegistry()
	var cb Callback = func(pcltypes.Notification) {}
	require.NoError(t, reg.Register(pcltypes.ResourceKey{}, sharedKeyCfg(), "/k1", &cb))

	reg.Unregister("/k1")
	require.False(t, reg.Interested("/k1"))

	// callback cleared; a different callback may now register.
	var cb2 Callback = func(pcltypes.Notification) {}
	require.NoError(t, reg.Register(pcltypes.ResourceKey{}, sharedKeyCfg(), "/k2", &cb2))
}
