// Package bus models the library's IPC surface: two consumed bus
// interfaces (persistence.admin, NodeStateManager.Consumer) and four
// incoming signals. No D-Bus binding exists anywhere in the example
// corpus this library is grounded on, and fabricating one would violate
// the "never fabricate dependencies" rule; the surface is captured as a
// plain Go interface instead, with an in-process implementation suitable
// for embedding the admin/lifecycle peer in the same binary or for
// tests. A real deployment plugs in a transport (D-Bus, a Unix socket,
// whatever the platform offers) by implementing the same interface —
// that adapter is out of this repository's scope, exactly as dynamic
// plugin loading is.
package bus

import "github.com/genivi/pclient/pkg/pcltypes"

// SignalKind is one of the four incoming change/lifecycle signals.
type SignalKind int

const (
	SignalModeChanged SignalKind = iota
	SignalResChange
	SignalResCreate
	SignalResDelete
)

// Signal is an incoming change notification from the bus. InternalKey is
// the full internal key match rules are keyed on (see MatchKey/UnmatchKey)
// and is what the event loop checks against the notification registry's
// interest set; Notify is the fully-populated record to hand the
// registered callback once that check passes.
type Signal struct {
	Kind        SignalKind
	InternalKey string
	Notify      pcltypes.Notification
}

// ShutdownRequest is an incoming LifecycleRequest method call.
type ShutdownRequest struct {
	RequestID uint32
	Mode      pcltypes.ShutdownMode
	Partial   bool
}

// Transport is the IPC surface the event loop drives. RegisterX/UnregisterX
// correspond to RegisterPersAdminNotification/RegisterShutdownClient and
// their Unregister counterparts; CompleteX corresponds to
// PersistenceAdminRequestCompleted/LifecycleRequestComplete.
type Transport interface {
	RegisterAdminNotification() error
	UnregisterAdminNotification() error
	CompleteAdminRequest(requestID uint32, status int) error

	RegisterLifecycleClient(mode pcltypes.ShutdownMode) error
	UnregisterLifecycleClient() error
	CompleteLifecycleRequest(requestID uint32, status int) error

	// MatchKey/UnmatchKey stand in for D-Bus match-rule add/remove for the
	// PersistenceResChange/Create/Delete signals keyed by internalKey.
	MatchKey(internalKey string) error
	UnmatchKey(internalKey string) error

	// SendNotify emits a change/create/delete signal for internalKey,
	// carrying n's fully-populated payload for delivery to whichever
	// registry's interest set internalKey matches.
	SendNotify(internalKey string, n pcltypes.Notification) error

	// Signals delivers incoming change/mode signals matched by MatchKey.
	Signals() <-chan Signal
	// ShutdownRequests delivers incoming LifecycleRequest calls.
	ShutdownRequests() <-chan ShutdownRequest

	Close() error
}
