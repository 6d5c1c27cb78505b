// Package notify is the notification registry: the set of keys the
// application is interested in, and the single registered callback the
// event loop invokes when a matching change signal arrives. Grounded on
// the teacher's pkg/events.Broker pub/sub pattern, narrowed from "many
// subscribers" to "exactly one callback, CRC32(key)-keyed interest set".
package notify

import (
	"sync"
	"sync/atomic"

	"github.com/genivi/pclient/pkg/crc32c"
	"github.com/genivi/pclient/pkg/metrics"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

// Callback receives a fully-populated notification record.
type Callback func(pcltypes.Notification)

// Registry owns the interest set and the single callback. Mutated by the
// caller's goroutine under mu; the callback pointer is published with
// release semantics and read from the loop with acquire semantics (the
// atomic.Pointer below) for cross-thread callback publication.
type Registry struct {
	mu       sync.Mutex
	keys     map[uint32]struct{}
	callback atomic.Pointer[Callback]
	owner    *Callback // identity token distinguishing "same app callback" across calls
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{keys: make(map[uint32]struct{})}
}

// Register adds key's hash to the interest set and publishes cb as the
// registry's callback. Only key-type resources on shared storage may be
// registered, and the registry supports exactly one callback: a second
// registration with a different callback token is rejected with
// notify-not-allowed.
func (r *Registry) Register(key pcltypes.ResourceKey, cfg pcltypes.ResourceConfig, internalKey string, cb *Callback) error {
	if cfg.Type != pcltypes.TypeKey || cfg.Storage != pcltypes.StorageShared {
		return pclerror.New(pclerror.CodeNotifyNotAllowed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.owner != nil && r.owner != cb {
		return pclerror.New(pclerror.CodeNotifyNotAllowed)
	}
	r.owner = cb
	r.callback.Store(cb)
	r.keys[crc32c.OfString(internalKey)] = struct{}{}
	return nil
}

// Unregister removes internalKey's hash from the interest set. If the set
// becomes empty the callback is cleared.
func (r *Registry) Unregister(internalKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, crc32c.OfString(internalKey))
	if len(r.keys) == 0 {
		r.owner = nil
		r.callback.Store(nil)
	}
}

// Interested reports whether internalKey's hash is in the interest set —
// the match-rule check the event loop performs before invoking the
// callback.
func (r *Registry) Interested(internalKey string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.keys[crc32c.OfString(internalKey)]
	return ok
}

// Emit invokes the registered callback with n, if any key is registered
// for n's resource. Called only from the event loop.
func (r *Registry) Emit(internalKey string, n pcltypes.Notification) {
	if !r.Interested(internalKey) {
		return
	}
	cb := r.callback.Load()
	if cb == nil {
		return
	}
	metrics.NotifyCallbacksInvokedTotal.Inc()
	(*cb)(n)
}
