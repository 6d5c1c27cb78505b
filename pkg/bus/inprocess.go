package bus

import (
	"sync"

	"github.com/genivi/pclient/pkg/pcltypes"
)

// InProcess is an in-memory Transport, built the same way the teacher's
// pkg/events.Broker is (buffered channels, a mutex-guarded map) but
// narrowed to this library's request/response plus signal-stream shape.
// MatchKey/UnmatchKey only record keys in the matched set; SendNotify
// queues every signal on Signals whether or not its key was matched.
// Suitable for single-process embedding and for tests.
type InProcess struct {
	mu              sync.RWMutex
	matched         map[string]bool
	signals         chan Signal
	shutdownReqs    chan ShutdownRequest
	adminRegistered bool
	lcRegistered    bool
	lcMode          pcltypes.ShutdownMode
	closed          bool

	lastAdminRequestID uint32
	lastAdminStatus    int
}

// NewInProcess builds an InProcess transport with the given buffer depth
// for its signal/shutdown-request channels.
func NewInProcess(buffer int) *InProcess {
	return &InProcess{
		matched:      make(map[string]bool),
		signals:      make(chan Signal, buffer),
		shutdownReqs: make(chan ShutdownRequest, buffer),
	}
}

func (t *InProcess) RegisterAdminNotification() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adminRegistered = true
	return nil
}

func (t *InProcess) UnregisterAdminNotification() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.adminRegistered = false
	return nil
}

func (t *InProcess) CompleteAdminRequest(requestID uint32, status int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastAdminRequestID = requestID
	t.lastAdminStatus = status
	return nil
}

// LastAdminRequestID reports the requestID of the most recent
// CompleteAdminRequest call, for tests asserting the reply was threaded
// through correctly.
func (t *InProcess) LastAdminRequestID() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAdminRequestID
}

// LastAdminStatus reports the status of the most recent
// CompleteAdminRequest call.
func (t *InProcess) LastAdminStatus() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAdminStatus
}

func (t *InProcess) RegisterLifecycleClient(mode pcltypes.ShutdownMode) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lcRegistered = true
	t.lcMode = mode
	return nil
}

func (t *InProcess) UnregisterLifecycleClient() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lcRegistered = false
	return nil
}

func (t *InProcess) CompleteLifecycleRequest(requestID uint32, status int) error {
	return nil
}

func (t *InProcess) MatchKey(internalKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.matched[internalKey] = true
	return nil
}

func (t *InProcess) UnmatchKey(internalKey string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.matched, internalKey)
	return nil
}

func (t *InProcess) SendNotify(internalKey string, n pcltypes.Notification) error {
	kind := SignalResChange
	switch n.Status {
	case pcltypes.NotifyCreated:
		kind = SignalResCreate
	case pcltypes.NotifyDeleted:
		kind = SignalResDelete
	}
	select {
	case t.signals <- Signal{Kind: kind, InternalKey: internalKey, Notify: n}:
	default:
		// bus buffer full; original D-Bus emit has no backpressure contract
		// either, signals are best-effort for slow consumers.
	}
	return nil
}

func (t *InProcess) Signals() <-chan Signal                   { return t.signals }
func (t *InProcess) ShutdownRequests() <-chan ShutdownRequest { return t.shutdownReqs }

// InjectShutdownRequest simulates an incoming LifecycleRequest call, for
// tests and for a same-process lifecycle peer.
func (t *InProcess) InjectShutdownRequest(req ShutdownRequest) {
	select {
	case t.shutdownReqs <- req:
	default:
	}
}

func (t *InProcess) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.signals)
	close(t.shutdownReqs)
	return nil
}
