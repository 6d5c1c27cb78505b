// Package loop is the library's single event-loop goroutine: every admin
// command, lifecycle transition, and incoming bus signal is serialized
// through one owner goroutine, the same single-owner-thread shape the
// teacher uses for its reconciler's work queue, narrowed here to a fixed
// command set instead of a generic job queue.
//
// The loop multiplexes three sources with a single select: the command
// pipe workers post to, the transport's incoming signal stream, and its
// incoming shutdown-request stream. Go's select over channels stands in
// for the original poll over a pollfd array; ordering across sources is
// not guaranteed beyond what select already provides (no source is
// starved, but no cross-source FIFO is promised either).
package loop

import (
	"context"
	"sync"

	"github.com/genivi/pclient/pkg/bus"
	"github.com/genivi/pclient/pkg/metrics"
	"github.com/genivi/pclient/pkg/notify"
	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
	"github.com/genivi/pclient/pkg/plog"
)

func notifyStatusLabel(s pcltypes.NotifyStatus) string {
	switch s {
	case pcltypes.NotifyCreated:
		return "created"
	case pcltypes.NotifyDeleted:
		return "deleted"
	default:
		return "changed"
	}
}

// Kind is one of the event loop's fixed commands.
type Kind int

const (
	// KindBlockAndWriteBack corresponds to PAS_BLOCK_AND_WRITE_BACK:
	// acquire the access lock and acknowledge the admin request.
	KindBlockAndWriteBack Kind = iota
	// KindPrepareShutdown corresponds to LC_PREPARE_SHUTDOWN: run the
	// ordered teardown sequence and reply to the lifecycle peer.
	KindPrepareShutdown
	// KindSendNotify corresponds to SEND_NOTIFY_SIGNAL: emit a
	// change/create/delete signal on the bus for a key this process wrote.
	KindSendNotify
	// KindRegNotify corresponds to REG_NOTIFY_SIGNAL: add or remove a bus
	// match rule for a key the application registered interest in.
	KindRegNotify
	// KindSendPasRegister corresponds to SEND_PAS_REGISTER: register or
	// unregister this process as an admin-notification consumer.
	KindSendPasRegister
	// KindSendLcRegister corresponds to SEND_LC_REGISTER: register or
	// unregister this process as a lifecycle client.
	KindSendLcRegister
	// KindQuit stops the loop goroutine.
	KindQuit
)

var kindNames = [...]string{
	KindBlockAndWriteBack: "block_and_write_back",
	KindPrepareShutdown:   "prepare_shutdown",
	KindSendNotify:        "send_notify",
	KindRegNotify:         "reg_notify",
	KindSendPasRegister:   "send_pas_register",
	KindSendLcRegister:    "send_lc_register",
	KindQuit:              "quit",
}

// String returns the Kind's metrics/logging label.
func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Command is one pipe entry. Not every field applies to every Kind; see
// the Kind constant's doc comment for which fields it reads.
type Command struct {
	Kind Kind

	InternalKey string
	Notify      pcltypes.Notification
	Register    bool // true = register/add, false = unregister/remove
	Mode        pcltypes.ShutdownMode
	ShutdownOf  pcltypes.ShutdownKind
	RequestID   uint32

	done chan error
}

// Hooks are the subsystem teardown/lock callbacks KindBlockAndWriteBack and
// KindPrepareShutdown drive. Any nil hook is treated as a no-op, so a loop
// built for a narrower deployment need not wire all of them.
type Hooks struct {
	LockAccess   func() error
	UnlockAccess func() error

	CloseFiles  func(kind pcltypes.ShutdownKind)
	CloseKV     func()
	CloseRCT    func()
	UnloadPlugs func()
}

// Loop owns the command pipe and drives Hooks and a bus.Transport from one
// goroutine. The zero value is not usable; build with New.
type Loop struct {
	transport bus.Transport
	registry  *notify.Registry
	hooks     Hooks

	pipe chan Command

	readyOnce sync.Once
	ready     chan struct{}
	done      chan struct{}
}

// New builds a Loop. buffer sizes the command pipe; a worker posting with
// Post blocks until the loop drains the pipe and completes the command, so
// a small buffer (the teacher's default of 16) is normally enough.
func New(transport bus.Transport, registry *notify.Registry, hooks Hooks, buffer int) *Loop {
	return &Loop{
		transport: transport,
		registry:  registry,
		hooks:     hooks,
		pipe:      make(chan Command, buffer),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Run drives the loop until Post(KindQuit) or ctx is cancelled. Intended
// to be launched with `go loop.Run(ctx)`; callers synchronize startup by
// waiting on Ready.
func (l *Loop) Run(ctx context.Context) {
	log := plog.WithComponent("loop")
	l.readyOnce.Do(func() { close(l.ready) })
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-l.pipe:
			if cmd.Kind == KindQuit {
				l.reply(cmd, nil)
				return
			}
			l.dispatch(cmd)
		case sig, ok := <-l.transport.Signals():
			if !ok {
				continue
			}
			l.deliverSignal(sig)
		case req, ok := <-l.transport.ShutdownRequests():
			if !ok {
				continue
			}
			log.Info().Uint32("request_id", req.RequestID).Msg("incoming shutdown request")
			l.dispatch(Command{
				Kind:       KindPrepareShutdown,
				RequestID:  req.RequestID,
				Mode:       req.Mode,
				ShutdownOf: partialOrFull(req.Partial),
				done:       make(chan error, 1),
			})
		}
	}
}

func partialOrFull(partial bool) pcltypes.ShutdownKind {
	if partial {
		return pcltypes.ShutdownPartial
	}
	return pcltypes.ShutdownFull
}

// Ready is closed once Run has entered its select loop.
func (l *Loop) Ready() <-chan struct{} { return l.ready }

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// QueueDepth reports the command pipe's current depth, for metrics
// collection.
func (l *Loop) QueueDepth() int { return len(l.pipe) }

// Post enqueues cmd and blocks until the loop has processed it, returning
// whatever error the handler produced.
func (l *Loop) Post(cmd Command) error {
	cmd.done = make(chan error, 1)
	l.pipe <- cmd
	return <-cmd.done
}

// PostNotify implements kv.NotifyPoster: it enqueues a KindSendNotify
// command without waiting for the loop to process it, so a key write never
// blocks on bus delivery. A full pipe drops the notification rather than
// stalling the writer — the bus emit is already best-effort (see
// pkg/bus.InProcess.SendNotify). internalKey must be the same string the
// resource's RegisterNotification call hashed, or a peer's interest-set
// check will never match this write.
func (l *Loop) PostNotify(internalKey string, n pcltypes.Notification) {
	select {
	case l.pipe <- Command{Kind: KindSendNotify, InternalKey: internalKey, Notify: n}:
	default:
		plog.WithComponent("loop").Warn().Str("internal_key", internalKey).Msg("command pipe full, dropping notify")
	}
}

func (l *Loop) reply(cmd Command, err error) {
	if cmd.done != nil {
		cmd.done <- err
	}
}

func (l *Loop) dispatch(cmd Command) {
	log := plog.WithComponent("loop")
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.LoopCommandDuration, cmd.Kind.String())
	var err error
	switch cmd.Kind {
	case KindBlockAndWriteBack:
		err = l.handleBlockAndWriteBack(cmd)
	case KindPrepareShutdown:
		err = l.handlePrepareShutdown(cmd)
	case KindSendNotify:
		err = l.transport.SendNotify(cmd.InternalKey, cmd.Notify)
		if err == nil {
			metrics.NotifySignalsEmittedTotal.WithLabelValues(notifyStatusLabel(cmd.Notify.Status)).Inc()
		}
	case KindRegNotify:
		if cmd.Register {
			err = l.transport.MatchKey(cmd.InternalKey)
		} else {
			err = l.transport.UnmatchKey(cmd.InternalKey)
		}
	case KindSendPasRegister:
		if cmd.Register {
			err = l.transport.RegisterAdminNotification()
		} else {
			err = l.transport.UnregisterAdminNotification()
		}
	case KindSendLcRegister:
		if cmd.Register {
			err = l.transport.RegisterLifecycleClient(cmd.Mode)
		} else {
			err = l.transport.UnregisterLifecycleClient()
		}
	default:
		err = pclerror.New(pclerror.CodeCommon)
	}
	if err != nil {
		log.Warn().Str("kind", cmd.Kind.String()).Err(err).Msg("command handler failed")
	}
	l.reply(cmd, err)
}

// handleBlockAndWriteBack implements PAS_BLOCK_AND_WRITE_BACK: acquire the
// access lock, then acknowledge the admin service's request regardless of
// outcome so it isn't left waiting on a reply that never comes.
func (l *Loop) handleBlockAndWriteBack(cmd Command) error {
	var lockErr error
	if l.hooks.LockAccess != nil {
		lockErr = l.hooks.LockAccess()
	}
	status := 0
	if lockErr != nil {
		status = 1
	}
	if completeErr := l.transport.CompleteAdminRequest(cmd.RequestID, status); completeErr != nil && lockErr == nil {
		return completeErr
	}
	return lockErr
}

// handlePrepareShutdown runs the ordered teardown: close open files per
// the requested shutdown kind, close the KV and RCT backends, unload
// plugins, then acknowledge the lifecycle peer. Only the CloseFiles hook
// sees the shutdown kind; every other step, including the
// CompleteLifecycleRequest acknowledgement, runs the same for both kinds.
func (l *Loop) handlePrepareShutdown(cmd Command) error {
	if l.hooks.CloseFiles != nil {
		l.hooks.CloseFiles(cmd.ShutdownOf)
	}
	if l.hooks.CloseKV != nil {
		l.hooks.CloseKV()
	}
	if l.hooks.CloseRCT != nil {
		l.hooks.CloseRCT()
	}
	if l.hooks.UnloadPlugs != nil {
		l.hooks.UnloadPlugs()
	}
	return l.transport.CompleteLifecycleRequest(cmd.RequestID, 0)
}

func (l *Loop) deliverSignal(sig bus.Signal) {
	if !l.registry.Interested(sig.InternalKey) {
		return
	}
	status := pcltypes.NotifyChanged
	switch sig.Kind {
	case bus.SignalResCreate:
		status = pcltypes.NotifyCreated
	case bus.SignalResDelete:
		status = pcltypes.NotifyDeleted
	}
	n := sig.Notify
	n.Status = status
	l.registry.Emit(sig.InternalKey, n)
}
