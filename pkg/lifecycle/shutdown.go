package lifecycle

import (
	"sync"

	"github.com/genivi/pclient/pkg/pclerror"
	"github.com/genivi/pclient/pkg/pcltypes"
)

// ShutdownMaxCancel is the cancel-count ceiling for FlagShutdownCancel.
const ShutdownMaxCancel = 3

// SetFlag is one bit of the lifecycle_set bitmask applications pass.
type SetFlag int

const (
	FlagShutdown SetFlag = 1 << iota
	FlagShutdownCancel
)

// ShutdownPolicy enforces the cancel-count and mode-permission rules
// around lifecycle_set. Built once at process init with the
// shutdown mode chosen there; the mode itself never changes afterward.
type ShutdownPolicy struct {
	mode pcltypes.ShutdownMode

	mu          sync.Mutex
	cancelCount int
}

// NewShutdownPolicy builds a policy fixed to mode for the process's lifetime.
func NewShutdownPolicy(mode pcltypes.ShutdownMode) *ShutdownPolicy {
	return &ShutdownPolicy{mode: mode}
}

// Apply validates and applies one lifecycle_set flag. FlagShutdown is only
// permitted when the process registered with shutdown mode none — the
// application is expected to drive its own shutdown in that mode.
// FlagShutdownCancel is honored up to ShutdownMaxCancel times, also only
// in mode none; outside mode none the lifecycle peer, not the
// application, owns cancellation.
func (p *ShutdownPolicy) Apply(flag SetFlag) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode != pcltypes.ShutdownNone {
		return pclerror.New(pclerror.CodeShutdownNoPermit)
	}
	if flag == FlagShutdownCancel {
		if p.cancelCount >= ShutdownMaxCancel {
			return pclerror.New(pclerror.CodeShutdownMaxCancel)
		}
		p.cancelCount++
	}
	return nil
}

// Mode reports the fixed shutdown mode this policy was built with.
func (p *ShutdownPolicy) Mode() pcltypes.ShutdownMode { return p.mode }
