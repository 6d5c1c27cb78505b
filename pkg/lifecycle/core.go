package lifecycle

import (
	"os"
	"sync"

	"github.com/genivi/pclient/pkg/pclerror"
)

// InitFunc runs the real one-time setup on the 0→1 init transition:
// registering with the logging context, loading plugins, starting the
// event loop, reading the backup blacklist, opening the sync descriptor —
// whatever the caller's wiring needs done exactly once per process.
type InitFunc func(appID string) error

// DeinitFunc runs the real one-time teardown on the 1→0 deinit transition.
type DeinitFunc func() error

// Core is the process-wide init/deinit reference counter. Only the first
// Init call and the Init-balancing last Deinit call run the supplied
// hooks; every call in between is a no-op refcount bump.
type Core struct {
	onInit   InitFunc
	onDeinit DeinitFunc

	checkTrusted bool

	mu      sync.Mutex
	count   int
	rctPath string
}

// NewCore builds a Core. When checkTrusted is set, Init records the RCT
// path it's given and CheckTrusted verifies it still exists before
// honoring further calls — a coarse admission filter, not a security
// boundary.
func NewCore(checkTrusted bool, onInit InitFunc, onDeinit DeinitFunc) *Core {
	return &Core{checkTrusted: checkTrusted, onInit: onInit, onDeinit: onDeinit}
}

// Init increments the counter and runs onInit only on the 0→1 transition.
func (c *Core) Init(appID, rctPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.count++
	if c.count != 1 {
		return nil
	}
	c.rctPath = rctPath
	if c.onInit == nil {
		return nil
	}
	if err := c.onInit(appID); err != nil {
		c.count = 0
		return err
	}
	return nil
}

// Deinit decrements the counter and runs onDeinit only on the 1→0
// transition. Calling Deinit when the counter is already zero returns
// not-initialized.
func (c *Core) Deinit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == 0 {
		return pclerror.New(pclerror.CodeNotInitialized)
	}
	c.count--
	if c.count != 0 {
		return nil
	}
	if c.onDeinit == nil {
		return nil
	}
	return c.onDeinit()
}

// RefCount reports the current init counter, for diagnostics.
func (c *Core) RefCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// CheckTrusted verifies the recorded RCT path still exists, when the
// trusted-application check was enabled at NewCore. A process never
// initialized, or initialized without the check, always passes.
func (c *Core) CheckTrusted() error {
	c.mu.Lock()
	rctPath, enabled := c.rctPath, c.checkTrusted
	c.mu.Unlock()

	if !enabled {
		return nil
	}
	if _, err := os.Stat(rctPath); err != nil {
		return pclerror.New(pclerror.CodeShutdownNoTrusted)
	}
	return nil
}
