package metrics

import "time"

// Source is the subset of subsystem state the collector polls. A caller
// wires its own handle tables, access lock, and plugin gateway into a
// Source rather than the collector depending on those package types
// directly, so this package stays importable from anything, including
// the subsystems themselves.
type Source struct {
	FileHandles     func() int
	KeyHandles      func() int
	OpenPathHandles func() int
	AccessLocked    func() bool
	InitRefCount    func() int
	PluginSlots     func() int
	LoopQueueDepth  func() int
}

// Collector periodically samples a Source into the package-level gauges.
type Collector struct {
	src    Source
	stopCh chan struct{}
}

// NewCollector builds a collector over src.
func NewCollector(src Source) *Collector {
	return &Collector{src: src, stopCh: make(chan struct{})}
}

// Start begins sampling every interval until Stop is called.
func (c *Collector) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop ends the sampling goroutine.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.src.FileHandles != nil {
		HandlesOpen.WithLabelValues("file").Set(float64(c.src.FileHandles()))
	}
	if c.src.KeyHandles != nil {
		HandlesOpen.WithLabelValues("key").Set(float64(c.src.KeyHandles()))
	}
	if c.src.OpenPathHandles != nil {
		HandlesOpen.WithLabelValues("open_path").Set(float64(c.src.OpenPathHandles()))
	}
	if c.src.AccessLocked != nil {
		if c.src.AccessLocked() {
			AccessLocked.Set(1)
		} else {
			AccessLocked.Set(0)
		}
	}
	if c.src.InitRefCount != nil {
		InitRefCount.Set(float64(c.src.InitRefCount()))
	}
	if c.src.PluginSlots != nil {
		PluginSlotsLoaded.Set(float64(c.src.PluginSlots()))
	}
	if c.src.LoopQueueDepth != nil {
		LoopCommandQueueDepth.Set(float64(c.src.LoopQueueDepth()))
	}
}
