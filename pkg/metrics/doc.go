// Package metrics exposes the library's Prometheus instrumentation: handle
// table occupancy, KV/backup/notify operation counts and latencies, event
// loop queue depth, and access-lock/init-refcount gauges a host process can
// scrape to watch one embedded instance of the library.
//
// # Wiring
//
// Register the scrape handler on whatever mux the host process already
// serves:
//
//	mux.Handle("/metrics", metrics.Handler())
//	mux.HandleFunc("/health", metrics.HealthHandler())
//	mux.HandleFunc("/ready", metrics.ReadyHandler())
//	mux.HandleFunc("/live", metrics.LivenessHandler())
//
// # Sampling subsystem state
//
// Gauges that reflect live subsystem state (handle counts, access-lock
// state, init refcount, plugin slots, loop queue depth) are not updated
// inline on every operation; a Collector samples a Source on an interval
// instead, the same poll-don't-push shape the file, RCT, and plugin
// tables themselves use elsewhere in this library:
//
//	c := metrics.NewCollector(metrics.Source{
//		FileHandles:  func() int { return fileTable.Len() },
//		KeyHandles:   func() int { return keyTable.Len() },
//		AccessLocked: accessLock.IsLocked,
//		InitRefCount: core.RefCount,
//	})
//	c.Start(15 * time.Second)
//	defer c.Stop()
//
// # Counting and timing operations inline
//
// Counters and histograms that correspond to a discrete event (a KV
// operation, a backup sidecar creation, a notify emit, a loop command) are
// updated at the call site instead:
//
//	timer := metrics.NewTimer()
//	err := access.Write(key, value)
//	metrics.KVOperationsTotal.WithLabelValues("write", "local").Inc()
//	timer.ObserveDurationVec(metrics.KVOperationDuration, "write")
//
// # Health components
//
// RegisterComponent/UpdateComponent mark a named subsystem healthy or not;
// GetHealth aggregates every registered component, and GetReadiness checks
// a fixed set the process considers load-bearing (loop, kv, rct) before
// reporting ready:
//
//	metrics.RegisterComponent("loop", true, "")
//	metrics.RegisterComponent("kv", true, "")
//	metrics.RegisterComponent("rct", true, "")
package metrics
