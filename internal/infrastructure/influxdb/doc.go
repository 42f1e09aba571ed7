// Package influxdb provides InfluxDB connectivity for Lumina Core.
//
// It wraps the official influxdb-client-go v2 library with Lumina-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package is the analytics sink for the autopilot: feedback events,
// auto-apply outcomes, and schedule regeneration stats. Writes are
// fire-and-forget — the write API batches points and flushes them on a
// background goroutine, so a slow or failed analytics write never blocks
// the scheduling critical path.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteFeedback("user-abc", "gameDay", "accepted")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are surfaced via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
