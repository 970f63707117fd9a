// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Upstream API call counts and outcomes
//   - Object-store operation counts
//   - Rows upserted into the relational sink
//   - Per-stage durations and run outcomes
package metrics
