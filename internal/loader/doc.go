// Package loader aggregates a day's stored JSON artifacts into the
// relational sink.
//
// WideRow merges the day's artifacts into one denormalized row keyed by
// date; Lookup normalizes business-info records into a fixed-schema
// table keyed by symbol. Both are idempotent: re-running against
// unchanged artifacts produces identical rows, and the partial upsert
// never resets a previously populated column to null.
package loader
