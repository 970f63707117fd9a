// Package pipeline implements the resumable extraction core.
//
// A run day owns a bounded set of object keys under its date prefix.
// The checkpoint resolver inspects which keys already exist and returns
// the set of stages still due, so a partially failed day resumes where
// it left off instead of re-extracting everything. Stages execute
// sequentially with a mandatory pause between upstream calls; every
// write targets a deterministic key, making retries overwrite-idempotent.
package pipeline
