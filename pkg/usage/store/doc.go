// Package store provides the usage ledger's storage backends.
//
// Two implementations of usage.Store are available:
//
//   - Memory: a bounded in-process buffer. Used by tests and by runs
//     that do not need the ledger to survive the process.
//   - SQLite: an embedded database (modernc.org/sqlite, no cgo) in WAL
//     mode with prepared statements. The default for persistent runs.
//
// Both are safe for concurrent use.
package store
