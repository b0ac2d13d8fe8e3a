// Package reconcile is the import engine: it validates a batch against a
// destination variant's schema, collapses duplicate rows, looks up which rows
// already exist in the remote store, and fans the remaining work out in
// bounded groups that create or update items one row at a time.
//
// Batch-level problems (schema mismatch, empty batch, failed existence
// search) abort Receive before any write. Everything after that is scoped to
// a single row: retries, skips, and failures are logged and reported in the
// returned Report but never stop sibling rows.
package reconcile
