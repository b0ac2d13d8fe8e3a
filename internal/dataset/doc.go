// Package dataset defines the typed row and batch model consumed by the
// reconciliation engine and the CSV reader that produces it.
//
// Rows are immutable once constructed: values are copied in and only exposed
// through read-only accessors, so groups running concurrently can share them
// without locking.
package dataset
