// Package journal persists import runs and their per-row outcomes in a
// SQLite database under the state directory, and provides the run lock that
// keeps two imports from touching the same CMS concurrently.
//
// The journal is append-only: each Receive call is recorded once, with the
// outcomes in row order, so operators can review what a run did without
// re-reading the logs.
package journal
