// Package cms models the remote content store: its items, the predicate
// language used to search for them, the Store interface the reconciliation
// engine depends on, and an HTTP/JSON Client implementing it.
//
// Client errors carry the services markers (ErrTimeout, ErrAuthorization,
// ErrCommunication, ErrNotFound) so callers can classify failures with
// errors.Is without inspecting status codes.
package cms
