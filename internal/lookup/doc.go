// Package lookup memoizes path to identifier resolution for folders and
// taxonomy nodes.
//
// A path the store reports as missing is cached as NotFound (-1) so repeated
// rows do not hit the remote again. Remote errors are logged and yield
// NotFound for that call only. Entries are never invalidated; callers that
// need fresh data construct a new cache or call Reset.
package lookup
