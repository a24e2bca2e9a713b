// Package syncer pushes the local cache into the store after every
// cache-mutating write.
//
// The push is blind and last-writer-wins: no ordering or versioning
// metadata exists to merge with, so the cache's values overwrite the
// store's on every mirrored column. A per-record failure does not abort the
// pass and earlier records stay applied.
package syncer
