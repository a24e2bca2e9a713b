// Package cache is the local key-value mirror of the patient record set.
//
// All operations are synchronous. The cache's lifecycle is independent from
// the store's rows: it may transiently diverge (before a sync pass
// completes) but converges after synchronization. It is not expected to
// survive a full data wipe and is rebuilt as empty when its snapshot is
// missing.
package cache
