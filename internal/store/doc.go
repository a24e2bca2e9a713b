// Package store provides the SQLite-backed durable store for patient data.
//
// The store exclusively owns durable state: the local cache is a disposable
// projection that is pushed into the store by the synchronizer, never the
// other way around.
//
// # Contract
//
//   - Open is driven by a Config selecting exactly one backing mode per
//     process lifetime: in-memory, durable file, or raw DSN.
//   - Exec/Query run one statement and return a uniform RowSet (affected
//     rows for DDL/DML, column-ordered result rows for queries).
//   - Begin/Commit/Rollback bracket multi-statement sequences. Statements
//     inside a bracket apply atomically and in issue order; a rollback
//     failure is surfaced, never silent.
//   - Manager serializes handle acquisition: repeated Open calls return the
//     existing handle without reinitializing.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: cascade deletes from patients to child tables
//
// No application-level lock is added beyond the Manager guard: two
// concurrent multi-statement sequences on the same entity can interleave at
// SQLite's default isolation level.
package store
