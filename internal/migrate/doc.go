// Package migrate applies ordered schema migrations to the store exactly
// once.
//
// Migrations are SQL files named so lexicographic order is application
// order (NNNN_description.sql). A file body may be split into ordered
// sub-statements by the literal marker "--> statement-breakpoint";
// sub-statements execute strictly in file order inside the same
// transaction.
//
// Applied migrations are recorded in the migrations ledger table by name.
// A name appears in the ledger at most once; migrations are never reordered
// or skipped. Any statement failure rolls back that migration entirely and
// aborts the run - a fatal startup condition surfaced to the caller, not
// retried.
package migrate
