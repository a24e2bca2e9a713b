package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/medisync/medisync/internal/apperr"
	"github.com/medisync/medisync/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Breakpoint separates ordered sub-statements within one migration file.
// Sub-statements execute strictly in file order inside the same transaction.
const Breakpoint = "--> statement-breakpoint"

const ledgerDDL = `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		executed_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)
`

// Runner applies ordered migration files to the store exactly once, tracked
// via the migrations ledger table.
type Runner struct {
	store *store.Store
	files fs.FS
	log   *zap.Logger
}

// NewRunner creates a runner over the embedded migration files.
func NewRunner(st *store.Store, log *zap.Logger) *Runner {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(fmt.Sprintf("migrations subtree missing: %v", err))
	}
	return NewRunnerFS(st, sub, log)
}

// NewRunnerFS creates a runner over an arbitrary migration file tree.
// Used by tests to inject fixture migrations.
func NewRunnerFS(st *store.Store, files fs.FS, log *zap.Logger) *Runner {
	return &Runner{store: st, files: files, log: log}
}

// Run ensures the ledger exists and applies every unapplied migration in
// lexicographic filename order. Each migration executes atomically: its
// sub-statements and the ledger insert commit together, and any statement
// failure rolls back the whole migration and aborts the run. Returns the
// names applied during this run.
//
// Running twice in a row applies zero migrations on the second run.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	if _, err := r.store.Exec(ctx, ledgerDDL); err != nil {
		return nil, apperr.Wrap(apperr.CodeMigrationFailed, "ensure ledger table", err)
	}

	applied, err := r.appliedSet(ctx)
	if err != nil {
		return nil, err
	}

	names, err := r.listMigrations()
	if err != nil {
		return nil, err
	}

	ran := []string{}
	for _, name := range names {
		if applied[name] {
			continue
		}

		r.log.Info("applying migration", zap.String("name", name))
		if err := r.apply(ctx, name); err != nil {
			// Abort the whole run: later migrations may depend on this one.
			return ran, err
		}
		ran = append(ran, name)
	}

	return ran, nil
}

// appliedSet reads the ledger's set of already-applied migration names.
func (r *Runner) appliedSet(ctx context.Context) (map[string]bool, error) {
	rs, err := r.store.Query(ctx, "SELECT name FROM migrations")
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeMigrationFailed, "read ledger", err)
	}

	applied := make(map[string]bool, len(rs.Rows))
	for _, row := range rs.Rows {
		name, ok := row[0].(string)
		if !ok {
			return nil, apperr.New(apperr.CodeMigrationFailed, fmt.Sprintf("ledger name has unexpected type %T", row[0]))
		}
		applied[name] = true
	}
	return applied, nil
}

// listMigrations returns candidate migration filenames in deterministic
// (lexicographic) order.
func (r *Runner) listMigrations() ([]string, error) {
	entries, err := fs.ReadDir(r.files, ".")
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeMigrationFailed, "list migration files", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// apply executes one migration file inside a single transaction and records
// it in the ledger.
func (r *Runner) apply(ctx context.Context, name string) error {
	body, err := fs.ReadFile(r.files, name)
	if err != nil {
		return apperr.Wrap(apperr.CodeMigrationFailed, fmt.Sprintf("read migration %s", name), err)
	}

	statements := SplitStatements(string(body))
	if len(statements) == 0 {
		return apperr.New(apperr.CodeMigrationFailed, fmt.Sprintf("migration %s has no statements", name))
	}

	err = r.store.WithTx(ctx, func(tx *store.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("statement %d of %d: %w", i+1, len(statements), err)
			}
		}
		_, err := tx.Exec(ctx, "INSERT INTO migrations (name) VALUES (?)", name)
		return err
	})
	if err != nil {
		return apperr.Wrap(apperr.CodeMigrationFailed, fmt.Sprintf("migration %s", name), err)
	}

	return nil
}

// SplitStatements splits a migration body on the breakpoint marker,
// trimming whitespace and dropping empty fragments.
func SplitStatements(body string) []string {
	parts := strings.Split(body, Breakpoint)
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		stmt := strings.TrimSpace(part)
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
