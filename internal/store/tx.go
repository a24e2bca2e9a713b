package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Tx is a scoped transaction bracket. Statements issued through a Tx are
// applied atomically and in issue order once Commit succeeds.
type Tx struct {
	tx *sql.Tx
}

// Begin opens a transaction bracket.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Exec runs one statement inside the bracket.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (RowSet, error) {
	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return RowSet{}, fmt.Errorf("exec in tx: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return RowSet{}, fmt.Errorf("rows affected: %w", err)
	}

	return RowSet{RowsAffected: affected}, nil
}

// Query runs one query statement inside the bracket.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (RowSet, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return RowSet{}, err
	}
	defer rows.Close()

	return collectRows(rows)
}

// Commit applies every statement issued since Begin.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rollback discards every statement issued since Begin.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// WithTx runs fn inside a transaction bracket. On error the bracket is
// rolled back and the error returned; a rollback failure is a fatal
// condition and is surfaced joined with the original error, never
// swallowed.
func (s *Store) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}

	return tx.Commit()
}
