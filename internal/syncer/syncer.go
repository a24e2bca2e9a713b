package syncer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/medisync/medisync/internal/cache"
	"github.com/medisync/medisync/internal/patient"
	"github.com/medisync/medisync/internal/store"
)

// Syncer reconciles the local cache into the store. It runs once per
// triggering write, not continuously.
//
// Conflict policy: the cache always wins on conflicting fields (last local
// write wins). The synchronizer never reads store rows to merge - it
// performs a blind push. The cache is the point of mutation; the store is
// the point of durability and query.
type Syncer struct {
	cache *cache.Cache
	store *store.Store
	log   *zap.Logger
}

// Result reports the outcome of one sync pass.
type Result struct {
	Synced  int
	Failed  int
	Removed int64
}

// New creates a synchronizer.
func New(c *cache.Cache, st *store.Store, log *zap.Logger) *Syncer {
	return &Syncer{cache: c, store: st, log: log}
}

// Sync reads the entire cache and upserts every entry into the store, then
// prunes store rows whose identifier is no longer cached, so the store's
// patient set converges to the cache's set by identifier.
//
// A single record's failure is logged and the pass continues with the next
// entry; earlier entries are not rolled back. Each record's multi-statement
// upsert is itself transactional.
func (s *Syncer) Sync(ctx context.Context) Result {
	records := s.cache.ReadAll()

	var res Result
	for _, rec := range records {
		if err := s.upsert(ctx, rec); err != nil {
			res.Failed++
			s.log.Warn("cache-to-store upsert failed",
				zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		res.Synced++
	}

	removed, err := s.prune(ctx, records)
	if err != nil {
		s.log.Warn("prune of deleted records failed", zap.Error(err))
	}
	res.Removed = removed

	return res
}

// upsert pushes one cached record: insert when the identifier is new, else
// update every mirrored column. Store-only columns stay store-managed;
// updated_at is bumped on the update arm. Child entries are replaced
// wholesale in the same transaction.
func (s *Syncer) upsert(ctx context.Context, rec patient.Record) error {
	rec = patient.Normalize(rec)

	return s.store.WithTx(ctx, func(tx *store.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO patients
			(id, first_name, last_name, dob, gender, email, phone, address)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				first_name = excluded.first_name,
				last_name  = excluded.last_name,
				dob        = excluded.dob,
				gender     = excluded.gender,
				email      = excluded.email,
				phone      = excluded.phone,
				address    = excluded.address,
				updated_at = CURRENT_TIMESTAMP
		`,
			rec.ID, rec.FirstName, rec.LastName, rec.DateOfBirth,
			rec.Gender, rec.Email, rec.PhoneNumber, rec.Address,
		)
		if err != nil {
			return fmt.Errorf("upsert patient %s: %w", rec.ID, err)
		}

		for _, table := range []string{"medical_history", "allergies"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE patient_id = ?", rec.ID); err != nil {
				return fmt.Errorf("clear %s for %s: %w", table, rec.ID, err)
			}
		}

		for _, h := range rec.MedicalHistory {
			_, err := tx.Exec(ctx, `
				INSERT INTO medical_history (patient_id, condition, diagnosis_date, notes)
				VALUES (?, ?, ?, ?)
			`, rec.ID, h.Condition, h.DiagnosisDate, h.Notes)
			if err != nil {
				return fmt.Errorf("push medical history for %s: %w", rec.ID, err)
			}
		}
		for _, a := range rec.Allergies {
			_, err := tx.Exec(ctx, `
				INSERT INTO allergies (patient_id, allergen, severity, notes)
				VALUES (?, ?, ?, ?)
			`, rec.ID, a.Allergen, a.Severity, a.Notes)
			if err != nil {
				return fmt.Errorf("push allergy for %s: %w", rec.ID, err)
			}
		}

		return nil
	})
}

// prune deletes store patients absent from the cache. Children cascade.
// An empty cache deletes every row: the cache is the point of mutation, so
// a record missing from it has been deleted locally.
func (s *Syncer) prune(ctx context.Context, records []patient.Record) (int64, error) {
	if len(records) == 0 {
		rs, err := s.store.Exec(ctx, "DELETE FROM patients")
		if err != nil {
			return 0, fmt.Errorf("prune all: %w", err)
		}
		return rs.RowsAffected, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(records)), ",")
	args := make([]any, len(records))
	for i, rec := range records {
		args[i] = rec.ID
	}

	rs, err := s.store.Exec(ctx,
		"DELETE FROM patients WHERE id NOT IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	return rs.RowsAffected, nil
}
