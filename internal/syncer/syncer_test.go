package syncer

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/medisync/medisync/internal/cache"
	"github.com/medisync/medisync/internal/migrate"
	"github.com/medisync/medisync/internal/patient"
	"github.com/medisync/medisync/internal/store"
)

func newFixture(t *testing.T) (*Syncer, *cache.Cache, *store.Store) {
	t.Helper()

	st, err := store.Open(store.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = migrate.NewRunner(st, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	c, err := cache.Open(filepath.Join(t.TempDir(), "patients.json"), zap.NewNop())
	require.NoError(t, err)

	return New(c, st, zap.NewNop()), c, st
}

func rec(id, first, last string) patient.Record {
	return patient.Record{ID: id, FirstName: first, LastName: last, DateOfBirth: "2000-01-01"}
}

func storeIDs(t *testing.T, st *store.Store) []string {
	t.Helper()
	rs, err := st.Query(context.Background(), "SELECT id FROM patients ORDER BY id")
	require.NoError(t, err)
	ids := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		ids = append(ids, row[0].(string))
	}
	return ids
}

func TestSync_PushesCacheIntoStore(t *testing.T) {
	s, c, st := newFixture(t)

	require.NoError(t, c.Upsert(rec("1", "Ada", "Lovelace")))
	require.NoError(t, c.Upsert(rec("2", "Grace", "Hopper")))

	res := s.Sync(context.Background())
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, []string{"1", "2"}, storeIDs(t, st))
}

func TestSync_ConvergenceAfterUpsertsAndDeletes(t *testing.T) {
	s, c, st := newFixture(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(rec("1", "Ada", "Lovelace")))
	require.NoError(t, c.Upsert(rec("2", "Grace", "Hopper")))
	require.NoError(t, c.Upsert(rec("3", "Edith", "Clarke")))
	s.Sync(ctx)

	require.NoError(t, c.Delete("2"))
	require.NoError(t, c.Upsert(rec("4", "Hedy", "Lamarr")))
	res := s.Sync(ctx)

	assert.Equal(t, int64(1), res.Removed)
	assert.Equal(t, []string{"1", "3", "4"}, storeIDs(t, st))
}

func TestSync_CacheWinsOverStore(t *testing.T) {
	s, c, st := newFixture(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(rec("1", "Ada", "Lovelace")))
	s.Sync(ctx)

	// Divergent store-side edit loses to the next blind push.
	_, err := st.Exec(ctx, "UPDATE patients SET first_name = 'Edited' WHERE id = '1'")
	require.NoError(t, err)

	require.NoError(t, c.Upsert(rec("1", "Augusta", "Lovelace")))
	s.Sync(ctx)

	rs, err := st.Query(ctx, "SELECT first_name FROM patients WHERE id = '1'")
	require.NoError(t, err)
	assert.Equal(t, "Augusta", rs.Rows[0][0])
}

func TestSync_PartialFailureContinues(t *testing.T) {
	s, c, st := newFixture(t)

	// Empty first name violates the patients CHECK constraint.
	bad := patient.Record{ID: "2", FirstName: "", LastName: "Broken", DateOfBirth: "2000-01-01"}
	require.NoError(t, c.Upsert(rec("1", "Ada", "Lovelace")))
	require.NoError(t, c.Upsert(bad))
	require.NoError(t, c.Upsert(rec("3", "Grace", "Hopper")))

	res := s.Sync(context.Background())
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"1", "3"}, storeIDs(t, st))
}

func TestSync_RoundTripRowMatchesRecord(t *testing.T) {
	s, c, st := newFixture(t)

	saved := patient.Record{
		ID:          "1700000000000",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		DateOfBirth: "1815-12-10",
		PhoneNumber: "555-0100",
	}
	require.NoError(t, c.Upsert(saved))
	s.Sync(context.Background())

	rs, err := st.Query(context.Background(),
		"SELECT first_name, last_name, dob, phone FROM patients WHERE id = '1700000000000'")
	require.NoError(t, err)
	require.Equal(t, 1, rs.RowCount())
	assert.Equal(t, []any{"Ada", "Lovelace", "1815-12-10", "555-0100"}, rs.Rows[0])
}

func TestSync_PushesChildEntries(t *testing.T) {
	s, c, st := newFixture(t)
	ctx := context.Background()

	full := rec("1", "Ada", "Lovelace")
	full.MedicalHistory = []patient.HistoryEntry{{Condition: "Migraine"}, {Condition: "Anaemia"}}
	full.Allergies = []patient.AllergyEntry{{Allergen: "Penicillin"}}
	require.NoError(t, c.Upsert(full))
	s.Sync(ctx)

	// Re-push replaces children instead of duplicating them.
	s.Sync(ctx)

	rs, err := st.Query(ctx, "SELECT COUNT(*) FROM medical_history WHERE patient_id = '1'")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rs.Rows[0][0])

	rs, err = st.Query(ctx, "SELECT COUNT(*) FROM allergies WHERE patient_id = '1'")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rs.Rows[0][0])
}

func TestSync_EmptyCacheEmptiesStore(t *testing.T) {
	s, c, st := newFixture(t)
	ctx := context.Background()

	require.NoError(t, c.Upsert(rec("1", "Ada", "Lovelace")))
	s.Sync(ctx)
	require.NoError(t, c.Delete("1"))

	res := s.Sync(ctx)
	assert.Equal(t, int64(1), res.Removed)
	assert.Empty(t, storeIDs(t, st))
}
