package patient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/medisync/medisync/internal/store"
)

// Service is the read side over the store: full patient records (parent row
// plus child tables) for list, detail, and search views. Writes never go
// through it - the cache is the point of mutation and the synchronizer the
// only store writer, so a row written here directly would be pruned on the
// next sync pass.
type Service struct {
	store *store.Store
	log   *zap.Logger
}

// NewService creates a store-backed patient reader.
func NewService(st *store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log}
}

// GetByID returns one patient with its medical history and allergies.
// The second return value is false when no such patient exists.
func (s *Service) GetByID(ctx context.Context, id string) (Record, bool, error) {
	rs, err := s.store.Query(ctx, `
		SELECT id, first_name, last_name, dob, gender, email, phone, address
		FROM patients WHERE id = ?
	`, id)
	if err != nil {
		return Record{}, false, fmt.Errorf("query patient: %w", err)
	}
	if rs.RowCount() == 0 {
		return Record{}, false, nil
	}

	rec := scanRecord(rs.Rows[0])

	history, err := s.store.Query(ctx, `
		SELECT condition, diagnosis_date, notes
		FROM medical_history WHERE patient_id = ?
		ORDER BY diagnosis_date DESC, id ASC
	`, id)
	if err != nil {
		return Record{}, false, fmt.Errorf("query medical history: %w", err)
	}
	for _, row := range history.Rows {
		rec.MedicalHistory = append(rec.MedicalHistory, HistoryEntry{
			Condition:     str(row[0]),
			DiagnosisDate: str(row[1]),
			Notes:         str(row[2]),
		})
	}

	allergies, err := s.store.Query(ctx, `
		SELECT allergen, severity, notes
		FROM allergies WHERE patient_id = ?
		ORDER BY allergen ASC, id ASC
	`, id)
	if err != nil {
		return Record{}, false, fmt.Errorf("query allergies: %w", err)
	}
	for _, row := range allergies.Rows {
		rec.Allergies = append(rec.Allergies, AllergyEntry{
			Allergen: str(row[0]),
			Severity: str(row[1]),
			Notes:    str(row[2]),
		})
	}

	return rec, true, nil
}

// List returns all patients ordered by last name, first name.
// Child entries are not loaded.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	rs, err := s.store.Query(ctx, `
		SELECT id, first_name, last_name, dob, gender, email, phone, address
		FROM patients
		ORDER BY last_name, first_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	records := make([]Record, 0, rs.RowCount())
	for _, row := range rs.Rows {
		records = append(records, scanRecord(row))
	}
	return records, nil
}

// Search returns patients whose name, email, phone, or address contains the
// term, case-insensitively. The term is NFC-normalized to match stored
// values.
func (s *Service) Search(ctx context.Context, term string) ([]Record, error) {
	pattern := "%" + Normalize(Record{FirstName: term}).FirstName + "%"

	rs, err := s.store.Query(ctx, `
		SELECT id, first_name, last_name, dob, gender, email, phone, address
		FROM patients
		WHERE first_name LIKE ? OR last_name LIKE ? OR email LIKE ?
		   OR phone LIKE ? OR address LIKE ?
		ORDER BY last_name, first_name
	`, pattern, pattern, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search patients: %w", err)
	}

	records := make([]Record, 0, rs.RowCount())
	for _, row := range rs.Rows {
		records = append(records, scanRecord(row))
	}
	return records, nil
}

// scanRecord builds a Record from a patients row in service column order.
func scanRecord(row []any) Record {
	return Record{
		ID:          str(row[0]),
		FirstName:   str(row[1]),
		LastName:    str(row[2]),
		DateOfBirth: str(row[3]),
		Gender:      str(row[4]),
		Email:       str(row[5]),
		PhoneNumber: str(row[6]),
		Address:     str(row[7]),
	}
}

// str converts a nullable store value to its string form.
func str(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
