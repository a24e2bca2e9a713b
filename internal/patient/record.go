package patient

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Record is the denormalized patient record exchanged between the UI, the
// local cache, and the store.
//
// The canonical identifier is a string: the decimal millisecond Unix
// timestamp assigned at creation. The cache-to-store mapping is identity
// (patients.id is TEXT).
type Record struct {
	ID             string         `json:"id" yaml:"id"`
	FirstName      string         `json:"firstName" yaml:"firstName" validate:"required"`
	LastName       string         `json:"lastName" yaml:"lastName" validate:"required"`
	DateOfBirth    string         `json:"dateOfBirth" yaml:"dateOfBirth" validate:"required"`
	Gender         string         `json:"gender,omitempty" yaml:"gender,omitempty"`
	Email          string         `json:"email,omitempty" yaml:"email,omitempty" validate:"omitempty,email"`
	PhoneNumber    string         `json:"phoneNumber,omitempty" yaml:"phoneNumber,omitempty"`
	Address        string         `json:"address,omitempty" yaml:"address,omitempty"`
	MedicalHistory []HistoryEntry `json:"medicalHistory,omitempty" yaml:"medicalHistory,omitempty" validate:"dive"`
	Allergies      []AllergyEntry `json:"allergies,omitempty" yaml:"allergies,omitempty" validate:"dive"`
}

// HistoryEntry is one medical-history item owned by exactly one patient.
type HistoryEntry struct {
	Condition     string `json:"condition" yaml:"condition" validate:"required"`
	DiagnosisDate string `json:"diagnosisDate,omitempty" yaml:"diagnosisDate,omitempty"`
	Notes         string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// AllergyEntry is one allergy item owned by exactly one patient.
type AllergyEntry struct {
	Allergen string `json:"allergen" yaml:"allergen" validate:"required"`
	Severity string `json:"severity,omitempty" yaml:"severity,omitempty"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewID returns a fresh canonical identifier: the current millisecond Unix
// timestamp in decimal. Two records created in the same millisecond get a
// uuid-suffixed identifier, which still sorts and compares as a plain
// string.
func NewID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// NewCollisionFreeID returns a timestamp identifier with a uuid suffix.
// Used when a plain NewID collides with an existing record.
func NewCollisionFreeID() string {
	return NewID() + "-" + uuid.NewString()
}

// Normalize returns a copy with name and address fields folded to Unicode
// NFC, so that equal-looking names compare equal in store queries.
func Normalize(rec Record) Record {
	rec.FirstName = norm.NFC.String(rec.FirstName)
	rec.LastName = norm.NFC.String(rec.LastName)
	rec.Address = norm.NFC.String(rec.Address)
	return rec
}
