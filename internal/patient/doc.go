// Package patient holds the patient domain model and the store-backed
// read service behind the list, detail, and search surfaces.
//
// A persisted record always has a first name, last name, and date of birth;
// its identifier is unique within the store. Medical history and allergy
// entries are owned by exactly one patient and are removed with it.
package patient
