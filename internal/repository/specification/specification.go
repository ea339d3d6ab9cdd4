package specification

import "field-data-be/internal/entity"

// Specification selects field records.
type Specification interface {
	IsSatisfiedBy(record *entity.FieldRecord) bool
}

// SatisfiesAll reports whether record matches every spec. No specs match
// everything.
func SatisfiesAll(record *entity.FieldRecord, specs ...Specification) bool {
	for _, s := range specs {
		if !s.IsSatisfiedBy(record) {
			return false
		}
	}
	return true
}
