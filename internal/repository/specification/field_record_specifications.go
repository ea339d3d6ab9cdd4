package specification

import "field-data-be/internal/entity"

// ByID filters by ID
type ByID struct {
	ID string
}

func (s ByID) IsSatisfiedBy(r *entity.FieldRecord) bool {
	return r.Id == s.ID
}

// ByProjectID filters by owning project
type ByProjectID struct {
	ProjectID string
}

func (s ByProjectID) IsSatisfiedBy(r *entity.FieldRecord) bool {
	return r.ProjectId == s.ProjectID
}

type ByKind struct {
	Kind entity.RecordKind
}

func (s ByKind) IsSatisfiedBy(r *entity.FieldRecord) bool {
	return r.Content != nil && r.Kind() == s.Kind
}
