package mapper

import (
	"field-data-be/internal/dto"
	"field-data-be/internal/entity"

	"github.com/jinzhu/copier"
)

type ProjectMapper struct{}

func NewProjectMapper() *ProjectMapper {
	return &ProjectMapper{}
}

func (m *ProjectMapper) ToResponse(p *entity.Project) *dto.ProjectResponse {
	if p == nil {
		return nil
	}
	var res dto.ProjectResponse
	// copier only fails on non-struct input
	_ = copier.Copy(&res, p)
	return &res
}

func (m *ProjectMapper) ToResponses(projects []*entity.Project) []*dto.ProjectResponse {
	out := make([]*dto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, m.ToResponse(p))
	}
	return out
}
