package memory

import (
	"context"
	"sync"
	"time"

	"field-data-be/internal/entity"
	"field-data-be/internal/repository/contract"
)

// ProjectRepository starts with the default project present and active.
type ProjectRepository struct {
	mu       sync.RWMutex
	projects []entity.Project
	activeId string
}

func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{
		projects: []entity.Project{{
			Id:        entity.DefaultProjectId,
			Name:      entity.DefaultProjectName,
			CreatedAt: time.Now(),
		}},
		activeId: entity.DefaultProjectId,
	}
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects = append(r.projects, *project)
	return nil
}

func (r *ProjectRepository) FindAll(ctx context.Context) ([]*entity.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Project, 0, len(r.projects))
	for i := range r.projects {
		p := r.projects[i]
		out = append(out, &p)
	}
	return out, nil
}

func (r *ProjectRepository) FindOne(ctx context.Context, id string) (*entity.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.find(id)
}

func (r *ProjectRepository) find(id string) (*entity.Project, error) {
	for i := range r.projects {
		if r.projects[i].Id == id {
			p := r.projects[i]
			return &p, nil
		}
	}
	return nil, contract.ErrProjectNotFound
}

func (r *ProjectRepository) SetActive(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.find(id); err != nil {
		return err
	}
	r.activeId = id
	return nil
}

func (r *ProjectRepository) Active(ctx context.Context) (*entity.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.find(r.activeId)
}
