package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"field-data-be/internal/dto"
	"field-data-be/internal/entity"
	"field-data-be/internal/mapper"
	"field-data-be/internal/repository/contract"
	"field-data-be/pkg/events"

	"github.com/google/uuid"
)

type IProjectService interface {
	List(ctx context.Context) (*dto.ProjectListResponse, error)
	Create(ctx context.Context, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error)
	SetActive(ctx context.Context, id string) (*dto.ProjectResponse, error)
	Active(ctx context.Context) (*dto.ProjectResponse, error)
}

type projectService struct {
	repo      contract.ProjectRepository
	publisher IPublisherService
	mapper    *mapper.ProjectMapper
}

func NewProjectService(repo contract.ProjectRepository, publisher IPublisherService) IProjectService {
	return &projectService{
		repo:      repo,
		publisher: publisher,
		mapper:    mapper.NewProjectMapper(),
	}
}

func (s *projectService) List(ctx context.Context) (*dto.ProjectListResponse, error) {
	projects, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ProjectListResponse{
		Projects: s.mapper.ToResponses(projects),
		ActiveId: active.Id,
	}, nil
}

// Create adds a project and makes it the active one. Names are not unique.
func (s *projectService) Create(ctx context.Context, req *dto.CreateProjectRequest) (*dto.ProjectResponse, error) {
	project := &entity.Project{
		Id:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: time.Now(),
	}
	if project.Name == "" {
		return nil, ErrBlankProjectName
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, project.Id); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.New(events.ProjectCreated, map[string]interface{}{
		"id":   project.Id,
		"name": project.Name,
	}))
	return s.mapper.ToResponse(project), nil
}

func (s *projectService) SetActive(ctx context.Context, id string) (*dto.ProjectResponse, error) {
	if err := s.repo.SetActive(ctx, id); err != nil {
		return nil, fmt.Errorf("activate project %s: %w", id, err)
	}
	project, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.New(events.ProjectActivated, map[string]interface{}{"id": project.Id}))
	return s.mapper.ToResponse(project), nil
}

func (s *projectService) Active(ctx context.Context) (*dto.ProjectResponse, error) {
	project, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToResponse(project), nil
}
