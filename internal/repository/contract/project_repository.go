package contract

import (
	"context"
	"errors"

	"field-data-be/internal/entity"
)

var ErrProjectNotFound = errors.New("project not found")

type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	FindAll(ctx context.Context) ([]*entity.Project, error)
	FindOne(ctx context.Context, id string) (*entity.Project, error)
	SetActive(ctx context.Context, id string) error
	Active(ctx context.Context) (*entity.Project, error)
}
