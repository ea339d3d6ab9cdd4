package contract

import (
	"context"
	"errors"

	"field-data-be/internal/entity"
	"field-data-be/internal/repository/specification"
)

var ErrRecordNotFound = errors.New("field record not found")

// FieldRecordRepository is append-only apart from deletion. Records are
// never updated in place.
type FieldRecordRepository interface {
	Add(ctx context.Context, record *entity.FieldRecord) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FieldRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FieldRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
