package memory

import (
	"context"
	"sync"

	"field-data-be/internal/entity"
	"field-data-be/internal/repository/contract"
	"field-data-be/internal/repository/specification"
)

// FieldRecordRepository keeps records in insertion order. Each mutation is a
// single critical section, so concurrent calls apply in the order they take
// the lock.
type FieldRecordRepository struct {
	mu      sync.RWMutex
	records []entity.FieldRecord
}

func NewFieldRecordRepository() *FieldRecordRepository {
	return &FieldRecordRepository{}
}

func (r *FieldRecordRepository) Add(ctx context.Context, record *entity.FieldRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

// Delete removes the first record with id. Unknown ids are ignored.
func (r *FieldRecordRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].Id == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *FieldRecordRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	return nil
}

func (r *FieldRecordRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FieldRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.records {
		if specification.SatisfiesAll(&r.records[i], specs...) {
			rec := r.records[i]
			return &rec, nil
		}
	}
	return nil, contract.ErrRecordNotFound
}

func (r *FieldRecordRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FieldRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.FieldRecord, 0, len(r.records))
	for i := range r.records {
		if specification.SatisfiesAll(&r.records[i], specs...) {
			rec := r.records[i]
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (r *FieldRecordRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for i := range r.records {
		if specification.SatisfiesAll(&r.records[i], specs...) {
			n++
		}
	}
	return n, nil
}
