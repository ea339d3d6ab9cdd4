package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"field-data-be/internal/entity"
	"field-data-be/internal/repository/contract"
	"field-data-be/internal/repository/specification"
	"field-data-be/pkg/capture"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, project string, content entity.Content) *entity.FieldRecord {
	return &entity.FieldRecord{
		Id:        id,
		Timestamp: "2024-01-01T10:00:00.000Z",
		Content:   content,
		ProjectId: project,
	}
}

func ids(records []*entity.FieldRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Id)
	}
	return out
}

func TestFieldRecordRepositoryFilterKeepsOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewFieldRecordRepository()

	require.NoError(t, repo.Add(ctx, rec("1", "default", entity.NoteContent{Text: "a"})))
	require.NoError(t, repo.Add(ctx, rec("2", "trench", entity.NoteContent{Text: "b"})))
	require.NoError(t, repo.Add(ctx, rec("3", "default", entity.PhotoContent{DataURI: "data:,"})))
	require.NoError(t, repo.Add(ctx, rec("4", "default", entity.NoteContent{Text: "c"})))

	got, err := repo.FindAll(ctx, specification.ByProjectID{ProjectID: "default"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "4"}, ids(got))

	got, err = repo.FindAll(ctx, specification.ByProjectID{ProjectID: "default"}, specification.ByKind{Kind: entity.RecordKindNote})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "4"}, ids(got))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	got, err = repo.FindAll(ctx, specification.ByProjectID{ProjectID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFieldRecordRepositoryDeleteFirstMatchOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewFieldRecordRepository()

	require.NoError(t, repo.Add(ctx, rec("dup", "default", entity.NoteContent{Text: "first"})))
	require.NoError(t, repo.Add(ctx, rec("other", "default", entity.NoteContent{Text: "x"})))
	require.NoError(t, repo.Add(ctx, rec("dup", "default", entity.NoteContent{Text: "second"})))

	require.NoError(t, repo.Delete(ctx, "dup"))
	got, _ := repo.FindAll(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "other", got[0].Id)
	assert.Equal(t, entity.NoteContent{Text: "second"}, got[1].Content)

	require.NoError(t, repo.Delete(ctx, "absent"))
	n, _ := repo.Count(ctx)
	assert.EqualValues(t, 2, n)

	require.NoError(t, repo.Clear(ctx))
	n, _ = repo.Count(ctx)
	assert.Zero(t, n)

	_, err := repo.FindOne(ctx, specification.ByID{ID: "other"})
	assert.ErrorIs(t, err, contract.ErrRecordNotFound)
}

func TestFieldRecordRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewFieldRecordRepository()
	require.NoError(t, repo.Add(ctx, rec("1", "default", entity.NoteContent{Text: "a"})))

	got, err := repo.FindOne(ctx, specification.ByID{ID: "1"})
	require.NoError(t, err)
	got.ProjectId = "changed"

	again, _ := repo.FindOne(ctx, specification.ByID{ID: "1"})
	assert.Equal(t, "default", again.ProjectId)
}

func TestFieldRecordRepositoryConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	repo := NewFieldRecordRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Add(ctx, rec("x", "default", entity.NoteContent{Text: "n"}))
		}()
	}
	wg.Wait()

	n, _ := repo.Count(ctx)
	assert.EqualValues(t, 50, n)
}

func TestProjectRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository()

	active, err := repo.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultProjectId, active.Id)
	assert.Equal(t, entity.DefaultProjectName, active.Name)

	trench := &entity.Project{Id: "p-1", Name: "Trench 3", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, trench))
	require.NoError(t, repo.SetActive(ctx, "p-1"))

	active, _ = repo.Active(ctx)
	assert.Equal(t, "Trench 3", active.Name)

	all, _ := repo.FindAll(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, entity.DefaultProjectName, all[0].Name)

	assert.ErrorIs(t, repo.SetActive(ctx, "nope"), contract.ErrProjectNotFound)
	active, _ = repo.Active(ctx)
	assert.Equal(t, "p-1", active.Id, "failed switch keeps the active project")
}

type nopDevices struct{}

func (nopDevices) Acquire(ctx context.Context, _ string, _ capture.Constraints) (capture.Stream, error) {
	return nil, capture.ErrPermissionDenied
}

func TestCaptureSessionRepositoryClosesOnDelete(t *testing.T) {
	var evicted []string
	repo := NewCaptureSessionRepository(time.Minute, time.Minute, func(id string) {
		evicted = append(evicted, id)
	})

	s, err := capture.NewSession("s-1", capture.KindPhoto, nopDevices{}, capture.Options{})
	require.NoError(t, err)
	repo.Save(s)

	got, ok := repo.Get("s-1")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, repo.Count())

	repo.Delete("s-1")
	assert.Equal(t, capture.StateCancelled, s.State())
	assert.Equal(t, []string{"s-1"}, evicted)

	_, ok = repo.Get("s-1")
	assert.False(t, ok)
}

func TestCaptureSessionRepositoryExpires(t *testing.T) {
	done := make(chan string, 1)
	repo := NewCaptureSessionRepository(20*time.Millisecond, 10*time.Millisecond, func(id string) {
		done <- id
	})

	s, err := capture.NewSession("s-2", capture.KindAudio, nopDevices{}, capture.Options{})
	require.NoError(t, err)
	repo.Save(s)

	select {
	case id := <-done:
		assert.Equal(t, "s-2", id)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not expire")
	}
	assert.Equal(t, capture.StateCancelled, s.State())
}
