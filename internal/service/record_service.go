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
	"field-data-be/internal/repository/specification"
	"field-data-be/pkg/capture"
	"field-data-be/pkg/events"
	"field-data-be/pkg/location"

	"github.com/google/uuid"
)

type IRecordService interface {
	List(ctx context.Context, req *dto.ListRecordsRequest) ([]*dto.RecordResponse, error)
	AddNote(ctx context.Context, req *dto.CreateNoteRequest) (*dto.RecordResponse, error)
	AddMeasurement(ctx context.Context, req *dto.CreateMeasurementRequest) (*dto.RecordResponse, error)
	// AddCapture stores a confirmed capture payload at the given location.
	AddCapture(ctx context.Context, kind capture.Kind, payload capture.Payload, at location.Position) (*dto.RecordResponse, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) (*dto.ClearRecordsResponse, error)
}

type recordService struct {
	records   contract.FieldRecordRepository
	projects  contract.ProjectRepository
	watcher   *location.Watcher
	publisher IPublisherService
	mapper    *mapper.RecordMapper
	now       func() time.Time
}

func NewRecordService(
	records contract.FieldRecordRepository,
	projects contract.ProjectRepository,
	watcher *location.Watcher,
	publisher IPublisherService,
) IRecordService {
	return &recordService{
		records:   records,
		projects:  projects,
		watcher:   watcher,
		publisher: publisher,
		mapper:    mapper.NewRecordMapper(),
		now:       time.Now,
	}
}

// List returns records of one project in insertion order. An empty project
// means the active one.
func (s *recordService) List(ctx context.Context, req *dto.ListRecordsRequest) ([]*dto.RecordResponse, error) {
	projectId := req.ProjectId
	if projectId == "" {
		active, err := s.projects.Active(ctx)
		if err != nil {
			return nil, err
		}
		projectId = active.Id
	}

	specs := []specification.Specification{specification.ByProjectID{ProjectID: projectId}}
	if req.Kind != "" {
		specs = append(specs, specification.ByKind{Kind: req.Kind})
	}

	records, err := s.records.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	return s.mapper.ToResponses(records), nil
}

func (s *recordService) AddNote(ctx context.Context, req *dto.CreateNoteRequest) (*dto.RecordResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, ErrEmptyNote
	}
	pos, ok := s.watcher.Current()
	if !ok {
		return nil, ErrMissingLocation
	}
	return s.add(ctx, entity.NoteContent{Text: req.Content}, pos, nil)
}

func (s *recordService) AddMeasurement(ctx context.Context, req *dto.CreateMeasurementRequest) (*dto.RecordResponse, error) {
	pos, ok := s.watcher.Current()
	if !ok {
		return nil, ErrMissingLocation
	}
	return s.add(ctx, entity.MeasurementContent{
		Strike:  req.Strike,
		Dip:     req.Dip,
		Comment: req.Comment,
	}, pos, nil)
}

func (s *recordService) AddCapture(ctx context.Context, kind capture.Kind, payload capture.Payload, at location.Position) (*dto.RecordResponse, error) {
	content := entity.MediaContent(entity.RecordKind(kind), payload.DataURI())
	if content == nil {
		return nil, fmt.Errorf("store capture: %w", capture.ErrUnsupportedKind)
	}

	size := int64(len(payload.Data))
	meta := &entity.RecordMetadata{Size: &size}
	if kind != capture.KindPhoto {
		duration := payload.Duration
		meta.Duration = &duration
	}
	return s.add(ctx, content, at, meta)
}

func (s *recordService) add(ctx context.Context, content entity.Content, pos location.Position, meta *entity.RecordMetadata) (*dto.RecordResponse, error) {
	active, err := s.projects.Active(ctx)
	if err != nil {
		return nil, err
	}

	record := &entity.FieldRecord{
		Id:        uuid.New().String(),
		Timestamp: entity.FormatTimestamp(s.now()),
		Location:  entity.Location{Latitude: pos.Latitude, Longitude: pos.Longitude},
		Content:   content,
		Metadata:  meta,
		ProjectId: active.Id,
	}
	if err := s.records.Add(ctx, record); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, events.New(events.RecordAdded, map[string]interface{}{
		"id":         record.Id,
		"kind":       record.Kind(),
		"project_id": record.ProjectId,
		"timestamp":  record.Timestamp,
	}))
	return s.mapper.ToResponse(record), nil
}

// Delete removes the record with id. Unknown ids are not an error.
func (s *recordService) Delete(ctx context.Context, id string) error {
	if err := s.records.Delete(ctx, id); err != nil {
		return err
	}
	_ = s.publisher.Publish(ctx, events.New(events.RecordDeleted, map[string]interface{}{"id": id}))
	return nil
}

func (s *recordService) Clear(ctx context.Context) (*dto.ClearRecordsResponse, error) {
	n, err := s.records.Count(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.records.Clear(ctx); err != nil {
		return nil, err
	}
	_ = s.publisher.Publish(ctx, events.New(events.RecordsCleared, map[string]interface{}{"removed": n}))
	return &dto.ClearRecordsResponse{Removed: n}, nil
}
