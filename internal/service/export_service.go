package service

import (
	"context"
	"fmt"
	"time"

	"field-data-be/internal/dto"
	"field-data-be/internal/pkg/logger"
	"field-data-be/internal/repository/contract"
	"field-data-be/internal/repository/specification"
	"field-data-be/pkg/events"
	"field-data-be/pkg/export"

	"github.com/valyala/bytebufferpool"
)

const (
	ExportScopeAll    = "all"
	ExportScopeActive = "active"
)

type IExportService interface {
	Export(ctx context.Context, req *dto.ExportRequest) (*dto.ExportResult, error)
}

type exportService struct {
	records      contract.FieldRecordRepository
	projects     contract.ProjectRepository
	publisher    IPublisherService
	logger       logger.ILogger
	defaultScope string
	now          func() time.Time
}

func NewExportService(
	records contract.FieldRecordRepository,
	projects contract.ProjectRepository,
	publisher IPublisherService,
	log logger.ILogger,
	defaultScope string,
) IExportService {
	return &exportService{
		records:      records,
		projects:     projects,
		publisher:    publisher,
		logger:       log,
		defaultScope: defaultScope,
		now:          time.Now,
	}
}

// Export archives the whole store, or one project when asked or when the
// default scope is "active". The archive is named after the active project.
func (s *exportService) Export(ctx context.Context, req *dto.ExportRequest) (*dto.ExportResult, error) {
	active, err := s.projects.Active(ctx)
	if err != nil {
		return nil, err
	}

	projectId := req.ProjectId
	if projectId == "" && s.defaultScope == ExportScopeActive {
		projectId = active.Id
	}

	var specs []specification.Specification
	if projectId != "" {
		if _, err := s.projects.FindOne(ctx, projectId); err != nil {
			return nil, fmt.Errorf("export project %s: %w", projectId, err)
		}
		specs = append(specs, specification.ByProjectID{ProjectID: projectId})
	}

	records, err := s.records.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := export.Write(buf, records); err != nil {
		s.logger.Error("ExportService", "Export failed", map[string]interface{}{
			"project_id": projectId,
			"records":    len(records),
			"error":      err.Error(),
		})
		return nil, err
	}

	// The pooled buffer is reused after Put, so the archive is copied out.
	data := make([]byte, buf.Len())
	copy(data, buf.B)

	result := &dto.ExportResult{
		FileName:    export.ArchiveName(active.Id, s.now()),
		Data:        data,
		RecordCount: len(records),
	}

	s.logger.Info("ExportService", "Export completed", map[string]interface{}{
		"file":    result.FileName,
		"records": result.RecordCount,
		"bytes":   len(data),
	})
	_ = s.publisher.Publish(ctx, events.New(events.ExportCompleted, map[string]interface{}{
		"file":    result.FileName,
		"records": result.RecordCount,
	}))
	return result, nil
}
