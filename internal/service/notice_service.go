package service

import (
	"context"
	"sort"

	"field-data-be/internal/dto"
	"field-data-be/internal/pkg/logger"
)

const defaultNoticeLimit = 50

type INoticeService interface {
	List(ctx context.Context, req *dto.ListNoticesRequest) ([]*dto.NoticeResponse, error)
}

// noticeService reads warnings and errors back from the application log so
// the client can show what went wrong with a capture or a GPS fix.
type noticeService struct {
	logger logger.ILogger
}

func NewNoticeService(log logger.ILogger) INoticeService {
	return &noticeService{logger: log}
}

func (s *noticeService) List(ctx context.Context, req *dto.ListNoticesRequest) ([]*dto.NoticeResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultNoticeLimit
	}

	levels := []string{req.Level}
	if req.Level == "" {
		levels = []string{"WARN", "ERROR"}
	}

	var out []*dto.NoticeResponse
	for _, level := range levels {
		entries, err := s.logger.GetLogs(level, 0, 0)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out = append(out, &dto.NoticeResponse{
				Id:        e.Id,
				Timestamp: e.Timestamp,
				Level:     e.Level,
				Module:    e.Module,
				Message:   e.Message,
				Details:   e.Details,
			})
		}
	}

	sortNewestFirst(out)

	if req.Offset >= len(out) {
		return []*dto.NoticeResponse{}, nil
	}
	end := req.Offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[req.Offset:end], nil
}

// ISO-8601 timestamps from the log order lexically.
func sortNewestFirst(notices []*dto.NoticeResponse) {
	sort.SliceStable(notices, func(i, j int) bool {
		return notices[i].Timestamp > notices[j].Timestamp
	})
}
