package service

import (
	"context"
	"fmt"
	"time"

	"field-data-be/internal/dto"
	"field-data-be/internal/pkg/logger"
	"field-data-be/internal/repository/contract"
	"field-data-be/internal/websocket"
	"field-data-be/pkg/capture"
	"field-data-be/pkg/events"
	"field-data-be/pkg/location"

	"github.com/google/uuid"
)

const captureBasePath = "/api/capture/v1/"

type ICaptureService interface {
	Open(ctx context.Context, req *dto.OpenCaptureRequest) (*dto.CaptureResponse, error)
	Show(ctx context.Context, id string) (*dto.CaptureResponse, error)
	TakePhoto(ctx context.Context, id string) (*dto.CaptureResponse, error)
	StartRecording(ctx context.Context, id string) (*dto.CaptureResponse, error)
	StopRecording(ctx context.Context, id string) (*dto.CaptureResponse, error)
	ToggleFacing(ctx context.Context, id string) (*dto.CaptureResponse, error)
	Retake(ctx context.Context, id string) (*dto.CaptureResponse, error)
	Confirm(ctx context.Context, id string) (*dto.ConfirmCaptureResponse, error)
	Cancel(ctx context.Context, id string) error
}

type CaptureServiceConfig struct {
	Options capture.Options
	// AcquireTimeout bounds a camera switch made from a request.
	AcquireTimeout time.Duration
}

type captureService struct {
	sessions  contract.CaptureSessionRepository
	devices   capture.MediaDevices
	records   IRecordService
	watcher   *location.Watcher
	feed      FeedBroadcaster
	publisher IPublisherService
	logger    logger.ILogger
	cfg       CaptureServiceConfig
}

func NewCaptureService(
	sessions contract.CaptureSessionRepository,
	devices capture.MediaDevices,
	records IRecordService,
	watcher *location.Watcher,
	feed FeedBroadcaster,
	publisher IPublisherService,
	log logger.ILogger,
	cfg CaptureServiceConfig,
) ICaptureService {
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 30 * time.Second
	}
	cfg.Options.Logger = log
	return &captureService{
		sessions:  sessions,
		devices:   devices,
		records:   records,
		watcher:   watcher,
		feed:      feed,
		publisher: publisher,
		logger:    log,
		cfg:       cfg,
	}
}

func (s *captureService) response(session *capture.Session) *dto.CaptureResponse {
	return &dto.CaptureResponse{
		Info:      session.Info(),
		MediaPath: captureBasePath + session.Id() + "/media",
		Topic:     websocket.CaptureTopic(session.Id()),
	}
}

func (s *captureService) broadcast(session *capture.Session) {
	info := session.Info()
	s.feed.Publish(websocket.CaptureTopic(session.Id()), events.CaptureStateChanged, info)
}

func (s *captureService) get(id string) (*capture.Session, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("capture session %s: %w", id, capture.ErrSessionNotFound)
	}
	return session, nil
}

// Open creates a session and starts acquiring its stream in the background.
// The stream is granted once a client attaches to the media path.
func (s *captureService) Open(ctx context.Context, req *dto.OpenCaptureRequest) (*dto.CaptureResponse, error) {
	opts := s.cfg.Options
	if req.FacingMode != "" {
		opts.Facing = req.FacingMode
	}
	opts.Sink = func(sessionID string, bins []byte) {
		s.feed.PublishLocal(websocket.CaptureTopic(sessionID), "visualization", bins)
	}

	session, err := capture.NewSession(uuid.New().String(), req.Kind, s.devices, opts)
	if err != nil {
		return nil, err
	}
	s.sessions.Save(session)

	s.logger.Info("CaptureService", "Capture session opened", map[string]interface{}{
		"session_id": session.Id(),
		"kind":       session.Kind(),
	})

	go func() {
		if err := session.Start(context.Background()); err != nil {
			s.logger.Warn("CaptureService", "Capture session did not start", map[string]interface{}{
				"session_id": session.Id(),
				"error":      err.Error(),
			})
		}
		s.broadcast(session)
	}()

	return s.response(session), nil
}

func (s *captureService) Show(ctx context.Context, id string) (*dto.CaptureResponse, error) {
	session, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return s.response(session), nil
}

func (s *captureService) apply(id string, op func(*capture.Session) error) (*dto.CaptureResponse, error) {
	session, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := op(session); err != nil {
		return nil, err
	}
	s.broadcast(session)
	return s.response(session), nil
}

func (s *captureService) TakePhoto(ctx context.Context, id string) (*dto.CaptureResponse, error) {
	return s.apply(id, (*capture.Session).TakePhoto)
}

func (s *captureService) StartRecording(ctx context.Context, id string) (*dto.CaptureResponse, error) {
	return s.apply(id, (*capture.Session).StartRecording)
}

func (s *captureService) StopRecording(ctx context.Context, id string) (*dto.CaptureResponse, error) {
	return s.apply(id, (*capture.Session).StopRecording)
}

func (s *captureService) Retake(ctx context.Context, id string) (*dto.CaptureResponse, error) {
	return s.apply(id, (*capture.Session).Retake)
}

// ToggleFacing blocks until the client grants the new camera or the acquire
// timeout passes.
func (s *captureService) ToggleFacing(ctx context.Context, id string) (*dto.CaptureResponse, error) {
	return s.apply(id, func(session *capture.Session) error {
		tctx, cancel := context.WithTimeout(ctx, s.cfg.AcquireTimeout)
		defer cancel()
		return session.ToggleFacing(tctx)
	})
}

// Confirm stores the previewed payload as a record stamped with the current
// location, then ends the session. Without a location, or when the record
// cannot be stored, the session keeps its preview.
func (s *captureService) Confirm(ctx context.Context, id string) (*dto.ConfirmCaptureResponse, error) {
	session, err := s.get(id)
	if err != nil {
		return nil, err
	}

	pos, ok := s.watcher.Current()
	if !ok {
		s.logger.Warn("CaptureService", "Confirm refused without location", map[string]interface{}{"session_id": id})
		return nil, ErrMissingLocation
	}

	payload, ok := session.Preview()
	if !ok {
		return nil, capture.ErrInvalidTransition
	}

	record, err := s.records.AddCapture(ctx, session.Kind(), payload, pos)
	if err != nil {
		s.logger.Error("CaptureService", "Failed to store confirmed capture", map[string]interface{}{
			"session_id": id,
			"bytes":      len(payload.Data),
			"error":      err.Error(),
		})
		return nil, err
	}

	if _, err := session.Confirm(); err != nil {
		// Retaken or cancelled while the record was being stored.
		if delErr := s.records.Delete(ctx, record.Id); delErr != nil {
			s.logger.Error("CaptureService", "Failed to roll back capture record", map[string]interface{}{
				"session_id": id,
				"record_id":  record.Id,
				"error":      delErr.Error(),
			})
		}
		return nil, err
	}

	s.broadcast(session)
	res := &dto.ConfirmCaptureResponse{Session: *s.response(session), Record: record}
	s.sessions.Delete(id)
	return res, nil
}

// Cancel ends the session and releases its devices.
func (s *captureService) Cancel(ctx context.Context, id string) error {
	session, err := s.get(id)
	if err != nil {
		return err
	}
	if err := session.Cancel(); err != nil {
		return err
	}
	s.broadcast(session)
	s.sessions.Delete(id)
	return nil
}
