package capture

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"time"

	"field-data-be/internal/pkg/logger"

	"github.com/pkg/errors"
)

const (
	analyserFFTSize = 256
	jpegQuality     = 92
)

type Options struct {
	Logger logger.ILogger
	Sink   FrameSink
	Facing FacingMode
	// TickInterval is the resolution of the recording duration counter.
	TickInterval time.Duration
	// FrameInterval is the redraw period of the audio visualization loop.
	FrameInterval time.Duration
	// FinalizeTimeout bounds the wait for a recorder to flush after Stop.
	FinalizeTimeout time.Duration
}

func (o *Options) withDefaults() {
	if o.Logger == nil {
		o.Logger = logger.NewNopLogger()
	}
	if o.Facing == "" {
		o.Facing = FacingEnvironment
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.FrameInterval <= 0 {
		o.FrameInterval = time.Second / 30
	}
	if o.FinalizeTimeout <= 0 {
		o.FinalizeTimeout = 10 * time.Second
	}
	if o.Sink == nil {
		o.Sink = func(string, []byte) {}
	}
}

// Info is a point-in-time view of a session.
type Info struct {
	Id          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	State       State      `json:"state"`
	FacingMode  FacingMode `json:"facing_mode,omitempty"`
	Duration    int        `json:"duration"`
	Error       string     `json:"error,omitempty"`
	PreviewMime string     `json:"preview_mime,omitempty"`
	PreviewSize int        `json:"preview_size,omitempty"`
}

type Session struct {
	id      string
	kind    Kind
	devices MediaDevices
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	acquiring  bool
	finalizing bool
	facing    FacingMode
	stream    Stream
	audio     AudioContext
	viz       *visualizer
	rec       *recording
	preview   *Payload
	err       error
	duration  atomic.Int64
}

func NewSession(id string, kind Kind, devices MediaDevices, opts Options) (*Session, error) {
	if !kind.Valid() {
		return nil, errors.Wrapf(ErrUnsupportedKind, "kind %q", kind)
	}
	opts.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:      id,
		kind:    kind,
		devices: devices,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		state:   StateInitializing,
		facing:  opts.Facing,
	}, nil
}

func (s *Session) Id() string { return s.id }

func (s *Session) Kind() Kind { return s.kind }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Duration is the running recording counter in seconds.
func (s *Session) Duration() int {
	return int(s.duration.Load())
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		Id:       s.id,
		Kind:     s.kind,
		State:    s.state,
		Duration: int(s.duration.Load()),
	}
	if s.kind != KindAudio {
		info.FacingMode = s.facing
	}
	if s.err != nil {
		info.Error = s.err.Error()
	}
	if s.preview != nil {
		info.PreviewMime = s.preview.MimeType
		info.PreviewSize = len(s.preview.Data)
	}
	return info
}

// Preview returns the payload awaiting confirmation.
func (s *Session) Preview() (Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.preview == nil {
		return Payload{}, false
	}
	return *s.preview, true
}

// Start acquires the stream. It blocks until the devices answer, ctx ends or
// the session is cancelled. A denied request leaves the session unavailable.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateInitializing || s.acquiring || s.stream != nil {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.acquiring = true
	facing := s.facing
	s.mu.Unlock()

	return s.acquire(ctx, facing)
}

func (s *Session) acquire(ctx context.Context, facing FacingMode) error {
	acqCtx, stop := context.WithCancel(s.ctx)
	defer stop()
	unhook := context.AfterFunc(ctx, stop)
	defer unhook()

	stream, err := s.devices.Acquire(acqCtx, s.id, ConstraintsFor(s.kind, facing))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquiring = false

	if s.state != StateInitializing {
		// Cancelled while the request was pending.
		stopTracks(stream)
		return ErrInvalidTransition
	}
	if err != nil {
		s.state = StateUnavailable
		s.err = err
		s.opts.Logger.Error("CaptureSession", "Error accessing media devices", map[string]interface{}{
			"session_id": s.id,
			"kind":       s.kind,
			"error":      err.Error(),
		})
		return err
	}

	s.stream = stream
	s.facing = facing
	if s.kind == KindAudio {
		s.startVisualization()
	}
	s.state = StateLive
	return nil
}

func (s *Session) startVisualization() {
	audio, err := s.stream.OpenAudioContext()
	if err != nil {
		s.opts.Logger.Warn("CaptureSession", "Audio visualization unavailable", map[string]interface{}{
			"session_id": s.id,
			"error":      err.Error(),
		})
		return
	}
	analyser, err := audio.Analyser(analyserFFTSize)
	if err != nil {
		_ = audio.Close()
		s.opts.Logger.Warn("CaptureSession", "Audio analyser unavailable", map[string]interface{}{
			"session_id": s.id,
			"error":      err.Error(),
		})
		return
	}
	s.audio = audio
	s.viz = startVisualizer(s.ctx, s.id, analyser, s.opts.FrameInterval, s.opts.Sink)
}

// TakePhoto grabs the current frame into an off-screen raster and encodes it
// as JPEG.
func (s *Session) TakePhoto() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kind != KindPhoto || s.state != StateLive {
		return ErrInvalidTransition
	}

	frame, err := s.stream.Frame()
	if err != nil {
		return errors.Wrap(err, "grab frame")
	}

	bounds := frame.Bounds()
	raster := image.NewRGBA(bounds)
	draw.Draw(raster, bounds, frame, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, raster, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return errors.Wrap(ErrEncoding, err.Error())
	}

	s.preview = &Payload{MimeType: KindPhoto.MimeType(), Data: buf.Bytes()}
	s.state = StatePreviewing
	return nil
}

func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.kind == KindPhoto || s.state != StateLive {
		return ErrInvalidTransition
	}

	recorder, err := s.stream.Record(s.kind.MimeType())
	if err != nil {
		return errors.Wrap(err, "start recorder")
	}

	s.duration.Store(0)
	s.rec = startRecording(recorder, s.kind.MimeType(), s.opts.TickInterval, &s.duration)
	s.state = StateRecording
	return nil
}

// StopRecording finalizes the clip and moves to previewing. The session lock
// is not held while the recorder flushes, so the session stays observable and
// cancellable. A clip that comes back empty returns the session to live.
func (s *Session) StopRecording() error {
	s.mu.Lock()
	if s.state != StateRecording || s.finalizing {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	rec := s.rec
	s.rec = nil
	s.finalizing = true
	s.mu.Unlock()

	data, err := rec.finish(s.opts.FinalizeTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalizing = false

	if s.state != StateRecording {
		// Cancelled while the recorder was flushing.
		return ErrInvalidTransition
	}

	elapsed := int(s.duration.Load())
	s.duration.Store(0)

	if err != nil {
		s.opts.Logger.Warn("CaptureSession", "Recorder did not flush cleanly", map[string]interface{}{
			"session_id": s.id,
			"bytes":      len(data),
			"error":      err.Error(),
		})
	}
	if len(data) == 0 {
		s.state = StateLive
		if err != nil {
			return errors.Wrap(ErrEmptyRecording, err.Error())
		}
		return ErrEmptyRecording
	}
	s.preview = &Payload{MimeType: rec.mimeType, Data: data, Duration: elapsed}
	s.state = StatePreviewing
	return nil
}

// ToggleFacing swaps between the back and front camera by reacquiring the
// stream. It is rejected while recording.
func (s *Session) ToggleFacing(ctx context.Context) error {
	s.mu.Lock()
	if s.kind == KindAudio || s.state != StateLive {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	stopTracks(s.stream)
	s.stream = nil
	s.state = StateInitializing
	s.acquiring = true
	facing := s.facing.Toggle()
	s.facing = facing
	s.mu.Unlock()

	return s.acquire(ctx, facing)
}

// Retake drops the previewed payload and re-arms the session.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreviewing {
		return ErrInvalidTransition
	}
	s.preview = nil
	s.state = StateLive
	return nil
}

// Confirm hands over the previewed payload and ends the session. It is the
// only way a payload leaves the session.
func (s *Session) Confirm() (Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreviewing || s.preview == nil {
		return Payload{}, ErrInvalidTransition
	}

	payload := *s.preview
	s.preview = nil
	s.state = StateConfirmed
	s.release()
	return payload, nil
}

// Cancel ends the session from any non-terminal state and releases every
// resource it holds. Cancelling a cancelled session is a no-op.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCancelled:
		return nil
	case StateConfirmed:
		return ErrInvalidTransition
	}

	s.state = StateCancelled
	s.preview = nil
	s.release()
	return nil
}

// Close tears the session down regardless of state.
func (s *Session) Close() {
	if err := s.Cancel(); err != nil {
		s.mu.Lock()
		s.release()
		s.mu.Unlock()
	}
}

// release must be called with s.mu held.
func (s *Session) release() {
	s.cancel()

	if s.viz != nil {
		s.viz.stop()
		s.viz = nil
	}
	if s.audio != nil {
		if err := s.audio.Close(); err != nil {
			s.opts.Logger.Warn("CaptureSession", "Failed to close audio context", map[string]interface{}{
				"session_id": s.id,
				"error":      err.Error(),
			})
		}
		s.audio = nil
	}
	stopTracks(s.stream)
	s.stream = nil
	if s.rec != nil {
		s.rec.abandon()
		s.rec = nil
	}
	s.duration.Store(0)
}
