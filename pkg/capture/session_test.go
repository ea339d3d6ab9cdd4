package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeTrack struct {
	kind    string
	stopped atomic.Bool
}

func (t *fakeTrack) Kind() string { return t.kind }
func (t *fakeTrack) Stop()        { t.stopped.Store(true) }

type fakeRecorder struct {
	ch      chan []byte
	stopped atomic.Bool
	flushed atomic.Bool
	// flushDelay holds back the tail chunk after Stop; silent never flushes.
	flushDelay time.Duration
	silent     bool
}

func (r *fakeRecorder) Chunks() <-chan []byte { return r.ch }

func (r *fakeRecorder) Stop() error {
	if r.stopped.Swap(true) {
		return nil
	}
	switch {
	case r.silent:
	case r.flushDelay > 0:
		go func() {
			time.Sleep(r.flushDelay)
			r.flush()
		}()
	default:
		r.flush()
	}
	return nil
}

func (r *fakeRecorder) flush() {
	r.ch <- []byte("|tail")
	close(r.ch)
	r.flushed.Store(true)
}

type fakeAnalyser struct{}

func (fakeAnalyser) FrequencyBinCount() int { return 128 }
func (fakeAnalyser) ByteFrequencyData(dst []byte) {
	for i := range dst {
		dst[i] = 7
	}
}

type fakeAudio struct {
	closed atomic.Bool
}

func (a *fakeAudio) Analyser(int) (Analyser, error) { return fakeAnalyser{}, nil }
func (a *fakeAudio) Close() error {
	a.closed.Store(true)
	return nil
}

type fakeStream struct {
	tracks     []*fakeTrack
	mu         sync.Mutex
	recorder   *fakeRecorder
	audio      *fakeAudio
	flushDelay time.Duration
	silent     bool
}

func (s *fakeStream) Tracks() []Track {
	out := make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	return out
}

func (s *fakeStream) Frame() (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		for y := 0; y < 6; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 10, A: 255})
		}
	}
	return img, nil
}

func (s *fakeStream) Record(string) (Recorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = &fakeRecorder{ch: make(chan []byte, 16), flushDelay: s.flushDelay, silent: s.silent}
	return s.recorder, nil
}

func (s *fakeStream) currentRecorder() *fakeRecorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder
}

func (s *fakeStream) OpenAudioContext() (AudioContext, error) {
	s.audio = &fakeAudio{}
	return s.audio, nil
}

type fakeDevices struct {
	mu         sync.Mutex
	deny       error
	gate       chan struct{}
	ignoreCtx  bool
	flushDelay time.Duration
	silent     bool
	requests   []Constraints
	streams    []*fakeStream
}

func (d *fakeDevices) Acquire(ctx context.Context, _ string, c Constraints) (Stream, error) {
	d.mu.Lock()
	d.requests = append(d.requests, c)
	gate := d.gate
	d.mu.Unlock()

	if gate != nil {
		if d.ignoreCtx {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if d.deny != nil {
		return nil, d.deny
	}

	s := &fakeStream{flushDelay: d.flushDelay, silent: d.silent}
	if c.Video != nil {
		s.tracks = append(s.tracks, &fakeTrack{kind: "video"})
	}
	if c.Audio {
		s.tracks = append(s.tracks, &fakeTrack{kind: "audio"})
	}

	d.mu.Lock()
	d.streams = append(d.streams, s)
	d.mu.Unlock()
	return s, nil
}

func (d *fakeDevices) liveTracks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.streams {
		for _, t := range s.tracks {
			if !t.stopped.Load() {
				n++
			}
		}
	}
	return n
}

func (d *fakeDevices) lastStream() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.streams[len(d.streams)-1]
}

func fastOptions() Options {
	return Options{
		TickInterval:    10 * time.Millisecond,
		FrameInterval:   5 * time.Millisecond,
		FinalizeTimeout: time.Second,
	}
}

func startSession(t *testing.T, kind Kind, devices *fakeDevices, opts Options) *Session {
	t.Helper()
	s, err := NewSession("s-1", kind, devices, opts)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, StateLive, s.State())
	return s
}

func TestConstraintsFor(t *testing.T) {
	tests := []struct {
		kind      Kind
		wantVideo bool
		wantAudio bool
	}{
		{KindPhoto, true, false},
		{KindVideo, true, true},
		{KindAudio, false, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			c := ConstraintsFor(tt.kind, FacingEnvironment)
			assert.Equal(t, tt.wantVideo, c.Video != nil)
			assert.Equal(t, tt.wantAudio, c.Audio)
			if c.Video != nil {
				assert.Equal(t, FacingEnvironment, c.Video.FacingMode)
			}
		})
	}
}

func TestNewSessionRejectsUnknownKind(t *testing.T) {
	_, err := NewSession("x", Kind("note"), &fakeDevices{}, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestPhotoCaptureConfirm(t *testing.T) {
	devices := &fakeDevices{}
	s := startSession(t, KindPhoto, devices, fastOptions())

	require.NoError(t, s.TakePhoto())
	assert.Equal(t, StatePreviewing, s.State())

	preview, ok := s.Preview()
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", preview.MimeType)
	img, err := jpeg.Decode(bytes.NewReader(preview.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())

	payload, err := s.Confirm()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload.DataURI(), "data:image/jpeg;base64,"))
	assert.Equal(t, StateConfirmed, s.State())
	assert.Zero(t, devices.liveTracks())

	_, err = s.Confirm()
	assert.ErrorIs(t, err, ErrInvalidTransition, "a payload is emitted only once")
	assert.ErrorIs(t, s.Cancel(), ErrInvalidTransition)
}

func TestPhotoSessionRejectsRecording(t *testing.T) {
	s := startSession(t, KindPhoto, &fakeDevices{}, fastOptions())
	defer s.Close()

	assert.ErrorIs(t, s.StartRecording(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Retake(), ErrInvalidTransition)
	_, err := s.Confirm()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVideoRecordingRetakeAndCancel(t *testing.T) {
	devices := &fakeDevices{}
	s := startSession(t, KindVideo, devices, fastOptions())
	assert.Equal(t, 2, devices.liveTracks())

	require.NoError(t, s.StartRecording())
	assert.Equal(t, StateRecording, s.State())

	rec := devices.lastStream().currentRecorder()
	rec.ch <- []byte("a")
	rec.ch <- []byte("b")

	require.Eventually(t, func() bool { return s.Duration() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.StopRecording())
	assert.Equal(t, StatePreviewing, s.State())
	assert.Zero(t, s.Duration(), "counter resets when recording stops")

	preview, ok := s.Preview()
	require.True(t, ok)
	assert.Equal(t, "video/webm", preview.MimeType)
	assert.Equal(t, "ab|tail", string(preview.Data))
	assert.GreaterOrEqual(t, preview.Duration, 2)

	require.NoError(t, s.Retake())
	assert.Equal(t, StateLive, s.State())
	_, ok = s.Preview()
	assert.False(t, ok)
	assert.Equal(t, 2, devices.liveTracks(), "retake keeps the stream")

	require.NoError(t, s.Cancel())
	assert.Zero(t, devices.liveTracks())
	require.NoError(t, s.Cancel(), "cancel is idempotent")
}

func TestToggleFacingReacquires(t *testing.T) {
	devices := &fakeDevices{}
	s := startSession(t, KindPhoto, devices, fastOptions())
	defer s.Close()

	require.NoError(t, s.ToggleFacing(context.Background()))
	assert.Equal(t, StateLive, s.State())
	assert.Equal(t, FacingUser, s.Info().FacingMode)

	require.Len(t, devices.requests, 2)
	assert.Equal(t, FacingEnvironment, devices.requests[0].Video.FacingMode)
	assert.Equal(t, FacingUser, devices.requests[1].Video.FacingMode)
	assert.True(t, devices.streams[0].tracks[0].stopped.Load(), "old stream is stopped")
	assert.Equal(t, 1, devices.liveTracks())
}

func TestToggleFacingRejectedWhileRecording(t *testing.T) {
	devices := &fakeDevices{}
	s := startSession(t, KindVideo, devices, fastOptions())
	defer s.Close()

	require.NoError(t, s.StartRecording())
	assert.ErrorIs(t, s.ToggleFacing(context.Background()), ErrInvalidTransition)
	assert.Equal(t, StateRecording, s.State())
	assert.Len(t, devices.requests, 1)
}

func TestToggleFacingRejectedForAudio(t *testing.T) {
	s := startSession(t, KindAudio, &fakeDevices{}, fastOptions())
	defer s.Close()

	assert.ErrorIs(t, s.ToggleFacing(context.Background()), ErrInvalidTransition)
}

func TestPermissionDeniedLeavesSessionInert(t *testing.T) {
	devices := &fakeDevices{deny: ErrPermissionDenied}
	s, err := NewSession("s-1", KindVideo, devices, fastOptions())
	require.NoError(t, err)

	err = s.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateUnavailable, s.State())
	assert.ErrorIs(t, s.Err(), ErrPermissionDenied)
	assert.NotEmpty(t, s.Info().Error)

	assert.ErrorIs(t, s.StartRecording(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidTransition)

	require.NoError(t, s.Cancel())
	assert.Equal(t, StateCancelled, s.State())
}

func TestAudioVisualizationStopsOnCancel(t *testing.T) {
	var frames atomic.Int64
	opts := fastOptions()
	opts.Sink = func(id string, bins []byte) {
		if id == "s-1" && len(bins) == 128 && bins[0] == 7 {
			frames.Add(1)
		}
	}

	devices := &fakeDevices{}
	s := startSession(t, KindAudio, devices, opts)

	require.Eventually(t, func() bool { return frames.Load() >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Cancel())
	seen := frames.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, seen, frames.Load(), "no frames after cancel")
	assert.True(t, devices.lastStream().audio.closed.Load())
	assert.Zero(t, devices.liveTracks())
}

func TestCancelReleasesFromEveryState(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		setup func(t *testing.T, s *Session, d *fakeDevices)
		want  State
	}{
		{
			name:  "live photo",
			kind:  KindPhoto,
			setup: func(t *testing.T, s *Session, d *fakeDevices) {},
			want:  StateLive,
		},
		{
			name:  "live audio",
			kind:  KindAudio,
			setup: func(t *testing.T, s *Session, d *fakeDevices) {},
			want:  StateLive,
		},
		{
			name: "recording video",
			kind: KindVideo,
			setup: func(t *testing.T, s *Session, d *fakeDevices) {
				require.NoError(t, s.StartRecording())
			},
			want: StateRecording,
		},
		{
			name: "recording audio",
			kind: KindAudio,
			setup: func(t *testing.T, s *Session, d *fakeDevices) {
				require.NoError(t, s.StartRecording())
			},
			want: StateRecording,
		},
		{
			name: "previewing photo",
			kind: KindPhoto,
			setup: func(t *testing.T, s *Session, d *fakeDevices) {
				require.NoError(t, s.TakePhoto())
			},
			want: StatePreviewing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			devices := &fakeDevices{}
			s := startSession(t, tt.kind, devices, fastOptions())
			tt.setup(t, s, devices)
			require.Equal(t, tt.want, s.State())

			require.NoError(t, s.Cancel())
			assert.Equal(t, StateCancelled, s.State())
			assert.Zero(t, devices.liveTracks())
			if a := devices.lastStream().audio; a != nil {
				assert.True(t, a.closed.Load())
			}
			if r := devices.lastStream().currentRecorder(); r != nil {
				assert.True(t, r.stopped.Load())
			}
			assert.Zero(t, s.Duration())
		})
	}
}

func TestCancelWhileInitializing(t *testing.T) {
	devices := &fakeDevices{gate: make(chan struct{})}
	s, err := NewSession("s-1", KindVideo, devices, fastOptions())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		devices.mu.Lock()
		defer devices.mu.Unlock()
		return len(devices.requests) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Cancel())
	assert.Error(t, <-done)
	assert.Equal(t, StateCancelled, s.State())
	assert.Zero(t, devices.liveTracks())
}

func TestCancelWhileInitializingStopsLateGrant(t *testing.T) {
	devices := &fakeDevices{gate: make(chan struct{}), ignoreCtx: true}
	s, err := NewSession("s-1", KindVideo, devices, fastOptions())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	require.Eventually(t, func() bool {
		devices.mu.Lock()
		defer devices.mu.Unlock()
		return len(devices.requests) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Cancel())
	close(devices.gate)

	assert.ErrorIs(t, <-done, ErrInvalidTransition)
	assert.Zero(t, devices.liveTracks(), "a stream granted after cancel is stopped at once")
}

func TestCloseAfterConfirmIsSafe(t *testing.T) {
	devices := &fakeDevices{}
	s := startSession(t, KindPhoto, devices, fastOptions())
	require.NoError(t, s.TakePhoto())
	_, err := s.Confirm()
	require.NoError(t, err)

	s.Close()
	assert.Equal(t, StateConfirmed, s.State())
	assert.Zero(t, devices.liveTracks())
}

func TestCancelWhileRecordingDoesNotWaitForFlush(t *testing.T) {
	devices := &fakeDevices{flushDelay: 400 * time.Millisecond}
	opts := fastOptions()
	opts.FinalizeTimeout = 2 * time.Second
	s := startSession(t, KindVideo, devices, opts)
	require.NoError(t, s.StartRecording())
	rec := devices.lastStream().currentRecorder()

	start := time.Now()
	require.NoError(t, s.Cancel())
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, StateCancelled, s.State())
	assert.Zero(t, devices.liveTracks())
	assert.True(t, rec.stopped.Load())

	require.Eventually(t, rec.flushed.Load, time.Second, 10*time.Millisecond)
}

func TestStopRecordingKeepsSessionResponsive(t *testing.T) {
	devices := &fakeDevices{flushDelay: 300 * time.Millisecond}
	s := startSession(t, KindAudio, devices, fastOptions())
	require.NoError(t, s.StartRecording())
	rec := devices.lastStream().currentRecorder()
	rec.ch <- []byte("pcm")

	done := make(chan error, 1)
	go func() { done <- s.StopRecording() }()
	require.Eventually(t, rec.stopped.Load, time.Second, time.Millisecond)

	start := time.Now()
	info := s.Info()
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, StateRecording, info.State)
	assert.ErrorIs(t, s.StopRecording(), ErrInvalidTransition, "second stop while flushing")

	require.NoError(t, <-done)
	assert.Equal(t, StatePreviewing, s.State())
	preview, ok := s.Preview()
	require.True(t, ok)
	assert.Equal(t, "pcm|tail", string(preview.Data))

	require.NoError(t, s.Cancel())
}

func TestCancelDuringFlushWins(t *testing.T) {
	devices := &fakeDevices{flushDelay: 200 * time.Millisecond}
	s := startSession(t, KindVideo, devices, fastOptions())
	require.NoError(t, s.StartRecording())
	rec := devices.lastStream().currentRecorder()

	done := make(chan error, 1)
	go func() { done <- s.StopRecording() }()
	require.Eventually(t, rec.stopped.Load, time.Second, time.Millisecond)

	require.NoError(t, s.Cancel())
	assert.ErrorIs(t, <-done, ErrInvalidTransition)
	assert.Equal(t, StateCancelled, s.State())
	_, ok := s.Preview()
	assert.False(t, ok)
	assert.Zero(t, devices.liveTracks())
}

func TestSilentRecorderYieldsNoPreview(t *testing.T) {
	devices := &fakeDevices{silent: true}
	opts := fastOptions()
	opts.FinalizeTimeout = 50 * time.Millisecond
	s := startSession(t, KindAudio, devices, opts)
	require.NoError(t, s.StartRecording())
	rec := devices.lastStream().currentRecorder()

	err := s.StopRecording()
	assert.ErrorIs(t, err, ErrEmptyRecording)
	assert.Equal(t, StateLive, s.State(), "stream stays up for another take")
	_, ok := s.Preview()
	assert.False(t, ok)
	_, err = s.Confirm()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// release the collector goroutine
	close(rec.ch)
	require.NoError(t, s.Cancel())
}

func TestEmptyClipYieldsNoPreview(t *testing.T) {
	devices := &fakeDevices{}
	s := startSession(t, KindVideo, devices, fastOptions())
	require.NoError(t, s.StartRecording())
	rec := devices.lastStream().currentRecorder()
	rec.stopped.Store(true)
	close(rec.ch)

	assert.ErrorIs(t, s.StopRecording(), ErrEmptyRecording)
	assert.Equal(t, StateLive, s.State())
	require.NoError(t, s.StartRecording(), "a new take can start")
	require.NoError(t, s.Cancel())
}
