package relay

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/jpeg"
	"math"
	"sync"
	"time"

	"field-data-be/pkg/capture"

	"github.com/pkg/errors"
)

type stream struct {
	ep           *endpoint
	constraints  capture.Constraints
	flushTimeout time.Duration

	mu       sync.Mutex
	tracks   []*track
	live     int
	frame    []byte
	recorder *recorder
	analyser *capture.FFTAnalyser
}

func newStream(ep *endpoint, c capture.Constraints, flushTimeout time.Duration) *stream {
	s := &stream{ep: ep, constraints: c, flushTimeout: flushTimeout}
	if c.Video != nil {
		s.tracks = append(s.tracks, &track{kind: "video", stream: s})
	}
	if c.Audio {
		s.tracks = append(s.tracks, &track{kind: "audio", stream: s})
	}
	s.live = len(s.tracks)
	return s
}

func (s *stream) Tracks() []capture.Track {
	out := make([]capture.Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		out = append(out, t)
	}
	return out
}

func (s *stream) Frame() (image.Image, error) {
	if s.constraints.Video == nil {
		return nil, capture.ErrNoFrame
	}

	s.mu.Lock()
	data := s.frame
	s.mu.Unlock()
	if len(data) == 0 {
		return nil, capture.ErrNoFrame
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "decode relayed frame")
	}
	return img, nil
}

func (s *stream) Record(mimeType string) (capture.Recorder, error) {
	s.mu.Lock()
	if s.recorder != nil && !s.recorder.isClosed() {
		s.mu.Unlock()
		return nil, errors.New("recorder already running")
	}
	r := &recorder{
		ch:           make(chan []byte, 256),
		flushTimeout: s.flushTimeout,
		ep:           s.ep,
	}
	s.recorder = r
	s.mu.Unlock()

	s.ep.send(ControlMessage{Type: MessageRecord, MimeType: mimeType})
	return r, nil
}

func (s *stream) OpenAudioContext() (capture.AudioContext, error) {
	if !s.constraints.Audio {
		return nil, errors.New("stream has no audio track")
	}
	return &audioContext{stream: s}, nil
}

func (s *stream) setFrame(data []byte) {
	frame := make([]byte, len(data))
	copy(frame, data)
	s.mu.Lock()
	s.frame = frame
	s.mu.Unlock()
}

func (s *stream) pushChunk(data []byte) {
	s.mu.Lock()
	r := s.recorder
	s.mu.Unlock()
	if r == nil {
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	r.push(chunk)
}

func (s *stream) pushSamples(data []byte) {
	s.mu.Lock()
	a := s.analyser
	s.mu.Unlock()
	if a == nil {
		return
	}

	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	a.Write(samples)
}

func (s *stream) closeRecorder() {
	s.mu.Lock()
	r := s.recorder
	s.mu.Unlock()
	if r != nil {
		r.close()
	}
}

func (s *stream) stopAll() {
	for _, t := range s.tracks {
		t.Stop()
	}
}

func (s *stream) trackStopped() {
	s.mu.Lock()
	s.live--
	ended := s.live == 0
	s.mu.Unlock()

	if ended {
		s.closeRecorder()
		s.ep.send(ControlMessage{Type: MessageStop})
	}
}

type track struct {
	kind   string
	stream *stream
	once   sync.Once
}

func (t *track) Kind() string { return t.kind }

func (t *track) Stop() {
	t.once.Do(t.stream.trackStopped)
}

type recorder struct {
	ep           *endpoint
	flushTimeout time.Duration

	mu     sync.Mutex
	ch     chan []byte
	closed bool
	timer  *time.Timer
}

func (r *recorder) Chunks() <-chan []byte { return r.ch }

// Stop asks the browser to flush its encoder. The chunk stream closes when
// the browser reports recording_stopped or after flushTimeout.
func (r *recorder) Stop() error {
	r.mu.Lock()
	if r.closed || r.timer != nil {
		r.mu.Unlock()
		return nil
	}
	r.timer = time.AfterFunc(r.flushTimeout, r.close)
	r.mu.Unlock()

	r.ep.send(ControlMessage{Type: MessageStopRecording})
	return nil
}

func (r *recorder) push(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.ch <- chunk
}

func (r *recorder) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	close(r.ch)
	if r.timer != nil {
		r.timer.Stop()
	}
}

func (r *recorder) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

type audioContext struct {
	stream *stream
	closed bool
}

func (a *audioContext) Analyser(fftSize int) (capture.Analyser, error) {
	if a.closed {
		return nil, errors.New("audio context closed")
	}
	analyser := capture.NewFFTAnalyser(fftSize)
	a.stream.mu.Lock()
	a.stream.analyser = analyser
	a.stream.mu.Unlock()
	return analyser, nil
}

func (a *audioContext) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.stream.mu.Lock()
	a.stream.analyser = nil
	a.stream.mu.Unlock()
	return nil
}
