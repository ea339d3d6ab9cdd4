// Package relay provides capture.MediaDevices backed by a browser that
// streams its camera and microphone over a websocket.
//
// Binary messages from the browser carry a one-byte tag:
//
//	'F' current video frame, JPEG encoded
//	'C' encoded recorder chunk
//	'A' PCM samples, float32 little endian, feeding the analyser
//
// Text messages are JSON control messages: grant, deny, recording_stopped.
package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"field-data-be/internal/pkg/logger"
	"field-data-be/pkg/capture"

	"github.com/pkg/errors"
)

const (
	TagFrame   byte = 'F'
	TagChunk   byte = 'C'
	TagSamples byte = 'A'
)

const (
	MessageAcquire          = "acquire"
	MessageStop             = "stop"
	MessageRecord           = "record"
	MessageStopRecording    = "stop_recording"
	MessageGrant            = "grant"
	MessageDeny             = "deny"
	MessageRecordingStopped = "recording_stopped"
)

var (
	ErrAlreadyAttached = errors.New("media relay already attached")
	ErrDetached        = errors.New("media relay detached")
	ErrUnknownMessage  = errors.New("unknown relay message")
)

// Conn is the write side of a client connection.
type Conn interface {
	WriteJSON(v interface{}) error
}

type ControlMessage struct {
	Type        string               `json:"type"`
	Reason      string               `json:"reason,omitempty"`
	MimeType    string               `json:"mime_type,omitempty"`
	Constraints *capture.Constraints `json:"constraints,omitempty"`
}

type Devices struct {
	mu           sync.Mutex
	endpoints    map[string]*endpoint
	flushTimeout time.Duration
	logger       logger.ILogger
}

func NewDevices(flushTimeout time.Duration, log logger.ILogger) *Devices {
	if flushTimeout <= 0 {
		flushTimeout = 5 * time.Second
	}
	return &Devices{
		endpoints:    make(map[string]*endpoint),
		flushTimeout: flushTimeout,
		logger:       log,
	}
}

type acquireResult struct {
	stream *stream
	err    error
}

type acquisition struct {
	constraints capture.Constraints
	result      chan acquireResult
}

type endpoint struct {
	id      string
	devices *Devices

	mu      sync.Mutex
	conn    Conn
	pending *acquisition
	stream  *stream
}

func (d *Devices) endpoint(sessionID string) *endpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	ep, ok := d.endpoints[sessionID]
	if !ok {
		ep = &endpoint{id: sessionID, devices: d}
		d.endpoints[sessionID] = ep
	}
	return ep
}

// sendLocked writes to the attached client. ep.mu must be held.
func (ep *endpoint) sendLocked(msg ControlMessage) {
	if ep.conn == nil {
		return
	}
	if err := ep.conn.WriteJSON(msg); err != nil {
		ep.devices.logger.Warn("MediaRelay", "Failed to write control message", map[string]interface{}{
			"session_id": ep.id,
			"type":       msg.Type,
			"error":      err.Error(),
		})
	}
}

func (ep *endpoint) send(msg ControlMessage) {
	ep.mu.Lock()
	defer ep.mu.Unlock()
	ep.sendLocked(msg)
}

// Acquire asks the attached browser for a stream and waits for its answer.
// When no browser is attached yet the request is delivered on Attach.
func (d *Devices) Acquire(ctx context.Context, sessionID string, c capture.Constraints) (capture.Stream, error) {
	ep := d.endpoint(sessionID)
	acq := &acquisition{constraints: c, result: make(chan acquireResult, 1)}

	ep.mu.Lock()
	if ep.pending != nil {
		ep.pending.result <- acquireResult{err: errors.New("superseded by a newer request")}
	}
	ep.pending = acq
	ep.sendLocked(ControlMessage{Type: MessageAcquire, Constraints: &c})
	ep.mu.Unlock()

	select {
	case r := <-acq.result:
		if r.err != nil {
			return nil, r.err
		}
		return r.stream, nil
	case <-ctx.Done():
		ep.mu.Lock()
		if ep.pending == acq {
			ep.pending = nil
		}
		ep.mu.Unlock()

		select {
		case r := <-acq.result:
			if r.stream != nil {
				r.stream.stopAll()
			}
		default:
		}
		return nil, ctx.Err()
	}
}

// Attach binds a client connection to a session. A session accepts one
// connection at a time.
func (d *Devices) Attach(sessionID string, conn Conn) error {
	ep := d.endpoint(sessionID)

	ep.mu.Lock()
	defer ep.mu.Unlock()
	if ep.conn != nil {
		return ErrAlreadyAttached
	}
	ep.conn = conn
	if ep.pending != nil {
		c := ep.pending.constraints
		ep.sendLocked(ControlMessage{Type: MessageAcquire, Constraints: &c})
	}
	return nil
}

// Detach drops the client connection. A pending request fails and a running
// recorder is closed with what it has received.
func (d *Devices) Detach(sessionID string) {
	d.mu.Lock()
	ep, ok := d.endpoints[sessionID]
	d.mu.Unlock()
	if !ok {
		return
	}

	ep.mu.Lock()
	ep.conn = nil
	if ep.pending != nil {
		ep.pending.result <- acquireResult{err: ErrDetached}
		ep.pending = nil
	}
	st := ep.stream
	ep.mu.Unlock()

	if st != nil {
		st.closeRecorder()
	}
}

// Forget removes all state kept for a session.
func (d *Devices) Forget(sessionID string) {
	d.Detach(sessionID)
	d.mu.Lock()
	delete(d.endpoints, sessionID)
	d.mu.Unlock()
}

// Handle processes one message read from the client connection.
func (d *Devices) Handle(sessionID string, data []byte, binary bool) error {
	d.mu.Lock()
	ep, ok := d.endpoints[sessionID]
	d.mu.Unlock()
	if !ok {
		return nil
	}

	if binary {
		if len(data) == 0 {
			return nil
		}
		ep.mu.Lock()
		st := ep.stream
		ep.mu.Unlock()
		if st == nil {
			return nil
		}

		body := data[1:]
		switch data[0] {
		case TagFrame:
			st.setFrame(body)
		case TagChunk:
			st.pushChunk(body)
		case TagSamples:
			st.pushSamples(body)
		default:
			return errors.Wrapf(ErrUnknownMessage, "binary tag %q", data[0])
		}
		return nil
	}

	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.Wrap(err, "decode control message")
	}

	switch msg.Type {
	case MessageGrant:
		ep.mu.Lock()
		defer ep.mu.Unlock()
		if ep.pending == nil {
			return nil
		}
		st := newStream(ep, ep.pending.constraints, d.flushTimeout)
		ep.stream = st
		ep.pending.result <- acquireResult{stream: st}
		ep.pending = nil

	case MessageDeny:
		ep.mu.Lock()
		defer ep.mu.Unlock()
		if ep.pending == nil {
			return nil
		}
		reason := msg.Reason
		if reason == "" {
			reason = "request refused by user agent"
		}
		ep.pending.result <- acquireResult{err: errors.Wrap(capture.ErrPermissionDenied, reason)}
		ep.pending = nil

	case MessageRecordingStopped:
		ep.mu.Lock()
		st := ep.stream
		ep.mu.Unlock()
		if st != nil {
			st.closeRecorder()
		}

	default:
		return errors.Wrapf(ErrUnknownMessage, "type %q", msg.Type)
	}
	return nil
}
