// Package capture implements the lifecycle of a single media capture:
// acquire a camera/microphone stream, preview it, record on demand and hand
// exactly one encoded payload back to the caller.
package capture

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

type Kind string

const (
	KindPhoto Kind = "photo"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

func (k Kind) Valid() bool {
	return k == KindPhoto || k == KindVideo || k == KindAudio
}

// MimeType is the declared type of the payload a session of this kind emits.
func (k Kind) MimeType() string {
	switch k {
	case KindPhoto:
		return "image/jpeg"
	case KindVideo:
		return "video/webm"
	case KindAudio:
		return "audio/webm"
	}
	return ""
}

type FacingMode string

const (
	FacingEnvironment FacingMode = "environment"
	FacingUser        FacingMode = "user"
)

func (f FacingMode) Toggle() FacingMode {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

type State string

const (
	StateInitializing State = "initializing"
	StateLive         State = "live"
	StateRecording    State = "recording"
	StatePreviewing   State = "previewing"
	StateConfirmed    State = "confirmed"
	StateCancelled    State = "cancelled"
	// StateUnavailable marks a session whose stream could not be acquired.
	// Only Cancel is accepted from here.
	StateUnavailable State = "unavailable"
)

func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateCancelled
}

type VideoConstraints struct {
	FacingMode FacingMode `json:"facing_mode"`
}

// Constraints is the media request: Video is nil when no camera is wanted.
type Constraints struct {
	Video *VideoConstraints `json:"video"`
	Audio bool              `json:"audio"`
}

func ConstraintsFor(kind Kind, facing FacingMode) Constraints {
	var c Constraints
	if kind != KindAudio {
		c.Video = &VideoConstraints{FacingMode: facing}
	}
	c.Audio = kind == KindAudio || kind == KindVideo
	return c
}

var (
	ErrPermissionDenied  = errors.New("media permission denied")
	ErrInvalidTransition = errors.New("invalid capture transition")
	ErrUnsupportedKind   = errors.New("unsupported capture kind")
	ErrSessionNotFound   = errors.New("capture session not found")
	ErrNoFrame           = errors.New("no video frame available")
	ErrEncoding          = errors.New("payload encoding failed")
	ErrEmptyRecording    = errors.New("recorder produced no data")
)

// Payload is a captured image frame or recorded clip.
type Payload struct {
	MimeType string
	Data     []byte
	// Duration is the recorded length in whole seconds; zero for photos.
	Duration int
}

// DataURI renders the payload as a base64 data URI.
func (p Payload) DataURI() string {
	return "data:" + p.MimeType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}
