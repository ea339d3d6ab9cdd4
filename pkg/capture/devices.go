package capture

import (
	"context"
	"image"
)

// MediaDevices grants media streams. Acquire may block until the user
// answers the permission request; it must honour ctx.
type MediaDevices interface {
	Acquire(ctx context.Context, sessionID string, c Constraints) (Stream, error)
}

type Track interface {
	Kind() string
	Stop()
}

type Stream interface {
	Tracks() []Track
	// Frame returns the frame currently shown by the video track.
	Frame() (image.Image, error)
	// Record starts an encoder over the stream.
	Record(mimeType string) (Recorder, error)
	OpenAudioContext() (AudioContext, error)
}

// Recorder delivers encoded chunks. Chunks is closed once Stop has flushed
// the final chunk.
type Recorder interface {
	Chunks() <-chan []byte
	Stop() error
}

type AudioContext interface {
	Analyser(fftSize int) (Analyser, error)
	Close() error
}

type Analyser interface {
	FrequencyBinCount() int
	ByteFrequencyData(dst []byte)
}

// FrameSink receives visualization frames of an audio session.
type FrameSink func(sessionID string, bins []byte)

func stopTracks(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
