package capture

import (
	"context"
	"time"
)

// visualizer is the self-rescheduling redraw loop of an audio session.
type visualizer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startVisualizer(parent context.Context, sessionID string, a Analyser, interval time.Duration, sink FrameSink) *visualizer {
	ctx, cancel := context.WithCancel(parent)
	v := &visualizer{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(v.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		bins := make([]byte, a.FrequencyBinCount())
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.ByteFrequencyData(bins)
				frame := make([]byte, len(bins))
				copy(frame, bins)
				sink(sessionID, frame)
			}
		}
	}()

	return v
}

func (v *visualizer) stop() {
	v.cancel()
	<-v.done
}
