package capture

import (
	"bytes"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// recording owns the goroutines of one recorder run: the chunk collector and
// the duration ticker.
type recording struct {
	recorder Recorder
	mimeType string

	buf       bytes.Buffer
	collected chan struct{}

	stopTick chan struct{}
	tickDone chan struct{}

	finished bool
}

func startRecording(r Recorder, mimeType string, tick time.Duration, counter *atomic.Int64) *recording {
	rec := &recording{
		recorder:  r,
		mimeType:  mimeType,
		collected: make(chan struct{}),
		stopTick:  make(chan struct{}),
		tickDone:  make(chan struct{}),
	}

	go func() {
		defer close(rec.collected)
		for chunk := range r.Chunks() {
			rec.buf.Write(chunk)
		}
	}()

	go func() {
		defer close(rec.tickDone)
		ticker := time.NewTicker(tick)
		defer ticker.Stop()
		for {
			select {
			case <-rec.stopTick:
				return
			case <-ticker.C:
				counter.Add(1)
			}
		}
	}()

	return rec
}

// finish stops the recorder and waits for the collector to drain. A recorder
// that does not close its chunk stream within timeout loses the clip.
func (rec *recording) finish(timeout time.Duration) ([]byte, error) {
	if rec.finished {
		return rec.buf.Bytes(), nil
	}
	stopErr := rec.halt()

	select {
	case <-rec.collected:
	case <-time.After(timeout):
		return nil, errors.New("recorder did not close its chunk stream")
	}

	if stopErr != nil {
		return rec.buf.Bytes(), errors.Wrap(stopErr, "stop recorder")
	}
	return rec.buf.Bytes(), nil
}

// abandon stops the recorder without waiting for its flush. The collector
// exits once the chunk stream closes.
func (rec *recording) abandon() {
	if rec.finished {
		return
	}
	_ = rec.halt()
}

func (rec *recording) halt() error {
	rec.finished = true
	close(rec.stopTick)
	<-rec.tickDone
	return rec.recorder.Stop()
}
