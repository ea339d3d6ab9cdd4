package location

import (
	"context"
	"sync"
	"time"

	"field-data-be/internal/pkg/logger"
)

type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Update is one event from a position stream: either a reading or a failure.
type Update struct {
	Position Position
	Err      error
}

type SourceOptions struct {
	HighAccuracy bool
}

// Source is a continuous position stream. The returned channel is closed when
// the source ends.
type Source interface {
	Subscribe(ctx context.Context, opts SourceOptions) (<-chan Update, error)
}

// Watcher keeps the most recent reading from any number of sources.
type Watcher struct {
	mu        sync.RWMutex
	current   *Position
	listeners []func(Position)
	logger    logger.ILogger
}

func NewWatcher(log logger.ILogger) *Watcher {
	return &Watcher{logger: log}
}

// OnUpdate registers fn to be called after every accepted reading.
func (w *Watcher) OnUpdate(fn func(Position)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Current returns the latest reading, if one has arrived.
func (w *Watcher) Current() (Position, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return Position{}, false
	}
	return *w.current, true
}

// Observe applies a single update. Failures are logged and leave the held
// reading untouched.
func (w *Watcher) Observe(u Update) {
	if u.Err != nil {
		w.logger.Warn("LocationWatcher", "Error getting location", map[string]interface{}{"error": u.Err.Error()})
		return
	}

	pos := u.Position
	if pos.Timestamp.IsZero() {
		pos.Timestamp = time.Now()
	}

	w.mu.Lock()
	w.current = &pos
	listeners := append([]func(Position){}, w.listeners...)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(pos)
	}
}

// Watch subscribes to src with high accuracy requested and applies every
// update until ctx ends or the source closes its stream.
func (w *Watcher) Watch(ctx context.Context, src Source) error {
	updates, err := src.Subscribe(ctx, SourceOptions{HighAccuracy: true})
	if err != nil {
		w.logger.Warn("LocationWatcher", "Failed to subscribe to position source", map[string]interface{}{"error": err.Error()})
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			w.Observe(u)
		}
	}
}
