package location

import (
	"context"
	"errors"
	"sync"
)

var ErrSourceClosed = errors.New("position source closed")

// ChanSource is a Source fed by the caller, used for readings that arrive
// over a client connection.
type ChanSource struct {
	mu     sync.RWMutex
	ch     chan Update
	closed bool
}

func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{ch: make(chan Update, buffer)}
}

func (s *ChanSource) Subscribe(ctx context.Context, opts SourceOptions) (<-chan Update, error) {
	return s.ch, nil
}

func (s *ChanSource) Push(ctx context.Context, u Update) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSourceClosed
	}

	select {
	case s.ch <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Updates already buffered are still delivered.
func (s *ChanSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}
