package memory

import (
	"time"

	"field-data-be/pkg/capture"

	"github.com/patrickmn/go-cache"
)

// CaptureSessionRepository holds open capture sessions. A session that is
// deleted or left idle past its TTL is closed, releasing its devices, and
// onEvicted runs for any extra cleanup.
type CaptureSessionRepository struct {
	cache *cache.Cache
}

func NewCaptureSessionRepository(ttl, cleanupInterval time.Duration, onEvicted func(id string)) *CaptureSessionRepository {
	c := cache.New(ttl, cleanupInterval)
	c.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*capture.Session); ok {
			s.Close()
		}
		if onEvicted != nil {
			onEvicted(id)
		}
	})
	return &CaptureSessionRepository{cache: c}
}

func (r *CaptureSessionRepository) Save(session *capture.Session) {
	r.cache.Set(session.Id(), session, cache.DefaultExpiration)
}

// Get also extends the session's lifetime.
func (r *CaptureSessionRepository) Get(id string) (*capture.Session, bool) {
	x, found := r.cache.Get(id)
	if !found {
		return nil, false
	}
	s := x.(*capture.Session)
	r.cache.Set(id, s, cache.DefaultExpiration)
	return s, true
}

func (r *CaptureSessionRepository) Delete(id string) {
	r.cache.Delete(id)
}

func (r *CaptureSessionRepository) Count() int {
	return r.cache.ItemCount()
}

// Flush closes every open session.
func (r *CaptureSessionRepository) Flush() {
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
