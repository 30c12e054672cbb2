package memory

import (
	"context"
	"time"

	"pdf-annotator-be/pkg/annotation"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps sessions in process memory. Sessions are copied on
// the way in and out so concurrent requests never share slices.
type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates a cache whose entries expire after ttl and
// which purges expired items every ttl/6. onEvict, when set, runs for every
// entry that expires or is deleted.
func NewSessionRepository(ttl time.Duration, onEvict func(*annotation.Session)) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, ttl/6)
	if onEvict != nil {
		c.OnEvicted(func(_ string, v interface{}) {
			if s, ok := v.(*annotation.Session); ok {
				onEvict(s)
			}
		})
	}
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(_ context.Context, session *annotation.Session) error {
	r.cache.Set(session.ID, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, sessionID string) (*annotation.Session, bool, error) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*annotation.Session).Clone(), true, nil
	}
	return nil, false, nil
}

func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

// Len reports the number of stored sessions, expired ones included until the
// next purge.
func (r *SessionRepository) Len() int {
	return r.cache.ItemCount()
}
