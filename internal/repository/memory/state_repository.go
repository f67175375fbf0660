package memory

import (
	"time"

	"ai-tutor-be/pkg/rag"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// StateRepository keeps the live pipeline state of in-flight sessions.
// The durable rag_sessions row lags behind this by one checkpoint.
type StateRepository struct {
	cache *cache.Cache
}

func NewStateRepository() *StateRepository {
	// Default expiration of 1 hour, purge every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &StateRepository{
		cache: c,
	}
}

func (r *StateRepository) Save(state *rag.SessionState) {
	r.cache.Set(state.SessionID.String(), state, cache.DefaultExpiration)
}

func (r *StateRepository) Get(sessionID uuid.UUID) (*rag.SessionState, bool) {
	if x, found := r.cache.Get(sessionID.String()); found {
		return x.(*rag.SessionState), true
	}
	return nil, false
}

func (r *StateRepository) Delete(sessionID uuid.UUID) {
	r.cache.Delete(sessionID.String())
}
