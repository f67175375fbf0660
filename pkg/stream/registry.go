package stream

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Registry tracks live publishers and their cancel functions by session id,
// so a transport handler can attach to a running session and a cancel
// request can reach its orchestrator goroutine. Entries expire on their own
// in case a terminal cleanup is ever missed.
type Registry struct {
	cache *cache.Cache
}

type liveStream struct {
	publisher *Publisher
	cancel    func()
}

func NewRegistry() *Registry {
	return &Registry{
		cache: cache.New(1*time.Hour, 10*time.Minute),
	}
}

func (r *Registry) Put(sessionID string, p *Publisher, cancel func()) {
	r.cache.Set(sessionID, &liveStream{publisher: p, cancel: cancel}, cache.DefaultExpiration)
}

func (r *Registry) Get(sessionID string) (*Publisher, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*liveStream).publisher, true
	}
	return nil, false
}

// Cancel invokes the session's cancel function if the session is live.
func (r *Registry) Cancel(sessionID string) bool {
	if x, found := r.cache.Get(sessionID); found {
		x.(*liveStream).cancel()
		return true
	}
	return false
}

func (r *Registry) Remove(sessionID string) {
	r.cache.Delete(sessionID)
}

// RemoveAfter drops the entry once the grace window elapses. Terminal
// sessions use it so a consumer that attaches late can still drain the
// queued events before the stream disappears.
func (r *Registry) RemoveAfter(sessionID string, grace time.Duration) {
	time.AfterFunc(grace, func() {
		r.cache.Delete(sessionID)
	})
}
