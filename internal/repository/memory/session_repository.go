package memory

import (
	"time"

	"ai-storycraft-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// PanelSessionRepository keeps live panel sessions in process memory.
// Sessions are conversational state only; nothing here survives a restart.
type PanelSessionRepository struct {
	cache *cache.Cache
}

func NewPanelSessionRepository() *PanelSessionRepository {
	// Sessions idle for an hour are dropped; expired entries are purged
	// every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &PanelSessionRepository{
		cache: c,
	}
}

func (r *PanelSessionRepository) Save(session *store.ModeSession) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *PanelSessionRepository) Get(sessionID string) (*store.ModeSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.ModeSession), true
	}
	return nil, false
}

func (r *PanelSessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
