package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/codyseavey/cardscout/internal/metrics"
	"github.com/codyseavey/cardscout/internal/models"
)

// SessionStore keeps the selected card per dashboard session. Entries are
// evicted least recently used first and expire ttl after the last Select.
type SessionStore struct {
	cache *expirable.LRU[string, models.Selection]
	now   func() time.Time
}

func NewSessionStore(capacity int, ttl time.Duration) *SessionStore {
	onEvict := func(string, models.Selection) {
		metrics.ActiveSessions.Dec()
	}
	return &SessionStore{
		cache: expirable.NewLRU[string, models.Selection](capacity, onEvict, ttl),
		now:   time.Now,
	}
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.New().String()
}

// Select makes cardID the selection of sessionID, replacing any previous one.
func (s *SessionStore) Select(sessionID, cardID string) (models.Selection, error) {
	cardID = strings.TrimSpace(cardID)
	if sessionID == "" {
		return models.Selection{}, ErrEmptySession
	}
	if cardID == "" {
		return models.Selection{}, ErrEmptyCardID
	}

	sel := models.Selection{
		SessionID:  sessionID,
		CardID:     cardID,
		SelectedAt: s.now(),
	}
	// Add on an existing key does not call onEvict, so only count new keys.
	if !s.cache.Contains(sessionID) {
		metrics.ActiveSessions.Inc()
	}
	s.cache.Add(sessionID, sel)
	return sel, nil
}

// Get returns the current selection, if any.
func (s *SessionStore) Get(sessionID string) (models.Selection, bool) {
	if sessionID == "" {
		return models.Selection{}, false
	}
	return s.cache.Get(sessionID)
}

// Clear drops the selection ("back" in the dashboard). Clearing a session
// without a selection is a no-op.
func (s *SessionStore) Clear(sessionID string) {
	if sessionID == "" {
		return
	}
	s.cache.Remove(sessionID)
}

func (s *SessionStore) Len() int {
	return s.cache.Len()
}
