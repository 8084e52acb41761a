package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardscout/internal/services"
)

// SessionCookie holds the dashboard session id.
const SessionCookie = "cardscout_session"

type SessionHandler struct {
	sessions *services.SessionStore
	ttl      time.Duration
}

func NewSessionHandler(sessions *services.SessionStore, ttl time.Duration) *SessionHandler {
	return &SessionHandler{sessions: sessions, ttl: ttl}
}

// sessionID reads the session cookie. With create set, a missing cookie is
// replaced by a new id that is sent back to the browser.
func (h *SessionHandler) sessionID(c *gin.Context, create bool) string {
	if id, err := c.Cookie(SessionCookie); err == nil && id != "" {
		return id
	}
	if !create {
		return ""
	}
	id := services.NewSessionID()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(h.ttl.Seconds()), "/", "", false, true)
	return id
}

// GetSession returns the current selection, or null.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sel, ok := h.sessions.Get(h.sessionID(c, false))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"selection": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}

type selectRequest struct {
	CardID string `json:"card_id"`
}

// SelectCard makes a card the current selection of this session.
func (h *SessionHandler) SelectCard(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sel, err := h.sessions.Select(h.sessionID(c, true), req.CardID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}

// ClearSelection is the dashboard's "back" button.
func (h *SessionHandler) ClearSelection(c *gin.Context) {
	h.sessions.Clear(h.sessionID(c, false))
	c.JSON(http.StatusOK, gin.H{"selection": nil})
}
