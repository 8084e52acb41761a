package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardscout/internal/services"
)

type StatusHandler struct {
	analysis *services.AnalysisService
	sessions *services.SessionStore
	watch    *services.WatchService
}

// NewStatusHandler creates the handler. watch may be nil.
func NewStatusHandler(analysis *services.AnalysisService, sessions *services.SessionStore, watch *services.WatchService) *StatusHandler {
	return &StatusHandler{
		analysis: analysis,
		sessions: sessions,
		watch:    watch,
	}
}

// GetStatus reports the configured source and what it can do.
func (h *StatusHandler) GetStatus(c *gin.Context) {
	src := h.analysis.Source()
	history := h.analysis.History()

	historyStatus := gin.H{"enabled": history.Enabled()}
	if history.Enabled() {
		historyStatus["last_recorded"] = history.LastRecorded()
	}

	body := gin.H{
		"source":       src.Name(),
		"capabilities": services.Capabilities(src),
		"history":      historyStatus,
		"sessions":     h.sessions.Len(),
		"watch":        nil,
	}
	if h.watch != nil {
		body["watch"] = h.watch.Status()
	}
	c.JSON(http.StatusOK, body)
}
