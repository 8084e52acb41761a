package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardscout/internal/models"
	"github.com/codyseavey/cardscout/internal/services"
)

const (
	// SearchDisplayLimit is how many search results the dashboard shows.
	SearchDisplayLimit = 15
	// RelatedDisplayLimit is how many related cards the dashboard shows.
	RelatedDisplayLimit = 9
)

type CardHandler struct {
	analysis *services.AnalysisService
}

func NewCardHandler(analysis *services.AnalysisService) *CardHandler {
	return &CardHandler{analysis: analysis}
}

// SearchCards runs a marketplace search.
// Query: character, set, number, page, per_page, sort, debug, raw.
func (h *CardHandler) SearchCards(c *gin.Context) {
	var query models.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	perPage, err := queryInt(c, "per_page", models.DefaultPerPage)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	debug := queryBool(c, "debug")

	outcome, err := h.analysis.Search(c.Request.Context(), query, services.SearchOptions{
		Page: models.Page{Number: page, PerPage: perPage},
		Sort: c.Query("sort"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if outcome.Probe != nil && !outcome.Probe.Success {
		body := gin.H{
			"error":          fmt.Sprintf("no cards found for %q", outcome.Keyword),
			"total_attempts": outcome.Probe.TotalAttempts,
		}
		if debug {
			body["errors"] = outcome.Probe.Errors
		}
		c.JSON(http.StatusNotFound, body)
		return
	}

	shown := outcome.Cards
	if len(shown) > SearchDisplayLimit {
		shown = shown[:SearchDisplayLimit]
	}
	body := gin.H{
		"source":    outcome.Source,
		"query":     outcome.Query,
		"keyword":   outcome.Keyword,
		"cards":     shown,
		"total":     len(outcome.Cards),
		"remaining": len(outcome.Cards) - len(shown),
	}
	if debug && outcome.Probe != nil {
		body["probe"] = outcome.Probe
	}
	if queryBool(c, "raw") {
		body["raw"] = outcome.Raw
	}
	c.JSON(http.StatusOK, body)
}

// GetCard returns the detail projection and the upstream record.
func (h *CardHandler) GetCard(c *gin.Context) {
	detail, err := h.analysis.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"card": detail,
		"raw":  detail.Raw,
	})
}

func (h *CardHandler) GetRelatedCards(c *gin.Context) {
	cards, err := h.analysis.Related(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	shown := cards
	if len(shown) > RelatedDisplayLimit {
		shown = shown[:RelatedDisplayLimit]
	}
	c.JSON(http.StatusOK, gin.H{
		"card_id": c.Param("id"),
		"cards":   shown,
		"total":   len(cards),
	})
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	s := c.Query(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}
