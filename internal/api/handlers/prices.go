package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/models"
	"github.com/codyseavey/cardscout/internal/services"
)

type PriceHandler struct {
	analysis *services.AnalysisService
}

func NewPriceHandler(analysis *services.AnalysisService) *PriceHandler {
	return &PriceHandler{analysis: analysis}
}

type priceResponse struct {
	*models.PriceReport
	Raw *jsonval.Value `json:"raw,omitempty"`
}

// GetCardPrices returns listings, stats, analysis and the chart series.
// raw=true adds the upstream response.
func (h *PriceHandler) GetCardPrices(c *gin.Context) {
	report, err := h.analysis.Prices(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp := priceResponse{PriceReport: report}
	if queryBool(c, "raw") {
		resp.Raw = &report.Raw
	}
	c.JSON(http.StatusOK, resp)
}

// GetPriceHistory returns stored snapshots, oldest first.
// Query: period (week, month, 3month, year, all), limit.
func (h *PriceHandler) GetPriceHistory(c *gin.Context) {
	cardID := strings.TrimSpace(c.Param("id"))
	history := h.analysis.History()
	if !history.Enabled() {
		respondError(c, services.ErrNoHistory)
		return
	}

	limit, err := queryInt(c, "limit", services.DefaultHistoryLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	since := services.PeriodStart(c.DefaultQuery("period", "all"), time.Now())
	snapshots, err := history.List(cardID, since, limit)
	if err != nil {
		log.Printf("Failed to load price history for card %s: %v", cardID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load price history"})
		return
	}

	c.JSON(http.StatusOK, models.PriceHistoryResponse{
		CardID:    cardID,
		Snapshots: snapshots,
	})
}

type manualPriceRequest struct {
	Text string `json:"text"`
}

// ParseManualPrices summarizes prices the user typed in.
func (h *PriceHandler) ParseManualPrices(c *gin.Context) {
	var req manualPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.analysis.ManualPrices(req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
