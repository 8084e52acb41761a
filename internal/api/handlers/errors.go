package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/cardscout/internal/services"
)

// respondError maps a service error to a status code and a JSON body.
// Nothing here ends the process; every failure becomes a response.
func respondError(c *gin.Context, err error) {
	var statusErr *services.HTTPStatusError

	switch {
	case errors.Is(err, services.ErrEmptyQuery),
		errors.Is(err, services.ErrEmptyCardID),
		errors.Is(err, services.ErrEmptySession),
		errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrMissingAPIKey):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "the pricing API key is not configured",
			"detail": err.Error(),
		})

	case errors.Is(err, services.ErrNoHistory):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrUnsupported):
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})

	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("Request timed out: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream request timed out"})

	case errors.As(err, &statusErr):
		log.Printf("Upstream error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		body := gin.H{
			"error":           err.Error(),
			"upstream_status": statusErr.StatusCode,
		}
		if statusErr.Blocked() {
			body["blocked"] = true
			body["error"] = "the marketplace blocked the request (403)"
		}
		c.JSON(http.StatusBadGateway, body)

	default:
		log.Printf("Upstream error: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
