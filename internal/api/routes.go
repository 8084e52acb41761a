package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/cardscout/internal/api/handlers"
	"github.com/codyseavey/cardscout/internal/config"
	"github.com/codyseavey/cardscout/internal/services"
)

// SetupRouter wires the dashboard API. watch may be nil.
func SetupRouter(cfg *config.Config, analysis *services.AnalysisService, sessions *services.SessionStore, watch *services.WatchService) *gin.Engine {
	router := gin.Default()
	router.Use(metricsMiddleware())

	frontendPath := cfg.FrontendDistPath
	serveFrontend := frontendPath != "" && dirExists(frontendPath)

	// CORS configuration - allow origins from config or use defaults
	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	// the session cookie has to cross origins in dev
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	cardHandler := handlers.NewCardHandler(analysis)
	priceHandler := handlers.NewPriceHandler(analysis)
	sessionHandler := handlers.NewSessionHandler(sessions, cfg.Session.TTL.Std())
	statusHandler := handlers.NewStatusHandler(analysis, sessions, watch)

	api := router.Group("/api")
	{
		api.GET("/status", statusHandler.GetStatus)

		cards := api.Group("/cards")
		{
			cards.GET("/search", cardHandler.SearchCards)
			cards.GET("/:id", cardHandler.GetCard)
			cards.GET("/:id/prices", priceHandler.GetCardPrices)
			cards.GET("/:id/related", cardHandler.GetRelatedCards)
			cards.GET("/:id/history", priceHandler.GetPriceHistory)
		}

		prices := api.Group("/prices")
		{
			prices.POST("/manual", priceHandler.ParseManualPrices)
		}

		session := api.Group("/session")
		{
			session.GET("", sessionHandler.GetSession)
			session.PUT("/selection", sessionHandler.SelectCard)
			session.DELETE("/selection", sessionHandler.ClearSelection)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Serve frontend static files
	if serveFrontend {
		indexPath := filepath.Join(frontendPath, "index.html")

		router.Static("/assets", filepath.Join(frontendPath, "assets"))
		router.StaticFile("/vite.svg", filepath.Join(frontendPath, "vite.svg"))

		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback - serve index.html for all non-API routes
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.File(indexPath)
		})
	}

	return router
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
