package services

import (
	"fmt"
	"log"

	"github.com/codyseavey/cardscout/internal/config"
	"github.com/codyseavey/cardscout/internal/database"
)

// Bootstrap builds the analysis service described by cfg: classifier,
// card source and, when HISTORY_DB_PATH is set, the history store. The
// returned cleanup releases the browser and the database and is never nil.
func Bootstrap(cfg *config.Config) (*AnalysisService, func(), error) {
	rules, err := cfg.ClassifierRules(DefaultClassifierRules())
	if err != nil {
		return nil, func() {}, err
	}
	classifier, err := NewClassifier(rules)
	if err != nil {
		return nil, func() {}, fmt.Errorf("classifier rules: %w", err)
	}

	source, closeSource, err := NewCardSource(cfg, classifier)
	if err != nil {
		return nil, closeSource, err
	}
	log.Printf("Card source: %s (%v)", source.Name(), Capabilities(source))

	var history *HistoryService
	cleanup := closeSource
	if cfg.History.Enabled() {
		if err := database.Initialize(cfg.History.DBPath); err != nil {
			closeSource()
			return nil, func() {}, fmt.Errorf("failed to initialize history database: %w", err)
		}
		history = NewHistoryService(database.GetDB())
		cleanup = func() {
			closeSource()
			if err := database.Close(); err != nil {
				log.Printf("Failed to close history database: %v", err)
			}
		}
	} else {
		log.Println("Price history disabled (set HISTORY_DB_PATH to enable)")
	}

	return NewAnalysisService(source, history), cleanup, nil
}
