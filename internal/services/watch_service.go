package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/codyseavey/cardscout/internal/metrics"
	"github.com/codyseavey/cardscout/internal/models"
)

// Pricer is the part of AnalysisService the watch list needs.
type Pricer interface {
	Prices(ctx context.Context, cardID string) (*models.PriceReport, error)
}

// WatchStatus is reported by /api/status.
type WatchStatus struct {
	CardIDs      []string  `json:"card_ids"`
	Schedule     string    `json:"schedule"`
	LastRun      time.Time `json:"last_run"`
	LastFailures int       `json:"last_failures"`
}

// WatchService refreshes the prices of a fixed list of cards on a cron
// schedule. Every refresh goes through Pricer, so with history enabled each
// one leaves a snapshot behind. Failures are logged and counted, never fatal.
type WatchService struct {
	pricer   Pricer
	cardIDs  []string
	schedule string
	cron     *cron.Cron

	mu           sync.RWMutex
	lastRun      time.Time
	lastFailures int
}

// NewWatchService validates schedule (standard 5-field cron or a
// descriptor such as "@every 6h").
func NewWatchService(pricer Pricer, cardIDs []string, schedule string) (*WatchService, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid WATCH_SCHEDULE %q: %w", schedule, err)
	}

	logger := cron.PrintfLogger(log.New(os.Stderr, "cron: ", log.LstdFlags))
	return &WatchService{
		pricer:   pricer,
		cardIDs:  cardIDs,
		schedule: schedule,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}, nil
}

// Start schedules the refresh and blocks until ctx is done. It runs one
// refresh right away so a fresh deployment has data before the first tick.
func (w *WatchService) Start(ctx context.Context) error {
	if len(w.cardIDs) == 0 {
		log.Println("Watch service: no WATCH_CARD_IDS configured, not starting")
		return nil
	}

	if _, err := w.cron.AddFunc(w.schedule, func() { w.RefreshAll(ctx) }); err != nil {
		return fmt.Errorf("schedule watch refresh: %w", err)
	}
	log.Printf("Watch service started: %d cards, schedule %q", len(w.cardIDs), w.schedule)

	w.RefreshAll(ctx)
	w.cron.Start()

	<-ctx.Done()
	log.Println("Watch service stopping...")
	<-w.cron.Stop().Done()
	return nil
}

// RefreshAll fetches prices for every watched card, one at a time, and
// returns the number of failures.
func (w *WatchService) RefreshAll(ctx context.Context) int {
	refreshed, failures := 0, 0
	for _, id := range w.cardIDs {
		if ctx.Err() != nil {
			break
		}
		report, err := w.pricer.Prices(ctx, id)
		if err != nil {
			failures++
			metrics.WatchRunsTotal.WithLabelValues("failed").Inc()
			log.Printf("Watch service: failed to refresh card %s: %v", id, err)
			continue
		}
		refreshed++
		metrics.WatchRunsTotal.WithLabelValues("ok").Inc()
		if report.Stats == nil {
			log.Printf("Watch service: card %s has no prices", id)
		}
	}

	w.mu.Lock()
	w.lastRun = time.Now()
	w.lastFailures = failures
	w.mu.Unlock()

	log.Printf("Watch service: refreshed %d cards (%d failed)", refreshed, failures)
	return failures
}

func (w *WatchService) Status() WatchStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WatchStatus{
		CardIDs:      w.cardIDs,
		Schedule:     w.schedule,
		LastRun:      w.lastRun,
		LastFailures: w.lastFailures,
	}
}
