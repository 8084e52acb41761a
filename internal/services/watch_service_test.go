package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/codyseavey/cardscout/internal/models"
)

type fakePricer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakePricer) Prices(_ context.Context, cardID string) (*models.PriceReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, cardID)
	if f.fail[cardID] {
		return nil, errors.New("upstream blocked")
	}
	return &models.PriceReport{CardID: cardID, Stats: Summarize([]float64{100})}, nil
}

func TestNewWatchServiceSchedule(t *testing.T) {
	for _, schedule := range []string{"@every 6h", "0 */6 * * *", "@daily"} {
		if _, err := NewWatchService(&fakePricer{}, nil, schedule); err != nil {
			t.Errorf("schedule %q: %v", schedule, err)
		}
	}
	if _, err := NewWatchService(&fakePricer{}, nil, "every six hours"); err == nil {
		t.Error("expected an error for an invalid schedule")
	}
}

func TestWatchRefreshAll(t *testing.T) {
	pricer := &fakePricer{fail: map[string]bool{"2": true}}
	w, err := NewWatchService(pricer, []string{"1", "2", "3"}, "@every 1h")
	if err != nil {
		t.Fatalf("NewWatchService: %v", err)
	}

	if failures := w.RefreshAll(context.Background()); failures != 1 {
		t.Errorf("failures = %d, want 1", failures)
	}
	if len(pricer.calls) != 3 {
		t.Errorf("calls = %v, want every card refreshed", pricer.calls)
	}

	status := w.Status()
	if status.LastFailures != 1 || status.LastRun.IsZero() || status.Schedule != "@every 1h" {
		t.Errorf("status = %+v", status)
	}
}

func TestWatchRefreshStopsOnCancel(t *testing.T) {
	pricer := &fakePricer{}
	w, err := NewWatchService(pricer, []string{"1", "2"}, "@every 1h")
	if err != nil {
		t.Fatalf("NewWatchService: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.RefreshAll(ctx)
	if len(pricer.calls) != 0 {
		t.Errorf("calls = %v, want none after cancel", pricer.calls)
	}
}

func TestWatchStartRunsOnceAndStops(t *testing.T) {
	pricer := &fakePricer{}
	w, err := NewWatchService(pricer, []string{"1"}, "@every 1h")
	if err != nil {
		t.Fatalf("NewWatchService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		pricer.mu.Lock()
		n := len(pricer.calls)
		pricer.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial refresh did not run")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
