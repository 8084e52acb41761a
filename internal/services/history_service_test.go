package services

import (
	"errors"
	"testing"
	"time"

	"github.com/codyseavey/cardscout/internal/models"
)

func TestHistoryDisabled(t *testing.T) {
	var nilSvc *HistoryService
	if nilSvc.Enabled() {
		t.Error("nil service should be disabled")
	}

	svc := NewHistoryService(nil)
	if _, err := svc.Record(&models.PriceReport{}); !errors.Is(err, ErrNoHistory) {
		t.Errorf("Record err = %v, want ErrNoHistory", err)
	}
	if _, err := svc.List("1", time.Time{}, 0); !errors.Is(err, ErrNoHistory) {
		t.Errorf("List err = %v, want ErrNoHistory", err)
	}
	if svc.Last("1") != nil {
		t.Error("Last should be nil without a database")
	}
}

func TestHistoryRecordAndList(t *testing.T) {
	svc := NewHistoryService(openTestDB(t))

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * 24 * time.Hour)
	}

	for i, median := range []float64{100, 110, 120, 130} {
		report := &models.PriceReport{
			CardID: "101",
			Source: "snkrdunk-api",
			Stats:  &models.PriceStats{Lowest: median - 10, Highest: median + 10, Average: median, Median: median, TotalListings: i + 1},
		}
		if _, err := svc.Record(report); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	// another card and an empty report
	if _, err := svc.Record(&models.PriceReport{CardID: "202", Stats: &models.PriceStats{Median: 5}}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if snap, err := svc.Record(&models.PriceReport{CardID: "101"}); err != nil || snap != nil {
		t.Errorf("empty report = %+v, %v; want nothing recorded", snap, err)
	}

	all, err := svc.List("101", time.Time{}, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("got %d snapshots, want 4", len(all))
	}
	if all[0].Median != 100 || all[3].Median != 130 {
		t.Errorf("want oldest first, got medians %v..%v", all[0].Median, all[3].Median)
	}

	latest, err := svc.List("101", time.Time{}, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(latest) != 2 || latest[0].Median != 120 || latest[1].Median != 130 {
		t.Errorf("limit should keep the newest two, got %+v", latest)
	}

	since, err := svc.List("101", base.Add(3*24*time.Hour), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(since) != 2 {
		t.Errorf("got %d snapshots since day 3, want 2", len(since))
	}

	if last := svc.Last("101"); last == nil || last.Median != 130 {
		t.Errorf("Last = %+v", last)
	}
	if svc.LastRecorded().IsZero() {
		t.Error("LastRecorded should be set")
	}
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		period string
		want   time.Time
	}{
		{"week", time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)},
		{"month", time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"3month", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"year", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"all", time.Time{}},
		{"", time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := PeriodStart(tt.period, now); !got.Equal(tt.want) {
			t.Errorf("PeriodStart(%q) = %v, want %v", tt.period, got, tt.want)
		}
	}
}
