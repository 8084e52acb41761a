package services

import (
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/cardscout/internal/metrics"
	"github.com/codyseavey/cardscout/internal/models"
)

const DefaultHistoryLimit = 100

// HistoryService stores one PriceSnapshot per price lookup. A nil service
// or one without a database reports Enabled() == false.
type HistoryService struct {
	db *gorm.DB

	mu           sync.RWMutex
	lastSnapshot time.Time
	now          func() time.Time
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db, now: time.Now}
}

func (s *HistoryService) Enabled() bool {
	return s != nil && s.db != nil
}

// Record stores the stats of report. Reports without prices have nothing
// to chart and are skipped; the returned snapshot is then nil.
func (s *HistoryService) Record(report *models.PriceReport) (*models.PriceSnapshot, error) {
	if !s.Enabled() {
		return nil, ErrNoHistory
	}
	if report == nil || report.Stats == nil {
		return nil, nil
	}

	now := s.now()
	snapshot := models.PriceSnapshot{
		CardID:        report.CardID,
		Source:        report.Source,
		Lowest:        report.Stats.Lowest,
		Highest:       report.Stats.Highest,
		Average:       report.Stats.Average,
		Median:        report.Stats.Median,
		TotalListings: report.Stats.TotalListings,
		OnSaleCount:   report.Stats.OnSaleCount,
		CapturedAt:    now,
	}
	if err := s.db.Create(&snapshot).Error; err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastSnapshot = now
	s.mu.Unlock()

	metrics.PriceSnapshotsTotal.Inc()
	log.Printf("History: recorded snapshot for card %s from %s (median %.2f, %d listings)",
		report.CardID, report.Source, snapshot.Median, snapshot.TotalListings)
	return &snapshot, nil
}

// PeriodStart maps a period name to the earliest capture time to include.
// "all" returns the zero time; unknown names default to one month.
func PeriodStart(period string, now time.Time) time.Time {
	switch period {
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	case "3month":
		return now.AddDate(0, -3, 0)
	case "year":
		return now.AddDate(-1, 0, 0)
	case "all":
		return time.Time{}
	default:
		return now.AddDate(0, -1, 0)
	}
}

// List returns the most recent snapshots of cardID captured at or after
// since, oldest first, at most limit of them (DefaultHistoryLimit when
// limit <= 0).
func (s *HistoryService) List(cardID string, since time.Time, limit int) ([]models.PriceSnapshot, error) {
	if !s.Enabled() {
		return nil, ErrNoHistory
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := s.db.Where("card_id = ?", cardID)
	if !since.IsZero() {
		query = query.Where("captured_at >= ?", since)
	}

	snapshots := []models.PriceSnapshot{}
	if err := query.Order("captured_at DESC, id DESC").Limit(limit).Find(&snapshots).Error; err != nil {
		return nil, err
	}

	// newest-first from the query, oldest-first for the chart
	for i, j := 0, len(snapshots)-1; i < j; i, j = i+1, j-1 {
		snapshots[i], snapshots[j] = snapshots[j], snapshots[i]
	}
	return snapshots, nil
}

// Last returns the most recent snapshot of cardID, or nil.
func (s *HistoryService) Last(cardID string) *models.PriceSnapshot {
	if !s.Enabled() {
		return nil
	}
	var snapshot models.PriceSnapshot
	if err := s.db.Where("card_id = ?", cardID).Order("captured_at DESC, id DESC").First(&snapshot).Error; err != nil {
		return nil
	}
	return &snapshot
}

// LastRecorded is when this process last stored a snapshot.
func (s *HistoryService) LastRecorded() time.Time {
	if s == nil {
		return time.Time{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshot
}
