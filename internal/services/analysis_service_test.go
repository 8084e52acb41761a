package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"

	"github.com/codyseavey/cardscout/internal/database"
	"github.com/codyseavey/cardscout/internal/models"
)

// openTestDB opens a throwaway history database. A file is used rather than
// ":memory:" because every pooled connection would get its own empty
// in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// fakeSource is a CardSource with canned answers and no optional
// capabilities.
type fakeSource struct {
	cards    []models.CardSummary
	report   *models.PriceReport
	err      error
	lastPage models.Page
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Search(_ context.Context, q models.SearchQuery, page models.Page) (*models.SearchOutcome, error) {
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	return &models.SearchOutcome{Source: "fake", Query: q, Keyword: q.Keyword(), Cards: f.cards}, nil
}

func (f *fakeSource) Prices(_ context.Context, cardID string) (*models.PriceReport, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.report
	r.CardID = cardID
	return &r, nil
}

// fakeRichSource adds related and detail lookups.
type fakeRichSource struct {
	fakeSource
}

func (f *fakeRichSource) Related(context.Context, string) ([]models.CardSummary, error) {
	return nil, nil
}

func (f *fakeRichSource) Detail(_ context.Context, cardID string) (*models.CardDetail, error) {
	return &models.CardDetail{CardSummary: models.CardSummary{ID: cardID, Name: "Pikachu"}, Source: "fake"}, nil
}

func TestAnalysisSearch(t *testing.T) {
	src := &fakeSource{cards: []models.CardSummary{{ID: "1", Name: "Pichu"}, {ID: "2", Name: "Pikachu"}}}
	svc := NewAnalysisService(src, nil)
	ctx := context.Background()

	if _, err := svc.Search(ctx, models.SearchQuery{}, SearchOptions{}); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("empty query err = %v, want ErrEmptyQuery", err)
	}
	if _, err := svc.Search(ctx, models.SearchQuery{CharacterName: "Pikachu"}, SearchOptions{Sort: "price"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad sort err = %v, want ErrInvalidInput", err)
	}

	outcome, err := svc.Search(ctx, models.SearchQuery{CharacterName: "Pikachu"}, SearchOptions{Page: models.Page{PerPage: 500}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if outcome.Cards[0].ID != "1" {
		t.Error("default sort should keep upstream order")
	}
	if src.lastPage != (models.Page{Number: 1, PerPage: models.MaxPerPage}) {
		t.Errorf("page = %+v, want clamped", src.lastPage)
	}

	ranked, err := svc.Search(ctx, models.SearchQuery{CharacterName: "Pikachu"}, SearchOptions{Sort: SortRelevance})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if ranked.Cards[0].ID != "2" {
		t.Errorf("relevance sort first card = %+v", ranked.Cards[0])
	}
}

func TestAnalysisPricesFillsReportAndRecordsHistory(t *testing.T) {
	history := NewHistoryService(openTestDB(t))

	src := &fakeSource{report: &models.PriceReport{Source: "fake", Prices: []float64{10, 20, 30, 40}}}
	svc := NewAnalysisService(src, history)

	report, err := svc.Prices(context.Background(), " 101 ")
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if report.Stats == nil || report.Stats.Median != 30 || report.Stats.Average != 25 {
		t.Errorf("stats = %+v", report.Stats)
	}
	if report.Analysis == nil || report.Analysis.Range != 30 {
		t.Errorf("analysis = %+v", report.Analysis)
	}
	if len(report.Chart) != 4 || report.Chart[3] != (models.ChartPoint{Index: 4, Price: 40}) {
		t.Errorf("chart = %+v", report.Chart)
	}
	if report.Listings == nil {
		t.Error("listings should be an empty slice, not nil")
	}

	last := history.Last("101")
	if last == nil || last.Median != 30 || last.Source != "fake" {
		t.Errorf("last snapshot = %+v", last)
	}
}

func TestAnalysisPricesErrors(t *testing.T) {
	svc := NewAnalysisService(&fakeSource{err: ErrMissingAPIKey}, nil)
	if _, err := svc.Prices(context.Background(), ""); !errors.Is(err, ErrEmptyCardID) {
		t.Errorf("blank id err = %v", err)
	}
	if _, err := svc.Prices(context.Background(), "1"); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestAnalysisCapabilities(t *testing.T) {
	ctx := context.Background()

	plain := NewAnalysisService(&fakeSource{}, nil)
	if _, err := plain.Related(ctx, "1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Related err = %v, want ErrUnsupported", err)
	}
	if _, err := plain.Detail(ctx, "1"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Detail err = %v, want ErrUnsupported", err)
	}

	rich := NewAnalysisService(&fakeRichSource{}, nil)
	related, err := rich.Related(ctx, "1")
	if err != nil || related == nil {
		t.Errorf("Related = %v, %v; want empty slice", related, err)
	}
	detail, err := rich.Detail(ctx, "1")
	if err != nil || detail.Name != "Pikachu" {
		t.Errorf("Detail = %+v, %v", detail, err)
	}
}

func TestAnalysisManualPrices(t *testing.T) {
	svc := NewAnalysisService(&fakeSource{}, nil)

	result, err := svc.ManualPrices("1000, 1200, 950")
	if err != nil {
		t.Fatalf("ManualPrices: %v", err)
	}
	if diff := cmp.Diff([]float64{1000, 1200, 950}, result.Prices); diff != "" {
		t.Errorf("prices mismatch (-want +got):\n%s", diff)
	}
	if result.Stats.Average != 1050 || result.Stats.Median != 1000 {
		t.Errorf("stats = %+v", result.Stats)
	}

	mixed, err := svc.ManualPrices("abc 500 -3")
	if err != nil {
		t.Fatalf("ManualPrices: %v", err)
	}
	if diff := cmp.Diff([]string{"abc", "-3"}, mixed.Invalid); diff != "" {
		t.Errorf("invalid mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.ManualPrices("   "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank err = %v, want ErrInvalidInput", err)
	}
}
