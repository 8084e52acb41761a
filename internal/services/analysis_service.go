package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/codyseavey/cardscout/internal/models"
)

// AnalysisService is what the API and CLI talk to: it validates input,
// delegates to the configured card source and attaches derived numbers.
type AnalysisService struct {
	source  CardSource
	history *HistoryService
}

// NewAnalysisService creates the service. history may be nil.
func NewAnalysisService(source CardSource, history *HistoryService) *AnalysisService {
	return &AnalysisService{
		source:  source,
		history: history,
	}
}

func (s *AnalysisService) Source() CardSource { return s.source }

func (s *AnalysisService) History() *HistoryService { return s.history }

type SearchOptions struct {
	Page models.Page
	// Sort is SortUpstream or SortRelevance.
	Sort string
}

// Search runs the query against the source. A probe that found nothing is
// not an error; the outcome has no cards and a failed Probe.
func (s *AnalysisService) Search(ctx context.Context, query models.SearchQuery, opts SearchOptions) (*models.SearchOutcome, error) {
	query = query.Trimmed()
	if query.IsEmpty() {
		return nil, ErrEmptyQuery
	}
	switch opts.Sort {
	case SortUpstream, SortRelevance:
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidInput, opts.Sort)
	}

	page := models.NewPage(opts.Page.Number, opts.Page.PerPage)
	outcome, err := s.source.Search(ctx, query, page)
	if err != nil {
		return nil, err
	}
	if opts.Sort == SortRelevance {
		outcome.Cards = RankByRelevance(outcome.Cards, outcome.Keyword)
	}
	return outcome, nil
}

// Prices fetches the price report for cardID, fills in anything the source
// left out and records a snapshot when history is enabled. A failed
// snapshot write is logged and does not fail the lookup.
func (s *AnalysisService) Prices(ctx context.Context, cardID string) (*models.PriceReport, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, ErrEmptyCardID
	}

	report, err := s.source.Prices(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if report.Prices == nil {
		report.Prices = []float64{}
	}
	if report.Listings == nil {
		report.Listings = []models.Listing{}
	}
	if report.Stats == nil {
		report.Stats = Summarize(report.Prices)
	}
	if report.Analysis == nil {
		report.Analysis = Analyze(report.Stats)
	}
	report.Chart = ChartSeries(report.Prices)

	if s.history.Enabled() {
		if _, err := s.history.Record(report); err != nil {
			log.Printf("Analysis: failed to record snapshot for card %s: %v", cardID, err)
		}
	}
	return report, nil
}

// Related lists cards similar to cardID, or ErrUnsupported when the source
// cannot.
func (s *AnalysisService) Related(ctx context.Context, cardID string) ([]models.CardSummary, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, ErrEmptyCardID
	}
	rs, ok := s.source.(RelatedSource)
	if !ok {
		return nil, fmt.Errorf("related cards from %s: %w", s.source.Name(), ErrUnsupported)
	}
	cards, err := rs.Related(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []models.CardSummary{}
	}
	return cards, nil
}

// Detail looks one card up, or returns ErrUnsupported when the source has
// no detail lookup.
func (s *AnalysisService) Detail(ctx context.Context, cardID string) (*models.CardDetail, error) {
	cardID = strings.TrimSpace(cardID)
	if cardID == "" {
		return nil, ErrEmptyCardID
	}
	ds, ok := s.source.(DetailSource)
	if !ok {
		return nil, fmt.Errorf("card detail from %s: %w", s.source.Name(), ErrUnsupported)
	}
	return ds.Detail(ctx, cardID)
}

// ManualPrices summarizes prices typed in by the user. No network.
func (s *AnalysisService) ManualPrices(text string) (*models.ManualPriceResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no prices entered", ErrInvalidInput)
	}
	prices, invalid := ParseManualPrices(text)
	stats := Summarize(prices)
	return &models.ManualPriceResult{
		Prices:   prices,
		Invalid:  invalid,
		Stats:    stats,
		Analysis: Analyze(stats),
		Chart:    ChartSeries(prices),
	}, nil
}
