package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/codyseavey/cardscout/internal/config"
	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/metrics"
	"github.com/codyseavey/cardscout/internal/models"
)

// Query parameters of the marketplace's listing endpoints.
const (
	usedListingsPerPage = 16
	relatedPerPage      = 10
)

// Keys under which a detail response may wrap the card object.
var detailWrapperKeys = []string{"data", "tradingCard", "item", "product"}

// SnkrdunkAPISource talks to the marketplace's undocumented JSON API.
// The search endpoint's parameter names are not known, so searches run the
// attempt list from BuildSearchAttempts through a Prober.
type SnkrdunkAPISource struct {
	fetcher Fetcher
	prober  *Prober
	baseURL string
}

func NewSnkrdunkAPISource(fetcher Fetcher, baseURL string, filter RecordFilter) *SnkrdunkAPISource {
	return &SnkrdunkAPISource{
		fetcher: fetcher,
		prober:  NewProber(fetcher, filter),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *SnkrdunkAPISource) Name() string { return config.SourceSnkrdunkAPI }

// BuildSearchAttempts lists the parameter combinations tried against the
// trading-cards endpoint, most specific first. The character-only attempt
// is included only when a character name is given; the last attempt is
// the unfiltered listing.
func BuildSearchAttempts(baseURL string, q models.SearchQuery, page models.Page) []Attempt {
	endpoint := strings.TrimRight(baseURL, "/") + "/trading-cards"
	keyword := q.Keyword()
	pageNum := strconv.Itoa(page.Number)
	perPage := strconv.Itoa(page.PerPage)

	attempts := []Attempt{
		{URL: endpoint, Params: url.Values{"keyword": {keyword}, "page": {pageNum}, "perPage": {perPage}, "sortType": {"popular"}}},
		{URL: endpoint, Params: url.Values{
			"characterName": {q.CharacterName},
			"setName":       {q.SetName},
			"number":        {q.CardNumber},
			"page":          {pageNum},
			"perPage":       {perPage},
		}},
		{URL: endpoint, Params: url.Values{"q": {keyword}, "page": {pageNum}, "perPage": {perPage}}},
		{URL: endpoint, Params: url.Values{"search": {keyword}, "page": {pageNum}, "limit": {perPage}}},
		{URL: endpoint, Params: url.Values{"name": {keyword}, "page": {pageNum}, "perPage": {perPage}}},
	}
	if q.CharacterName != "" {
		attempts = append(attempts, Attempt{URL: endpoint, Params: url.Values{"character": {q.CharacterName}, "page": {pageNum}, "perPage": {perPage}}})
	}
	attempts = append(attempts, Attempt{URL: endpoint, Params: url.Values{"page": {pageNum}, "perPage": {perPage}}})
	return attempts
}

// Search probes the attempt list. When every attempt fails the outcome has
// no cards and Probe carries the per-attempt errors; that is not an error.
func (s *SnkrdunkAPISource) Search(ctx context.Context, query models.SearchQuery, page models.Page) (*models.SearchOutcome, error) {
	query = query.Trimmed()
	if query.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	result := s.prober.Probe(ctx, BuildSearchAttempts(s.baseURL, query, page))
	if !result.Success {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	cards := result.Cards
	if cards == nil {
		cards = []models.CardSummary{}
	}
	return &models.SearchOutcome{
		Source:  s.Name(),
		Query:   query,
		Keyword: query.Keyword(),
		Cards:   cards,
		Probe:   result,
		Raw:     result.Data,
	}, nil
}

func (s *SnkrdunkAPISource) cardURL(cardID string, suffix string) string {
	return s.baseURL + "/trading-cards/" + url.PathEscape(cardID) + suffix
}

// UsedListings fetches the latest used listings of a card, on sale or not.
func (s *SnkrdunkAPISource) UsedListings(ctx context.Context, cardID string) (jsonval.Value, error) {
	params := url.Values{
		"perPage":      {strconv.Itoa(usedListingsPerPage)},
		"page":         {"1"},
		"sortType":     {"latest"},
		"isOnlyOnSale": {"false"},
	}
	return s.fetchCard(ctx, cardID, s.cardURL(cardID, "/used-listings"), params)
}

// Prices reports every price found anywhere in the used-listings response.
// Listings are projected separately for the condition and on-sale view.
func (s *SnkrdunkAPISource) Prices(ctx context.Context, cardID string) (*models.PriceReport, error) {
	data, err := s.UsedListings(ctx, cardID)
	if err != nil {
		return nil, err
	}
	return buildPriceReport(cardID, s.Name(), data, ExtractListings(data), CollectPrices(data)), nil
}

// Related returns the similar single cards the marketplace suggests.
func (s *SnkrdunkAPISource) Related(ctx context.Context, cardID string) ([]models.CardSummary, error) {
	params := url.Values{"perPage": {strconv.Itoa(relatedPerPage)}, "page": {"1"}}
	data, err := s.fetchCard(ctx, cardID, s.cardURL(cardID, "/related-single-cards"), params)
	if err != nil {
		return nil, err
	}
	return ProjectCards(ExtractRecords(data)), nil
}

// Detail fetches one card. Wrapped responses ({"data": {...}}) are unwrapped.
func (s *SnkrdunkAPISource) Detail(ctx context.Context, cardID string) (*models.CardDetail, error) {
	data, err := s.fetchCard(ctx, cardID, s.cardURL(cardID, ""), nil)
	if err != nil {
		return nil, err
	}

	record := data
	for _, key := range detailWrapperKeys {
		if inner, ok := data.Get(key); ok && inner.Kind() == jsonval.KindObject {
			record = inner
			break
		}
	}

	card := ProjectCard(record)
	if card.ID == "" {
		card.ID = cardID
	}
	card.Raw = data
	return &models.CardDetail{CardSummary: card, Source: s.Name()}, nil
}

func (s *SnkrdunkAPISource) fetchCard(ctx context.Context, cardID, rawURL string, params url.Values) (jsonval.Value, error) {
	if strings.TrimSpace(cardID) == "" {
		return jsonval.Value{}, ErrEmptyCardID
	}
	data, err := s.fetcher.FetchJSON(ctx, rawURL, params)
	if err != nil {
		if StatusCodeOf(err) == http.StatusNotFound {
			return jsonval.Value{}, fmt.Errorf("card %s: %w", cardID, ErrNotFound)
		}
		return jsonval.Value{}, fmt.Errorf("fetch card %s: %w", cardID, err)
	}
	return data, nil
}

// buildPriceReport attaches stats and analysis. Stats are computed over
// prices; OnSaleCount comes from the projected listings.
func buildPriceReport(cardID, source string, data jsonval.Value, listings []models.Listing, prices []float64) *models.PriceReport {
	if listings == nil {
		listings = []models.Listing{}
	}
	if prices == nil {
		prices = []float64{}
	}

	stats := Summarize(prices)
	if stats != nil {
		for _, l := range listings {
			if l.IsOnSale && l.Price != nil {
				stats.OnSaleCount++
			}
		}
	}

	result := "empty"
	if stats != nil {
		result = "prices"
	}
	metrics.PriceReportsTotal.WithLabelValues(source, result).Inc()

	return &models.PriceReport{
		CardID:   cardID,
		Source:   source,
		Listings: listings,
		Prices:   prices,
		Stats:    stats,
		Analysis: Analyze(stats),
		Raw:      data,
	}
}
