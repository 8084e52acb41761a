package services

import (
	"context"
	"fmt"

	"github.com/codyseavey/cardscout/internal/config"
	"github.com/codyseavey/cardscout/internal/models"
)

// CardSource is a marketplace or pricing backend that can search cards and
// report prices for one of them.
type CardSource interface {
	Name() string
	Search(ctx context.Context, query models.SearchQuery, page models.Page) (*models.SearchOutcome, error)
	Prices(ctx context.Context, cardID string) (*models.PriceReport, error)
}

// RelatedSource is implemented by sources that list similar single cards.
type RelatedSource interface {
	Related(ctx context.Context, cardID string) ([]models.CardSummary, error)
}

// DetailSource is implemented by sources with a card detail lookup.
type DetailSource interface {
	Detail(ctx context.Context, cardID string) (*models.CardDetail, error)
}

// Capabilities lists the optional operations src supports.
func Capabilities(src CardSource) []string {
	caps := []string{"search", "prices"}
	if _, ok := src.(RelatedSource); ok {
		caps = append(caps, "related")
	}
	if _, ok := src.(DetailSource); ok {
		caps = append(caps, "detail")
	}
	return caps
}

// NewCardSource builds the source named by cfg.CardSource. The returned
// close function releases browser resources and is never nil.
func NewCardSource(cfg *config.Config, classifier *Classifier) (CardSource, func(), error) {
	noop := func() {}

	var filter RecordFilter
	if classifier != nil && cfg.Snkrdunk.FiltersSingles() {
		filter = classifier.IsPokemonSingle
	}

	snkrdunkClient := func() *HTTPFetcher {
		return NewHTTPFetcher(NewHTTPClient(HTTPClientOptions{
			Source:            "snkrdunk",
			Timeout:           cfg.Snkrdunk.Timeout.Std(),
			RequestsPerSecond: cfg.Snkrdunk.RequestsPerSecond,
			CloudflareBypass:  cfg.Snkrdunk.CloudflareBypass,
			Headers:           SnkrdunkHeaders(),
		}), "snkrdunk")
	}

	switch cfg.CardSource {
	case config.SourceSnkrdunkAPI:
		return NewSnkrdunkAPISource(snkrdunkClient(), cfg.Snkrdunk.BaseURL, filter), noop, nil

	case config.SourceSnkrdunkHTML:
		return NewSnkrdunkHTMLSource(config.SourceSnkrdunkHTML, snkrdunkClient(), cfg.Snkrdunk.WebURL, filter), noop, nil

	case config.SourceSnkrdunkBrowser:
		browser := NewBrowserFetcher(BrowserOptions{
			ChromeBin:    cfg.Browser.ChromeBin,
			WaitSelector: cfg.Browser.WaitSelector,
			Timeout:      cfg.Browser.Timeout.Std(),
		})
		return NewSnkrdunkHTMLSource(config.SourceSnkrdunkBrowser, browser, cfg.Snkrdunk.WebURL, filter), browser.Close, nil

	case config.SourcePokemonPriceTracker:
		return NewPokemonPriceTrackerService(cfg.PokemonPriceTracker.APIKey, cfg.PokemonPriceTracker.BaseURL), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown card source %q", cfg.CardSource)
	}
}
