package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codyseavey/cardscout/internal/config"
	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/models"
)

const pokemonPriceTrackerBaseURL = "https://www.pokemonpricetracker.com/api/v2"

// PokemonPriceTrackerService is the documented pricing API, used as an
// alternative to scraping the marketplace. Every call needs an API key.
type PokemonPriceTrackerService struct {
	fetcher *HTTPFetcher
	apiKey  string
	baseURL string
}

func NewPokemonPriceTrackerService(apiKey, baseURL string) *PokemonPriceTrackerService {
	if baseURL == "" {
		baseURL = pokemonPriceTrackerBaseURL
	}
	client := NewHTTPClient(HTTPClientOptions{
		Source:  config.SourcePokemonPriceTracker,
		Timeout: 30 * time.Second,
		Headers: map[string]string{"Accept": "application/json"},
	})
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &PokemonPriceTrackerService{
		fetcher: NewHTTPFetcher(client, config.SourcePokemonPriceTracker),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *PokemonPriceTrackerService) Name() string { return config.SourcePokemonPriceTracker }

type pptSearchResponse struct {
	Data     []pptCard   `json:"data"`
	Metadata pptMetadata `json:"metadata"`
}

type pptMetadata struct {
	Total   int  `json:"total"`
	Count   int  `json:"count"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type pptCard struct {
	Prices      pptPrices `json:"prices"`
	ID          string    `json:"id"`
	TCGPlayerID string    `json:"tcgPlayerId"`
	Name        string    `json:"name"`
	SetName     string    `json:"setName"`
	SetID       string    `json:"setId"`
	CardNumber  string    `json:"cardNumber"`
	Rarity      string    `json:"rarity"`
	ImageURL    string    `json:"imageUrl"`
	ImageCdnUrl string    `json:"imageCdnUrl"`
}

type pptPrices struct {
	// Variants maps variant ("Holofoil") to condition ("Near Mint") to an
	// object holding at least "price". Kept untyped to preserve order.
	Variants jsonval.Value `json:"variants"`
	Market   float64       `json:"market"`
}

func (s *PokemonPriceTrackerService) fetchCards(ctx context.Context, params url.Values) (*pptSearchResponse, jsonval.Value, error) {
	if s.apiKey == "" {
		return nil, jsonval.Value{}, ErrMissingAPIKey
	}

	body, err := s.fetcher.FetchBody(ctx, s.baseURL+"/cards", params)
	if err != nil {
		return nil, jsonval.Value{}, fmt.Errorf("pokemon price tracker: %w", err)
	}

	var resp pptSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, jsonval.Value{}, fmt.Errorf("failed to decode response: %w", err)
	}
	raw, err := jsonval.Parse(body)
	if err != nil {
		return nil, jsonval.Value{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return &resp, raw, nil
}

// Search looks cards up by the joined keyword.
func (s *PokemonPriceTrackerService) Search(ctx context.Context, query models.SearchQuery, page models.Page) (*models.SearchOutcome, error) {
	query = query.Trimmed()
	if query.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	params := url.Values{
		"search": {query.Keyword()},
		"limit":  {strconv.Itoa(page.PerPage)},
		"offset": {strconv.Itoa((page.Number - 1) * page.PerPage)},
	}
	resp, raw, err := s.fetchCards(ctx, params)
	if err != nil {
		return nil, err
	}

	records := ExtractRecords(raw)
	cards := make([]models.CardSummary, 0, len(resp.Data))
	for i, pc := range resp.Data {
		card := s.convertToCard(pc)
		if i < len(records) {
			card.Raw = records[i]
		}
		cards = append(cards, card)
	}

	return &models.SearchOutcome{
		Source:  s.Name(),
		Query:   query,
		Keyword: query.Keyword(),
		Cards:   cards,
		Raw:     raw,
	}, nil
}

// Prices turns the card's per-variant, per-condition prices into listings.
// Cards without variant prices fall back to the market price.
func (s *PokemonPriceTrackerService) Prices(ctx context.Context, cardID string) (*models.PriceReport, error) {
	if strings.TrimSpace(cardID) == "" {
		return nil, ErrEmptyCardID
	}

	// PokemonPriceTracker uses tcgPlayerId for lookups
	resp, raw, err := s.fetchCards(ctx, url.Values{"tcgPlayerId": {cardID}})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}

	pc := resp.Data[0]
	listings := variantListings(pc.Prices.Variants)
	prices := ListingPrices(listings)
	if len(prices) == 0 && pc.Prices.Market > 0 {
		market := pc.Prices.Market
		listings = append(listings, models.Listing{Price: &market, Condition: "Market", IsOnSale: true})
		prices = []float64{market}
	}

	return buildPriceReport(cardID, s.Name(), raw, listings, prices), nil
}

func variantListings(variants jsonval.Value) []models.Listing {
	listings := []models.Listing{}
	byVariant, _ := variants.AsObject()
	for _, variant := range byVariant {
		byCondition, _ := variant.Value.AsObject()
		for _, cond := range byCondition {
			p, ok := listingPrice(cond.Value)
			if !ok {
				// bare number instead of {"price": n}
				if p, ok = priceOf(cond.Value); !ok || p <= 0 {
					continue
				}
			}
			listings = append(listings, models.Listing{
				Price:     &p,
				Condition: variant.Key + " / " + cond.Key,
				Grade:     models.NormalizeCondition(cond.Key),
				IsOnSale:  true,
			})
		}
	}
	return listings
}

func (s *PokemonPriceTrackerService) convertToCard(pc pptCard) models.CardSummary {
	// Use the best available image
	imageURL := pc.ImageURL
	if pc.ImageCdnUrl != "" {
		imageURL = pc.ImageCdnUrl
	}

	id := pc.TCGPlayerID
	if id == "" {
		id = pc.ID
	}

	return models.CardSummary{
		ID:        id,
		Name:      pc.Name,
		ImageURL:  imageURL,
		Number:    pc.CardNumber,
		SetName:   pc.SetName,
		Rarity:    pc.Rarity,
		BrandName: "Pokemon",
	}
}
