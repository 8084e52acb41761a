package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/models"
)

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	FetchPage(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
}

// FetchPage makes HTTPFetcher a PageFetcher.
func (f *HTTPFetcher) FetchPage(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	return f.FetchBody(ctx, rawURL, params)
}

var (
	cardLinkPattern = regexp.MustCompile(`/trading-cards/(\d+)`)

	// Card tile selectors, most specific first; the first that matches wins.
	cardTileSelectors = []string{
		`[data-testid="product-card"] a[href]`,
		`.product-card a[href]`,
		`.item-card a[href]`,
		`a[href*="/trading-cards/"]`,
	}
	tileNameSelectors = []string{`[class*="name"]`, `[class*="title"]`, `h3`, `p`}

	listingRowSelectors = []string{
		`[data-testid="used-listing"]`,
		`[class*="used-listing"]`,
		`li[class*="listing"]`,
	}

	// Keys of an embedded page state that hold the listing rows.
	listingContainerKeys = []string{"usedListings", "usedTradingCards", "listings", "usedItems"}

	embeddedStateSelectors = []string{`script#__NEXT_DATA__`, `script[type="application/json"]`}
)

// SnkrdunkHTMLSource reads the marketplace's web pages instead of its API.
// The same parser serves plain HTTP and the headless browser; only the
// PageFetcher differs.
type SnkrdunkHTMLSource struct {
	name   string
	pages  PageFetcher
	prober *Prober
	webURL string
}

func NewSnkrdunkHTMLSource(name string, pages PageFetcher, webURL string, filter RecordFilter) *SnkrdunkHTMLSource {
	webURL = strings.TrimRight(webURL, "/")
	return &SnkrdunkHTMLSource{
		name:   name,
		pages:  pages,
		prober: NewProber(&htmlSearchFetcher{pages: pages, baseURL: webURL}, filter),
		webURL: webURL,
	}
}

func (s *SnkrdunkHTMLSource) Name() string { return s.name }

// htmlSearchFetcher turns a search results page into a JSON array of card
// records so the Prober can treat pages like API responses.
type htmlSearchFetcher struct {
	pages   PageFetcher
	baseURL string
}

func (f *htmlSearchFetcher) FetchJSON(ctx context.Context, rawURL string, params url.Values) (jsonval.Value, error) {
	body, err := f.pages.FetchPage(ctx, rawURL, params)
	if err != nil {
		return jsonval.Value{}, err
	}
	records, err := ParseSearchPage(body, f.baseURL)
	if err != nil {
		return jsonval.Value{}, err
	}
	return jsonval.ArrayValue(records...), nil
}

func (s *SnkrdunkHTMLSource) searchAttempts(q models.SearchQuery, page models.Page) []Attempt {
	keyword := q.Keyword()
	pageNum := strconv.Itoa(page.Number)
	return []Attempt{
		{URL: s.webURL + "/search/result", Params: url.Values{"keyword": {keyword}, "page": {pageNum}}},
		{URL: s.webURL + "/trading-cards", Params: url.Values{"keyword": {keyword}, "page": {pageNum}}},
	}
}

func (s *SnkrdunkHTMLSource) Search(ctx context.Context, query models.SearchQuery, page models.Page) (*models.SearchOutcome, error) {
	query = query.Trimmed()
	if query.IsEmpty() {
		return nil, ErrEmptyQuery
	}

	result := s.prober.Probe(ctx, s.searchAttempts(query, page))
	if !result.Success {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	cards := result.Cards
	if cards == nil {
		cards = []models.CardSummary{}
	}
	if len(cards) > page.PerPage && page.PerPage > 0 {
		cards = cards[:page.PerPage]
	}
	return &models.SearchOutcome{
		Source:  s.name,
		Query:   query,
		Keyword: query.Keyword(),
		Cards:   cards,
		Probe:   result,
		Raw:     result.Data,
	}, nil
}

func (s *SnkrdunkHTMLSource) cardPage(ctx context.Context, cardID string) (*goquery.Document, error) {
	if strings.TrimSpace(cardID) == "" {
		return nil, ErrEmptyCardID
	}
	body, err := s.pages.FetchPage(ctx, s.webURL+"/trading-cards/"+url.PathEscape(cardID), nil)
	if err != nil {
		if StatusCodeOf(err) == http.StatusNotFound {
			return nil, fmt.Errorf("card %s: %w", cardID, ErrNotFound)
		}
		return nil, fmt.Errorf("fetch card page %s: %w", cardID, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse card page %s: %w", cardID, err)
	}
	return doc, nil
}

// Prices reads the listings shown on the card page.
func (s *SnkrdunkHTMLSource) Prices(ctx context.Context, cardID string) (*models.PriceReport, error) {
	doc, err := s.cardPage(ctx, cardID)
	if err != nil {
		return nil, err
	}
	data, listings, prices := ParseListingPage(doc)
	return buildPriceReport(cardID, s.name, data, listings, prices), nil
}

// Detail reads the card's Open Graph tags, falling back to the page heading.
func (s *SnkrdunkHTMLSource) Detail(ctx context.Context, cardID string) (*models.CardDetail, error) {
	doc, err := s.cardPage(ctx, cardID)
	if err != nil {
		return nil, err
	}

	meta := func(property string) string {
		val, _ := doc.Find(fmt.Sprintf(`meta[property="%s"]`, property)).Attr("content")
		return strings.TrimSpace(val)
	}

	card := models.CardSummary{
		ID:          cardID,
		Name:        meta("og:title"),
		ImageURL:    meta("og:image"),
		URL:         meta("og:url"),
		Description: meta("og:description"),
	}
	if card.Name == "" {
		card.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	card.Raw = jsonval.ObjectValue(
		jsonval.Member{Key: "id", Value: jsonval.StringValue(card.ID)},
		jsonval.Member{Key: "name", Value: jsonval.StringValue(card.Name)},
		jsonval.Member{Key: "imageUrl", Value: jsonval.StringValue(card.ImageURL)},
		jsonval.Member{Key: "url", Value: jsonval.StringValue(card.URL)},
		jsonval.Member{Key: "description", Value: jsonval.StringValue(card.Description)},
	)
	return &models.CardDetail{CardSummary: card, Source: s.name}, nil
}

// ParseSearchPage extracts card records from a search results page. The
// page's embedded JSON state is preferred; otherwise card tiles are
// scraped with the selector fallbacks.
func ParseSearchPage(body []byte, baseURL string) ([]jsonval.Value, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	if state, ok := embeddedState(doc); ok {
		if records := FindRecords(state); len(records) > 0 {
			return records, nil
		}
	}
	return scrapeCardTiles(doc, baseURL), nil
}

func embeddedState(doc *goquery.Document) (jsonval.Value, bool) {
	for _, sel := range embeddedStateSelectors {
		var found jsonval.Value
		ok := false
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, err := jsonval.Parse([]byte(strings.TrimSpace(s.Text())))
			if err != nil || v.Kind() != jsonval.KindObject {
				return true
			}
			found, ok = v, true
			return false
		})
		if ok {
			return found, true
		}
	}
	return jsonval.Value{}, false
}

func scrapeCardTiles(doc *goquery.Document, baseURL string) []jsonval.Value {
	base, _ := url.Parse(baseURL)
	records := []jsonval.Value{}

	for _, sel := range cardTileSelectors {
		seen := map[string]bool{}
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			m := cardLinkPattern.FindStringSubmatch(href)
			if m == nil || seen[m[1]] {
				return
			}
			seen[m[1]] = true

			name := ""
			img := a.Find("img").First()
			if alt, ok := img.Attr("alt"); ok {
				name = strings.TrimSpace(alt)
			}
			for _, nameSel := range tileNameSelectors {
				if name != "" {
					break
				}
				name = strings.TrimSpace(a.Find(nameSel).First().Text())
			}
			if name == "" {
				name = strings.Join(strings.Fields(a.Text()), " ")
			}

			image, ok := img.Attr("src")
			if !ok || image == "" {
				image, _ = img.Attr("data-src")
			}

			members := []jsonval.Member{
				{Key: "id", Value: jsonval.StringValue(m[1])},
				{Key: "name", Value: jsonval.StringValue(name)},
				{Key: "imageUrl", Value: jsonval.StringValue(image)},
				{Key: "url", Value: jsonval.StringValue(resolveURL(base, href))},
			}
			if price := strings.TrimSpace(a.Find(`[class*="price"]`).First().Text()); price != "" {
				members = append(members, jsonval.Member{Key: "price", Value: jsonval.StringValue(price)})
			}
			records = append(records, jsonval.ObjectValue(members...))
		})
		if len(records) > 0 {
			break
		}
	}
	return records
}

// ParseListingPage pulls listings from a card page: embedded state first,
// then listing rows, then any price-looking text. Prices are the listing
// prices when there are listings, else every price found.
func ParseListingPage(doc *goquery.Document) (jsonval.Value, []models.Listing, []float64) {
	if state, ok := embeddedState(doc); ok {
		if rows, ok := findListingRows(state); ok {
			listings := make([]models.Listing, 0, len(rows))
			for _, row := range rows {
				if row.Kind() == jsonval.KindObject {
					listings = append(listings, projectListing(row))
				}
			}
			if prices := ListingPrices(listings); len(prices) > 0 {
				return state, listings, prices
			}
			return state, listings, CollectPrices(state)
		}
	}

	var records []jsonval.Value
	for _, sel := range listingRowSelectors {
		doc.Find(sel).Each(func(_ int, row *goquery.Selection) {
			members := []jsonval.Member{}
			if price := strings.TrimSpace(row.Find(`[class*="price"]`).First().Text()); price != "" {
				members = append(members, jsonval.Member{Key: "price", Value: jsonval.StringValue(price)})
			}
			if cond := strings.TrimSpace(row.Find(`[class*="condition"]`).First().Text()); cond != "" {
				members = append(members, jsonval.Member{Key: "condition", Value: jsonval.StringValue(cond)})
			}
			if strings.Contains(strings.ToLower(row.Text()), "sold") {
				members = append(members, jsonval.Member{Key: "status", Value: jsonval.StringValue("sold")})
			} else {
				members = append(members, jsonval.Member{Key: "status", Value: jsonval.StringValue("on_sale")})
			}
			records = append(records, jsonval.ObjectValue(members...))
		})
		if len(records) > 0 {
			break
		}
	}
	if len(records) > 0 {
		data := jsonval.ArrayValue(records...)
		listings := ExtractListings(data)
		return data, listings, ListingPrices(listings)
	}

	var priceTexts []jsonval.Member
	doc.Find(`[class*="price"]`).Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			priceTexts = append(priceTexts, jsonval.Member{Key: "price", Value: jsonval.StringValue(text)})
		}
	})
	items := make([]jsonval.Value, 0, len(priceTexts))
	for _, m := range priceTexts {
		items = append(items, jsonval.ObjectValue(m))
	}
	data := jsonval.ArrayValue(items...)
	return data, []models.Listing{}, CollectPrices(data)
}

// findListingRows returns the first array stored under a listing
// container key anywhere in v.
func findListingRows(v jsonval.Value) ([]jsonval.Value, bool) {
	var rows []jsonval.Value
	found := false
	v.Walk(func(node jsonval.Value) bool {
		if found {
			return false
		}
		if arr, ok := firstArray(node, listingContainerKeys); ok {
			rows, found = arr, true
			return false
		}
		return true
	})
	return rows, found
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
