package services

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/models"
)

// Currency symbols and separators stripped before parsing a price string.
// USD/JPY come before US so the longer token wins.
var priceReplacer = strings.NewReplacer(
	",", "",
	"¥", "",
	"￥", "",
	"$", "",
	"円", "",
	"€", "",
	"£", "",
	"USD", "",
	"JPY", "",
	"US", "",
)

// Substrings that make a key price-like ("price", "salePrice", "amount"...).
var priceKeyFragments = []string{"price", "amount", "value"}

var (
	listingConditionKeys = []string{"condition", "conditionName", "cardCondition", "grade", "conditionLabel"}
	listingSellerKeys    = []string{"sellerName", "seller", "userName"}
	listingCreatedKeys   = []string{"createdAt", "created_at", "listedAt", "date", "updatedAt"}
	listingOnSaleKeys    = []string{"isOnSale", "onSale", "isSale"}
	onSaleStatuses       = []string{"on_sale", "onsale", "selling", "active", "listed"}
)

// ParsePrice parses a price string such as "¥1,200", "$12.50" or "950円".
// It reports false for anything that is not a finite number afterwards.
func ParsePrice(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, priceReplacer.Replace(s))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func isPriceKey(key string) bool {
	k := strings.ToLower(key)
	for _, frag := range priceKeyFragments {
		if strings.Contains(k, frag) {
			return true
		}
	}
	return false
}

// priceOf coerces a JSON scalar to a price. Booleans are not prices.
func priceOf(v jsonval.Value) (float64, bool) {
	switch v.Kind() {
	case jsonval.KindNumber:
		n, _ := v.AsNumber()
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case jsonval.KindString:
		s, _ := v.AsString()
		return ParsePrice(s)
	default:
		return 0, false
	}
}

// CollectPrices walks the whole document and gathers every positive value
// stored under a price-like key. Within an object the price-like keys are
// read first, then the walk descends into the children, all in document
// order. Duplicates are kept.
func CollectPrices(v jsonval.Value) []float64 {
	prices := []float64{}
	v.Walk(func(node jsonval.Value) bool {
		members, ok := node.AsObject()
		if !ok {
			return true
		}
		for _, m := range members {
			if !isPriceKey(m.Key) {
				continue
			}
			if p, ok := priceOf(m.Value); ok && p > 0 {
				prices = append(prices, p)
			}
		}
		return true
	})
	return prices
}

// ExtractListings projects the records of a used-listings response into
// Listings. Records that are not objects are skipped.
func ExtractListings(v jsonval.Value) []models.Listing {
	records := ExtractRecords(v)
	listings := make([]models.Listing, 0, len(records))
	for _, rec := range records {
		if rec.Kind() != jsonval.KindObject {
			continue
		}
		listings = append(listings, projectListing(rec))
	}
	return listings
}

func projectListing(rec jsonval.Value) models.Listing {
	l := models.Listing{
		Condition: firstText(rec, listingConditionKeys),
		CreatedAt: firstText(rec, listingCreatedKeys),
		IsOnSale:  listingOnSale(rec),
	}
	l.Grade = models.NormalizeCondition(l.Condition)

	if p, ok := listingPrice(rec); ok {
		l.Price = &p
	}

	if user, ok := rec.Get("user"); ok && user.Kind() == jsonval.KindObject {
		l.Seller = firstText(user, []string{"name", "nickname"})
	}
	if l.Seller == "" {
		l.Seller = firstText(rec, listingSellerKeys)
	}
	return l
}

// listingPrice takes the first price-like member that yields a positive
// price. A nested price object ("price": {"amount": 1200}) counts.
func listingPrice(rec jsonval.Value) (float64, bool) {
	members, _ := rec.AsObject()
	for _, m := range members {
		if !isPriceKey(m.Key) {
			continue
		}
		if m.Value.Kind() == jsonval.KindObject {
			if nested := CollectPrices(m.Value); len(nested) > 0 {
				return nested[0], true
			}
			continue
		}
		if p, ok := priceOf(m.Value); ok && p > 0 {
			return p, true
		}
	}
	return 0, false
}

func listingOnSale(rec jsonval.Value) bool {
	if sold, ok := rec.Get("isSold"); ok {
		if b, ok := sold.AsBool(); ok && b {
			return false
		}
	}
	for _, key := range listingOnSaleKeys {
		if v, ok := rec.Get(key); ok {
			if b, ok := v.AsBool(); ok {
				return b
			}
		}
	}
	if status, ok := rec.Get("status"); ok {
		s := strings.ToLower(strings.TrimSpace(status.Text()))
		return slices.Contains(onSaleStatuses, s)
	}
	return false
}

// Summarize computes stats over prices, or nil when there are none.
// Median is sorted[n/2]: for [10 20 30 40] it is 30.
func Summarize(prices []float64) *models.PriceStats {
	n := len(prices)
	if n == 0 {
		return nil
	}

	sorted := slices.Clone(prices)
	slices.Sort(sorted)

	var sum float64
	for _, p := range sorted {
		sum += p
	}

	return &models.PriceStats{
		Lowest:        sorted[0],
		Highest:       sorted[n-1],
		Average:       sum / float64(n),
		Median:        sorted[n/2],
		TotalListings: n,
	}
}

// SummarizeListings computes stats over the priced listings and counts how
// many of them are still on sale.
func SummarizeListings(listings []models.Listing) *models.PriceStats {
	var prices []float64
	onSale := 0
	for _, l := range listings {
		if l.Price == nil {
			continue
		}
		prices = append(prices, *l.Price)
		if l.IsOnSale {
			onSale++
		}
	}

	stats := Summarize(prices)
	if stats == nil {
		return nil
	}
	stats.OnSaleCount = onSale
	return stats
}

// ListingPrices returns the prices of the priced listings in order.
func ListingPrices(listings []models.Listing) []float64 {
	prices := []float64{}
	for _, l := range listings {
		if l.Price != nil {
			prices = append(prices, *l.Price)
		}
	}
	return prices
}

// Analyze derives range and volatility (range as a percentage of the
// average) from stats. It returns nil for nil stats.
func Analyze(stats *models.PriceStats) *models.PriceAnalysis {
	if stats == nil {
		return nil
	}
	a := &models.PriceAnalysis{Range: stats.Highest - stats.Lowest}
	if stats.Average > 0 {
		a.VolatilityPct = a.Range / stats.Average * 100
	}
	return a
}

// ParseManualPrices splits user input on commas, semicolons and whitespace
// and parses each token as a price. Tokens that do not parse to a positive
// price are returned in invalid, in input order. Because commas separate
// tokens, "1,200" is read as two prices; use "1200" instead.
func ParseManualPrices(text string) (prices []float64, invalid []string) {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '、' || unicode.IsSpace(r)
	})

	prices = []float64{}
	invalid = []string{}
	for _, tok := range tokens {
		p, ok := ParsePrice(tok)
		if !ok || p <= 0 {
			invalid = append(invalid, tok)
			continue
		}
		prices = append(prices, p)
	}
	return prices, invalid
}

// ChartSeries numbers prices for the chart. It is never nil.
func ChartSeries(prices []float64) []models.ChartPoint {
	points := make([]models.ChartPoint, len(prices))
	for i, p := range prices {
		points[i] = models.ChartPoint{Index: i + 1, Price: p}
	}
	return points
}
