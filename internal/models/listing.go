package models

import (
	"strings"

	"github.com/codyseavey/cardscout/internal/jsonval"
)

// PriceCondition is a normalized condition bucket for a listing
type PriceCondition string

const (
	PriceConditionNM     PriceCondition = "NM"  // Near Mint / SNKRDUNK "S" and "A"
	PriceConditionLP     PriceCondition = "LP"  // Lightly Played / "B"
	PriceConditionMP     PriceCondition = "MP"  // Moderately Played / "C"
	PriceConditionHP     PriceCondition = "HP"  // Heavily Played / "D"
	PriceConditionDMG    PriceCondition = "DMG" // Damaged
	PriceConditionGraded PriceCondition = "GRADED"
)

// AllPriceConditions returns all valid price conditions
func AllPriceConditions() []PriceCondition {
	return []PriceCondition{
		PriceConditionNM,
		PriceConditionLP,
		PriceConditionMP,
		PriceConditionHP,
		PriceConditionDMG,
		PriceConditionGraded,
	}
}

// NormalizeCondition maps the condition labels seen on marketplaces and
// pricing APIs to a PriceCondition. Unknown labels map to "".
func NormalizeCondition(raw string) PriceCondition {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	for _, grader := range []string{"PSA", "BGS", "CGC", "ARS", "SGC"} {
		if strings.HasPrefix(s, grader) {
			return PriceConditionGraded
		}
	}

	switch s {
	case "S", "A", "NM", "MINT", "NEAR MINT", "NEAR MINT OR BETTER":
		return PriceConditionNM
	case "B", "LP", "LIGHTLY PLAYED", "EXCELLENT":
		return PriceConditionLP
	case "C", "MP", "MODERATELY PLAYED", "GOOD":
		return PriceConditionMP
	case "D", "HP", "HEAVILY PLAYED", "PLAYED":
		return PriceConditionHP
	case "DMG", "DAMAGED", "POOR":
		return PriceConditionDMG
	default:
		return ""
	}
}

// Listing is one sale offer for a specific card instance.
type Listing struct {
	Price     *float64       `json:"price"`
	Condition string         `json:"condition,omitempty"`
	Grade     PriceCondition `json:"grade,omitempty"`
	Seller    string         `json:"seller,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	IsOnSale  bool           `json:"is_on_sale"`
}

// PriceStats aggregates a sequence of prices. Median is the element at
// index n/2 of the sorted sequence, so for an even count it is the upper of
// the two middle values rather than their mean.
type PriceStats struct {
	Lowest        float64 `json:"lowest"`
	Highest       float64 `json:"highest"`
	Average       float64 `json:"average"`
	Median        float64 `json:"median"`
	TotalListings int     `json:"total_listings"`
	OnSaleCount   int     `json:"on_sale_count"`
}

// PriceAnalysis holds values derived from PriceStats for the dashboard.
type PriceAnalysis struct {
	Range         float64 `json:"range"`
	VolatilityPct float64 `json:"volatility_pct"`
}

// PriceReport is the price view for one card from one source.
type PriceReport struct {
	CardID   string         `json:"card_id"`
	Source   string         `json:"source"`
	Listings []Listing      `json:"listings"`
	Prices   []float64      `json:"prices"`
	Stats    *PriceStats    `json:"stats"`
	Analysis *PriceAnalysis `json:"analysis"`
	Chart    []ChartPoint   `json:"chart"`

	Raw jsonval.Value `json:"-"`
}

// ManualPriceResult is the result of parsing prices typed in by the user.
type ManualPriceResult struct {
	Prices   []float64      `json:"prices"`
	Invalid  []string       `json:"invalid"`
	Stats    *PriceStats    `json:"stats"`
	Analysis *PriceAnalysis `json:"analysis"`
	Chart    []ChartPoint   `json:"chart"`
}

// ChartPoint is one bar of the price chart, in listing order starting at 1.
type ChartPoint struct {
	Index int     `json:"index"`
	Price float64 `json:"price"`
}
