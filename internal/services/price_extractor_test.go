package services

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codyseavey/cardscout/internal/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"¥1,200", 1200, true},
		{"￥ 3,480", 3480, true},
		{"$12.50", 12.5, true},
		{"US $7", 7, true},
		{"950円", 950, true},
		{"  42  ", 42, true},
		{"", 0, false},
		{"¥", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParsePrice(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParsePrice(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCollectPrices(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []float64
	}{
		{"string price", `{"price":"¥1,200"}`, []float64{1200}},
		{"nested amount", `{"nested":{"amount":50}}`, []float64{50}},
		{"no prices", `{"name":"Pikachu","id":3}`, []float64{}},
		{"zero and negative dropped", `{"price":0,"salePrice":-5,"minPrice":10}`, []float64{10}},
		{"booleans ignored", `{"hasPrice":true,"price":3}`, []float64{3}},
		{"unparseable string ignored", `{"price":"ask"}`, []float64{}},
		{
			"own keys before children",
			`{"child":{"price":2},"price":1,"items":[{"amount":3},{"value":"4"}]}`,
			[]float64{1, 2, 3, 4},
		},
		{"duplicates kept", `[{"price":5},{"price":5}]`, []float64{5, 5}},
		{"case insensitive key", `{"LowestPRICE":8}`, []float64{8}},
		{"out of range number dropped", `{"price":1e400,"meta":{"value":7}}`, []float64{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollectPrices(parseJSON(t, tt.input))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CollectPrices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	if Summarize(nil) != nil {
		t.Error("Summarize(nil) should be nil")
	}
	if Summarize([]float64{}) != nil {
		t.Error("Summarize(empty) should be nil")
	}

	tests := []struct {
		prices []float64
		want   models.PriceStats
	}{
		{[]float64{10, 20, 30}, models.PriceStats{Lowest: 10, Highest: 30, Average: 20, Median: 20, TotalListings: 3}},
		{[]float64{40, 10, 30, 20}, models.PriceStats{Lowest: 10, Highest: 40, Average: 25, Median: 30, TotalListings: 4}},
		{[]float64{7}, models.PriceStats{Lowest: 7, Highest: 7, Average: 7, Median: 7, TotalListings: 1}},
	}

	for _, tt := range tests {
		got := Summarize(tt.prices)
		if diff := cmp.Diff(&tt.want, got); diff != "" {
			t.Errorf("Summarize(%v) mismatch (-want +got):\n%s", tt.prices, diff)
		}
	}
}

func TestSummarizeDoesNotSortInput(t *testing.T) {
	prices := []float64{3, 1, 2}
	Summarize(prices)
	if diff := cmp.Diff([]float64{3, 1, 2}, prices); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestExtractListings(t *testing.T) {
	v := parseJSON(t, `{"usedListings":[],"items":[
		{"price":"¥12,000","condition":"A","seller":{"name":"kanto"},"createdAt":"2024-05-01","isOnSale":true},
		{"price":{"amount":9800},"conditionName":"PSA10","sellerName":"johto","status":"sold"},
		{"condition":"B","status":"on_sale"},
		"junk"
	]}`)

	got := ExtractListings(v)
	if len(got) != 3 {
		t.Fatalf("got %d listings, want 3", len(got))
	}

	first := got[0]
	if first.Price == nil || *first.Price != 12000 {
		t.Errorf("first price = %v, want 12000", first.Price)
	}
	if first.Grade != models.PriceConditionNM || first.Seller != "kanto" || !first.IsOnSale || first.CreatedAt != "2024-05-01" {
		t.Errorf("first listing = %+v", first)
	}

	second := got[1]
	if second.Price == nil || *second.Price != 9800 {
		t.Errorf("second price = %v, want 9800", second.Price)
	}
	if second.Grade != models.PriceConditionGraded || second.Seller != "johto" || second.IsOnSale {
		t.Errorf("second listing = %+v", second)
	}

	third := got[2]
	if third.Price != nil {
		t.Errorf("third price = %v, want nil", *third.Price)
	}
	if !third.IsOnSale || third.Grade != models.PriceConditionLP {
		t.Errorf("third listing = %+v", third)
	}

	stats := SummarizeListings(got)
	if stats == nil {
		t.Fatal("SummarizeListings returned nil")
	}
	if stats.TotalListings != 2 || stats.OnSaleCount != 1 || stats.Median != 12000 {
		t.Errorf("stats = %+v", stats)
	}

	if diff := cmp.Diff([]float64{12000, 9800}, ListingPrices(got)); diff != "" {
		t.Errorf("ListingPrices mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeListingsNoPrices(t *testing.T) {
	if SummarizeListings([]models.Listing{{Condition: "A"}}) != nil {
		t.Error("expected nil stats when no listing has a price")
	}
}

func TestAnalyze(t *testing.T) {
	if Analyze(nil) != nil {
		t.Error("Analyze(nil) should be nil")
	}

	a := Analyze(&models.PriceStats{Lowest: 900, Highest: 1100, Average: 1000})
	if a.Range != 200 {
		t.Errorf("Range = %v, want 200", a.Range)
	}
	if math.Abs(a.VolatilityPct-20) > 1e-9 {
		t.Errorf("VolatilityPct = %v, want 20", a.VolatilityPct)
	}
}

func TestParseManualPrices(t *testing.T) {
	prices, invalid := ParseManualPrices("1000, 1200, 950")
	if diff := cmp.Diff([]float64{1000, 1200, 950}, prices); diff != "" {
		t.Errorf("prices mismatch (-want +got):\n%s", diff)
	}
	if len(invalid) != 0 {
		t.Errorf("invalid = %v, want none", invalid)
	}

	stats := Summarize(prices)
	if stats.Average != 1050 || stats.Median != 1000 {
		t.Errorf("stats = %+v", stats)
	}

	prices, invalid = ParseManualPrices("¥800;abc\n$12.5  0 -3")
	if diff := cmp.Diff([]float64{800, 12.5}, prices); diff != "" {
		t.Errorf("prices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"abc", "0", "-3"}, invalid); diff != "" {
		t.Errorf("invalid mismatch (-want +got):\n%s", diff)
	}

	prices, invalid = ParseManualPrices("   ")
	if prices == nil || invalid == nil || len(prices) != 0 || len(invalid) != 0 {
		t.Errorf("blank input = %v, %v", prices, invalid)
	}
}
