package models

import (
	"testing"
)

func TestNormalizeCondition(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		expected  PriceCondition
	}{
		{"S maps to NM", "S", PriceConditionNM},
		{"A maps to NM", "A", PriceConditionNM},
		{"Near Mint maps to NM", "Near Mint", PriceConditionNM},
		{"B maps to LP", "B", PriceConditionLP},
		{"Lightly Played maps to LP", "lightly played", PriceConditionLP},
		{"C maps to MP", "C", PriceConditionMP},
		{"D maps to HP", "D", PriceConditionHP},
		{"Damaged maps to DMG", "Damaged", PriceConditionDMG},
		{"PSA 10 is graded", "PSA 10", PriceConditionGraded},
		{"BGS 9.5 is graded", "bgs 9.5", PriceConditionGraded},
		{"whitespace is trimmed", "  nm ", PriceConditionNM},
		{"empty stays empty", "", PriceCondition("")},
		{"unknown stays empty", "sealed", PriceCondition("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeCondition(tt.condition)
			if result != tt.expected {
				t.Errorf("NormalizeCondition(%q) = %s, want %s", tt.condition, result, tt.expected)
			}
		})
	}
}

func TestAllPriceConditions(t *testing.T) {
	conditions := AllPriceConditions()

	if len(conditions) != 6 {
		t.Errorf("AllPriceConditions() returned %d conditions, want 6", len(conditions))
	}

	seen := make(map[PriceCondition]bool)
	for _, cond := range conditions {
		if seen[cond] {
			t.Errorf("Duplicate condition: %s", cond)
		}
		seen[cond] = true
	}
}

func TestSearchQueryKeyword(t *testing.T) {
	tests := []struct {
		name     string
		query    SearchQuery
		expected string
	}{
		{"all fields", SearchQuery{"Pikachu", "Scarlet Violet", "025"}, "Pikachu Scarlet Violet 025"},
		{"character only", SearchQuery{CharacterName: "Pikachu"}, "Pikachu"},
		{"skips empty middle", SearchQuery{CharacterName: "Eevee", CardNumber: "133"}, "Eevee 133"},
		{"trims fields", SearchQuery{CharacterName: "  Mew ", SetName: "  "}, "Mew"},
		{"empty", SearchQuery{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Keyword(); got != tt.expected {
				t.Errorf("Keyword() = %q, want %q", got, tt.expected)
			}
			if tt.query.IsEmpty() != (tt.expected == "") {
				t.Errorf("IsEmpty() = %v for keyword %q", tt.query.IsEmpty(), tt.expected)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		number, perPage int
		want            Page
	}{
		{0, 0, Page{1, DefaultPerPage}},
		{2, 10, Page{2, 10}},
		{1, 1, Page{1, MinPerPage}},
		{1, 500, Page{1, MaxPerPage}},
		{-3, 20, Page{1, 20}},
	}

	for _, tt := range tests {
		if got := NewPage(tt.number, tt.perPage); got != tt.want {
			t.Errorf("NewPage(%d, %d) = %+v, want %+v", tt.number, tt.perPage, got, tt.want)
		}
	}
}
