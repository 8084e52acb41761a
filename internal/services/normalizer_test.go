package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/codyseavey/cardscout/internal/jsonval"
	"github.com/codyseavey/cardscout/internal/models"
)

func parseJSON(t *testing.T, s string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Parse([]byte(s))
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return v
}

func recordIDs(records []jsonval.Value) []string {
	ids := []string{}
	for _, r := range records {
		ids = append(ids, ExtractCardID(r))
	}
	return ids
}

func TestExtractRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"top level items", `{"items":[{"id":1},{"id":2}]}`, []string{"1", "2"}},
		{"nested data list", `{"data":{"list":[{"id":7}]}}`, []string{"7"}},
		{"bare array", `[{"id":"a"},{"id":"b"}]`, []string{"a", "b"}},
		{"empty array", `[]`, []string{}},
		{"empty object", `{}`, []string{}},
		{"null", `null`, []string{}},
		{"scalar", `"nope"`, []string{}},
		{"data array wins over nesting", `{"data":[{"id":3}]}`, []string{"3"}},
		{"priority order", `{"cards":[{"id":"c"}],"items":[{"id":"i"}]}`, []string{"i"}},
		{"key holding non-array is skipped", `{"items":{"id":1},"results":[{"id":9}]}`, []string{"9"}},
		{"response data array", `{"response":{"data":[{"id":5}]}}`, []string{"5"}},
		{"response data items", `{"response":{"data":{"items":[{"id":6}]}}}`, []string{"6"}},
		{"no recognised key", `{"meta":{"total":0}}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractRecords(parseJSON(t, tt.input))
			if got == nil {
				t.Fatal("ExtractRecords returned nil")
			}
			if diff := cmp.Diff(tt.want, recordIDs(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractRecordsZeroValue(t *testing.T) {
	if got := ExtractRecords(jsonval.Value{}); got == nil || len(got) != 0 {
		t.Errorf("ExtractRecords(zero) = %v, want empty non-nil", got)
	}
}

func TestFindRecordsNested(t *testing.T) {
	v := parseJSON(t, `{"props":{"pageProps":{"meta":{},"initialState":{"tradingCards":[{"id":42,"name":"Pikachu"}]}}}}`)
	got := FindRecords(v)
	if diff := cmp.Diff([]string{"42"}, recordIDs(got)); diff != "" {
		t.Errorf("FindRecords mismatch (-want +got):\n%s", diff)
	}

	if got := FindRecords(parseJSON(t, `{"a":{"b":1}}`)); len(got) != 0 {
		t.Errorf("FindRecords without list = %d records, want 0", len(got))
	}
}

func TestExtractCardID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`{"id":135232}`, "135232"},
		{`{"cardId":"abc"}`, "abc"},
		{`{"tradingCardId":1,"id":2}`, "2"},
		{`{"_id":"mongo"}`, "mongo"},
		{`{"id":"","itemId":"x"}`, "x"},
		{`{"name":"no id"}`, ""},
		{`[1]`, ""},
	}

	for _, tt := range tests {
		if got := ExtractCardID(parseJSON(t, tt.input)); got != tt.want {
			t.Errorf("ExtractCardID(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestProjectCard(t *testing.T) {
	v := parseJSON(t, `{
		"tradingCardId": 101,
		"productName": "Pikachu ex SAR",
		"image": {"url": "https://img/p.jpg"},
		"cardNumber": "132/106",
		"series": "Super Electric Breaker",
		"rarity": "SAR",
		"type": "Lightning",
		"brand": {"name": "Pokemon"},
		"category": {"id": 3, "name": "Single Card"},
		"subtitle": "Japanese",
		"url": "https://snkrdunk.com/en/trading-cards/101"
	}`)

	got := ProjectCard(v)
	want := models.CardSummary{
		ID:           "101",
		Name:         "Pikachu ex SAR",
		ImageURL:     "https://img/p.jpg",
		Number:       "132/106",
		SetName:      "Super Electric Breaker",
		Rarity:       "SAR",
		Type:         "Lightning",
		BrandName:    "Pokemon",
		CategoryID:   "3",
		CategoryName: "Single Card",
		Description:  "Japanese",
		URL:          "https://snkrdunk.com/en/trading-cards/101",
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(models.CardSummary{}, "Raw")); diff != "" {
		t.Errorf("ProjectCard mismatch (-want +got):\n%s", diff)
	}
	if got.Raw.Kind() != jsonval.KindObject {
		t.Error("ProjectCard should keep the raw record")
	}
}

func TestProjectCardFlatBrandAndCategory(t *testing.T) {
	got := ProjectCard(parseJSON(t, `{"id":1,"name":"Eevee","brandName":"Pokemon","categoryId":"box","categoryName":"Booster Box"}`))
	if got.BrandName != "Pokemon" || got.CategoryID != "box" || got.CategoryName != "Booster Box" {
		t.Errorf("flat fields not projected: %+v", got)
	}
}

func TestProjectCardNonObject(t *testing.T) {
	got := ProjectCard(parseJSON(t, `"just a string"`))
	if got.ID != "" || got.Name != "" {
		t.Errorf("non-object record projected fields: %+v", got)
	}
}
