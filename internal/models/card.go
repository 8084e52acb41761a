package models

import (
	"strings"

	"github.com/codyseavey/cardscout/internal/jsonval"
)

const (
	DefaultPerPage = 20
	MinPerPage     = 5
	MaxPerPage     = 50
)

// SearchQuery is what the user typed into the search form.
type SearchQuery struct {
	CharacterName string `json:"character_name" form:"character"`
	SetName       string `json:"set_name" form:"set"`
	CardNumber    string `json:"card_number" form:"number"`
}

// Keyword joins the non-empty fields with single spaces, in the order
// character, set, number.
func (q SearchQuery) Keyword() string {
	var parts []string
	for _, field := range []string{q.CharacterName, q.SetName, q.CardNumber} {
		if s := strings.TrimSpace(field); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (q SearchQuery) IsEmpty() bool {
	return q.Keyword() == ""
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (q SearchQuery) Trimmed() SearchQuery {
	return SearchQuery{
		CharacterName: strings.TrimSpace(q.CharacterName),
		SetName:       strings.TrimSpace(q.SetName),
		CardNumber:    strings.TrimSpace(q.CardNumber),
	}
}

type Page struct {
	Number  int `json:"page"`
	PerPage int `json:"per_page"`
}

// NewPage applies defaults and clamps PerPage to [MinPerPage, MaxPerPage].
func NewPage(number, perPage int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case perPage == 0:
		perPage = DefaultPerPage
	case perPage < MinPerPage:
		perPage = MinPerPage
	case perPage > MaxPerPage:
		perPage = MaxPerPage
	}
	return Page{Number: number, PerPage: perPage}
}

// CardSummary is the typed projection of one upstream catalog record.
// Every field is best effort; the upstream record is kept in Raw.
type CardSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"image_url,omitempty"`
	Number       string `json:"number,omitempty"`
	SetName      string `json:"set_name,omitempty"`
	Rarity       string `json:"rarity,omitempty"`
	Type         string `json:"type,omitempty"`
	BrandName    string `json:"brand_name,omitempty"`
	CategoryID   string `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	Description  string `json:"description,omitempty"`
	URL          string `json:"url,omitempty"`

	Raw jsonval.Value `json:"-"`
}

// SearchOutcome is what a card source returns for one search.
type SearchOutcome struct {
	Source  string        `json:"source"`
	Query   SearchQuery   `json:"query"`
	Keyword string        `json:"keyword"`
	Cards   []CardSummary `json:"cards"`
	// Probe is set by sources that try several endpoints.
	Probe *ProbeResult `json:"probe,omitempty"`

	Raw jsonval.Value `json:"-"`
}

type CardDetail struct {
	CardSummary
	Source string `json:"source"`
}
