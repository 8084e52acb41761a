package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codyseavey/cardscout/internal/models"
)

func TestRankByRelevance(t *testing.T) {
	cards := []models.CardSummary{
		{ID: "1", Name: "Umbreon VMAX"},
		{ID: "2", Name: "Pikachu ex SAR 132/106"},
		{ID: "3", Name: ""},
		{ID: "4", Name: "Pikachu"},
	}

	ranked := RankByRelevance(cards, "pikachu")
	got := make([]string, len(ranked))
	for i, c := range ranked {
		got[i] = c.ID
	}
	// both Pikachu cards score 1.0 and keep their upstream order
	if diff := cmp.Diff([]string{"2", "4", "1", "3"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	if cards[0].ID != "1" {
		t.Error("input slice was reordered")
	}
}

func TestRankByRelevanceNoKeyword(t *testing.T) {
	cards := []models.CardSummary{{ID: "b"}, {ID: "a"}}
	ranked := RankByRelevance(cards, "  ")
	if ranked[0].ID != "b" {
		t.Errorf("blank keyword should keep order, got %+v", ranked)
	}
}
