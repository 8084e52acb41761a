package services

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/codyseavey/cardscout/internal/models"
)

const (
	SortUpstream  = ""
	SortRelevance = "relevance"
)

// RankByRelevance orders cards by Jaro-Winkler similarity between the card
// name and the keyword, best first. Ties keep upstream order.
func RankByRelevance(cards []models.CardSummary, keyword string) []models.CardSummary {
	target := strings.ToLower(strings.TrimSpace(keyword))
	if target == "" || len(cards) < 2 {
		return cards
	}

	scores := make(map[int]float64, len(cards))
	idx := make([]int, len(cards))
	for i, c := range cards {
		idx[i] = i
		scores[i] = nameSimilarity(c.Name, target)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	ranked := make([]models.CardSummary, len(cards))
	for i, j := range idx {
		ranked[i] = cards[j]
	}
	return ranked
}

// nameSimilarity scores the full name and each of its words against the
// keyword and keeps the best, so "Pikachu" still ranks "Pikachu ex SAR 132/106"
// above "Pichu".
func nameSimilarity(name, target string) float64 {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0
	}
	best := matchr.JaroWinkler(name, target, false)
	for _, word := range strings.Fields(name) {
		if sim := matchr.JaroWinkler(word, target, false); sim > best {
			best = sim
		}
	}
	return best
}
