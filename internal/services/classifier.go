package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codyseavey/cardscout/internal/metrics"
	"github.com/codyseavey/cardscout/internal/models"
)

// DecisionReason says which rule decided a classification.
type DecisionReason string

const (
	ReasonExcluded       DecisionReason = "excluded"
	ReasonSealedCategory DecisionReason = "sealed_category"
	ReasonIncluded       DecisionReason = "included"
	ReasonNoMatch        DecisionReason = "no_match"
)

// Decision is the classifier verdict for one record. Term is the rule term
// or pattern that fired, empty for no_match.
type Decision struct {
	Accepted bool           `json:"accepted"`
	Reason   DecisionReason `json:"reason"`
	Term     string         `json:"term,omitempty"`
}

// DefaultClassifierRules are the built-in keyword lists. A rules file can
// override any list (see config).
func DefaultClassifierRules() models.ClassifierRules {
	return models.ClassifierRules{
		ExcludeTerms: []string{
			// other franchises
			"one piece", "onepiece", "ワンピース",
			"yu-gi-oh", "yugioh", "遊戯王",
			"dragon ball", "ドラゴンボール",
			"magic: the gathering", "mtg",
			"digimon", "デジモン",
			"weiss schwarz", "ヴァイスシュヴァルツ",
			"union arena", "ユニオンアリーナ",
			"duel masters", "デュエル・マスターズ",
			"lorcana", "flesh and blood", "vanguard", "battle spirits",
			"shadowverse", "hololive", "topps", "panini",
			// sealed product and supplies
			"未開封", "ボックス", "シュリンク", "スリーブ", "デッキケース",
		},
		ExcludePatterns: []string{
			`\bbooster\s*(box|pack|bundle|display|case)\b`,
			`\bbox(es)?\b`,
			`\bsealed\b`,
			`\bpacks?\b`,
			`\belite trainer\b`,
			`\betb\b`,
			`\bbundle\b`,
			`\b(premium|special|ultra[- ]premium) collection\b`,
			`\b(starter|theme|battle|build) (deck|set)\b`,
			`\bsleeves?\b`,
			`\bplaymat\b`,
			`\bbinder\b`,
			`パック$`,
		},
		BoxCategoryTerms: []string{"box", "pack", "sealed", "booster", "ボックス", "パック"},
		BoxCategoryIDs:   []string{"box", "boxes", "booster-box", "booster_box", "sealed", "pack", "packs"},
		IncludeTerms: []string{
			"pokemon", "pokémon", "ポケモン", "ポケカ",
			"pikachu", "charizard", "eevee", "mewtwo", "umbreon", "gengar",
			"rayquaza", "lugia", "sylveon", "greninja", "lucario", "espeon",
			"snorlax", "gardevoir", "blastoise", "venusaur", "dragonite",
			"ピカチュウ", "リザードン", "イーブイ", "ミュウツー", "ブラッキー", "ミュウ",
			"scarlet & violet", "scarlet violet", "sword & shield", "sun & moon",
			"crown zenith", "silver tempest", "evolving skies", "paldea",
			"obsidian flames", "paradox rift", "temporal forces",
			"twilight masquerade", "shrouded fable", "stellar crown",
			"surging sparks", "prismatic evolutions", "shiny treasure",
			"vstar universe", "terastal",
		},
		IncludePatterns: []string{
			`\bmew\b`,
			`\b151\b`,
			`\b(ex|gx|vmax|vstar)\b`,
			`\b(sar|sr|ur|ar|chr|csr|hr|ssr|rrr)\b`,
			`\b(special )?illustration rare\b`,
			`\b\d{3}/\d{3}\b`,
		},
	}
}

// Classifier decides whether a projected record is a single Pokemon card.
// Rules are checked in order: exclusions, sealed category, inclusions. The
// first rule that fires decides; nothing firing rejects the record.
type Classifier struct {
	excludeTerms    []string
	excludePatterns []*regexp.Regexp
	boxTerms        []string
	boxIDs          map[string]struct{}
	includeTerms    []string
	includePatterns []*regexp.Regexp
}

// NewClassifier compiles rules. Terms are lowercased; patterns compile
// case-insensitively and an invalid one is an error.
func NewClassifier(rules models.ClassifierRules) (*Classifier, error) {
	excludePatterns, err := compilePatterns(rules.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}
	includePatterns, err := compilePatterns(rules.IncludePatterns)
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}

	boxIDs := make(map[string]struct{}, len(rules.BoxCategoryIDs))
	for _, id := range rules.BoxCategoryIDs {
		boxIDs[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}

	return &Classifier{
		excludeTerms:    lowerAll(rules.ExcludeTerms),
		excludePatterns: excludePatterns,
		boxTerms:        lowerAll(rules.BoxCategoryTerms),
		boxIDs:          boxIDs,
		includeTerms:    lowerAll(rules.IncludeTerms),
		includePatterns: includePatterns,
	}, nil
}

// MustDefaultClassifier builds a Classifier from DefaultClassifierRules.
func MustDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultClassifierRules())
	if err != nil {
		panic(err)
	}
	return c
}

// Classify applies the rules to card and records the decision in metrics.
func (c *Classifier) Classify(card models.CardSummary) Decision {
	d := c.classify(card)
	metrics.ClassifierDecisionsTotal.WithLabelValues(string(d.Reason)).Inc()
	return d
}

func (c *Classifier) classify(card models.CardSummary) Decision {
	excludeText := joinLower(card.Name, card.SetName, card.BrandName, card.Description, card.CategoryName)
	if term, ok := matchAny(excludeText, c.excludeTerms, c.excludePatterns); ok {
		return Decision{Accepted: false, Reason: ReasonExcluded, Term: term}
	}

	if term, ok := c.sealedCategory(card); ok {
		return Decision{Accepted: false, Reason: ReasonSealedCategory, Term: term}
	}

	includeText := joinLower(card.Name, card.BrandName, card.SetName, card.Rarity, card.Description, card.CategoryName)
	if term, ok := matchAny(includeText, c.includeTerms, c.includePatterns); ok {
		return Decision{Accepted: true, Reason: ReasonIncluded, Term: term}
	}

	return Decision{Accepted: false, Reason: ReasonNoMatch}
}

// IsPokemonSingle is Classify reduced to its verdict, usable as a prober
// record filter.
func (c *Classifier) IsPokemonSingle(card models.CardSummary) bool {
	return c.Classify(card).Accepted
}

func (c *Classifier) sealedCategory(card models.CardSummary) (string, bool) {
	if id := strings.ToLower(strings.TrimSpace(card.CategoryID)); id != "" {
		if _, ok := c.boxIDs[id]; ok {
			return id, true
		}
	}
	name := strings.ToLower(card.CategoryName)
	if name == "" {
		return "", false
	}
	for _, term := range c.boxTerms {
		if strings.Contains(name, term) {
			return term, true
		}
	}
	return "", false
}

func matchAny(text string, terms []string, patterns []*regexp.Regexp) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return term, true
		}
	}
	for _, re := range patterns {
		if re.MatchString(text) {
			return re.String(), true
		}
	}
	return "", false
}

// joinLower lowercases the non-empty fields, one per line.
func joinLower(fields ...string) string {
	var nonEmpty []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			nonEmpty = append(nonEmpty, strings.ToLower(f))
		}
	}
	return strings.Join(nonEmpty, "\n")
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
