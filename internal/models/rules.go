package models

// ClassifierRules are the keyword lists used to decide whether a record is a
// single Pokemon card. Terms are case-insensitive substrings; patterns are
// regular expressions compiled case-insensitively.
type ClassifierRules struct {
	ExcludeTerms     []string `yaml:"exclude_terms" json:"exclude_terms"`
	ExcludePatterns  []string `yaml:"exclude_patterns" json:"exclude_patterns"`
	BoxCategoryTerms []string `yaml:"box_category_terms" json:"box_category_terms"`
	BoxCategoryIDs   []string `yaml:"box_category_ids" json:"box_category_ids"`
	IncludeTerms     []string `yaml:"include_terms" json:"include_terms"`
	IncludePatterns  []string `yaml:"include_patterns" json:"include_patterns"`
}
