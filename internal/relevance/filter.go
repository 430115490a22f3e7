// Package relevance classifies normalized items by keyword matching.
package relevance

import "strings"

// Filter is a case-insensitive substring classifier. Exclusions are
// evaluated before inclusions: any exclusion match disqualifies the item no
// matter how many inclusion keywords it also contains. This keeps ambiguous
// overlapping terms (a military story mentioning "AI") out of the feed.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter builds a Filter; keyword lists are lowercased once up front.
func NewFilter(include, exclude []string) *Filter {
	return &Filter{
		include: lowerAll(include),
		exclude: lowerAll(exclude),
	}
}

// Match reports whether the concatenated text fields pass the classifier.
func (f *Filter) Match(fields ...string) bool {
	text := strings.ToLower(strings.Join(fields, " "))

	for _, keyword := range f.exclude {
		if strings.Contains(text, keyword) {
			return false
		}
	}
	for _, keyword := range f.include {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func lowerAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
