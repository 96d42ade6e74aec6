package domain

import (
	"regexp"
	"strings"
)

var cdNumberExpr = regexp.MustCompile(`(?i)CD\d+`)

// Summary is the persisted unit: one processed review entry in the store file.
type Summary struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	URL      string   `yaml:"url"`
	Notes    string   `yaml:"notes"`
	Date     string   `yaml:"date,omitempty"`
	Interest int      `yaml:"interest"`
	Tags     []string `yaml:"tags"`
}

// CDNumber reports the catalog code embedded in the summary URL.
func (s Summary) CDNumber() string {
	return CDNumber(s.URL)
}

// Candidate is a discovered, not-yet-persisted reference to a review.
type Candidate struct {
	CDNumber string
	URL      string
	Title    string
}

// CDNumber extracts the publisher catalog code (e.g. CD012345) from a URL,
// matched case-insensitively and normalized to upper case. Returns the empty
// string when the URL carries no recognizable code.
func CDNumber(url string) string {
	return strings.ToUpper(cdNumberExpr.FindString(url))
}

// CDNumbers returns every catalog code occurring in the given text, in order,
// normalized to upper case.
func CDNumbers(text string) []string {
	matches := cdNumberExpr.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.ToUpper(m)
	}
	return matches
}
