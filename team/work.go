package team

import (
	"regexp"
	"slices"

	"github.com/randalmurphal/enrich/response"
)

var wipPattern = regexp.MustCompile(`(?i)^\s*(\[wip\]|wip\b)`)

// IsWIP reports whether a commit subject marks work in progress.
func IsWIP(message string) bool {
	return wipPattern.MatchString(message)
}

// RelatedWork returns commits whose subject shares a token with keywords.
func RelatedWork(commits []response.Commit, keywords []string, m *Matcher) []response.WorkItem {
	if m == nil {
		m = DefaultMatcher()
	}
	items := []response.WorkItem{}
	if len(keywords) == 0 {
		return items
	}
	for _, c := range commits {
		if m.Overlap(keywords, m.Tokens(c.Message)) {
			items = append(items, response.WorkItem{
				Author:  c.Author,
				Message: c.Message,
				Hash:    c.Hash,
			})
		}
	}
	return items
}

// Keywords collects the distinct tokens of each text, in order.
func Keywords(m *Matcher, texts ...string) []string {
	if m == nil {
		m = DefaultMatcher()
	}
	var out []string
	for _, t := range texts {
		for _, tok := range m.Tokens(t) {
			if !slices.Contains(out, tok) {
				out = append(out, tok)
			}
		}
	}
	return out
}

// Intersect returns the files of named that also appear in changed,
// in named order.
func Intersect(changed, named []string) []string {
	set := make(map[string]bool, len(changed))
	for _, f := range changed {
		set[f] = true
	}
	var both []string
	for _, f := range named {
		if set[f] {
			both = append(both, f)
		}
	}
	return both
}
