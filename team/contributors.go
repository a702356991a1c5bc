package team

import (
	"slices"
	"strconv"
	"strings"

	"github.com/randalmurphal/enrich/response"
)

// Contribution is an author's commit count.
type Contribution struct {
	Author string
	Count  int
}

// ParseShortlog parses `git shortlog -sn` output ("    10\tJohn Doe").
// Malformed lines are skipped.
func ParseShortlog(out string) []Contribution {
	var contribs []Contribution
	for _, line := range strings.Split(out, "\n") {
		countField, author, ok := strings.Cut(strings.TrimSpace(line), "\t")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(countField))
		author = strings.TrimSpace(author)
		if err != nil || author == "" {
			continue
		}
		contribs = append(contribs, Contribution{Author: author, Count: n})
	}
	return contribs
}

// CountMap converts contributions to an author -> count map.
func CountMap(contribs []Contribution) map[string]int {
	m := make(map[string]int, len(contribs))
	for _, c := range contribs {
		m[c.Author] += c.Count
	}
	return m
}

// Aggregate sums contributions per author across lists, keeping authors
// in first-seen order.
func Aggregate(lists ...[]Contribution) []Contribution {
	index := make(map[string]int)
	var totals []Contribution
	for _, list := range lists {
		for _, c := range list {
			if i, ok := index[c.Author]; ok {
				totals[i].Count += c.Count
				continue
			}
			index[c.Author] = len(totals)
			totals = append(totals, c)
		}
	}
	return totals
}

// RankReviewers orders authors by aggregate contribution, highest first.
// Equal counts keep first-seen order. Authors listed in exclude are left
// out.
func RankReviewers(lists [][]Contribution, exclude ...string) []string {
	totals := Aggregate(lists...)
	slices.SortStableFunc(totals, func(a, b Contribution) int {
		return b.Count - a.Count
	})

	reviewers := []string{}
	for _, c := range totals {
		if c.Count <= 0 || slices.Contains(exclude, c.Author) {
			continue
		}
		reviewers = append(reviewers, c.Author)
	}
	return reviewers
}

// ActiveContributors returns the distinct commit authors in first-seen
// order.
func ActiveContributors(commits []response.Commit) []string {
	seen := make(map[string]bool)
	authors := []string{}
	for _, c := range commits {
		if c.Author == "" || seen[c.Author] {
			continue
		}
		seen[c.Author] = true
		authors = append(authors, c.Author)
	}
	return authors
}

// Summarize counts commits and authors. The most active contributor has
// the most commits; ties go to the author seen first.
func Summarize(commits []response.Commit) *response.Summary {
	ones := make([]Contribution, len(commits))
	for i, c := range commits {
		ones[i] = Contribution{Author: c.Author, Count: 1}
	}
	counts := Aggregate(ones)

	s := &response.Summary{
		TotalCommits:       len(commits),
		UniqueContributors: len(counts),
	}
	best := 0
	for _, c := range counts {
		if c.Count > best {
			best = c.Count
			s.MostActiveContributor = c.Author
		}
	}
	return s
}
