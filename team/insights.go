package team

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/enrich/response"
)

// Signals feed Insights. Nil fields were not collected.
type Signals struct {
	RelatedBranches []string
	Conflicts       []response.Conflict
	Reviewers       []string
	PullRequests    []response.PullRequest
	RelatedWork     []response.WorkItem
	Commits         []response.Commit
	Summary         *response.Summary
	WindowDays      int
	// User is the acting user; their own WIP commits are not reported.
	User string
}

// maxListed caps names quoted in a single insight.
const maxListed = 3

// Insights derives advisory sentences from collected signals.
func Insights(s Signals) []string {
	var out []string

	if n := len(s.RelatedBranches); n > 0 {
		out = append(out, fmt.Sprintf("Others are working on %d related %s: %s",
			n, plural(n, "branch", "branches"), list(s.RelatedBranches)))
	}

	if n := len(s.Conflicts); n > 0 {
		branches := make([]string, n)
		for i, c := range s.Conflicts {
			branches[i] = c.Branch
		}
		out = append(out, fmt.Sprintf("Potential conflicts exist with %d %s: %s",
			n, plural(n, "branch", "branches"), list(branches)))
	}

	if len(s.Reviewers) > 0 {
		out = append(out, "Suggested reviewers available: "+list(s.Reviewers))
	}

	if n := len(s.PullRequests); n > 0 {
		out = append(out, fmt.Sprintf("%d open pull %s in flight", n, plural(n, "request", "requests")))
	}

	for _, c := range s.Commits {
		if IsWIP(c.Message) && c.Author != s.User {
			out = append(out, fmt.Sprintf("%s has work in progress: %s", c.Author, c.Message))
		}
	}

	if n := len(s.RelatedWork); n > 0 {
		out = append(out, fmt.Sprintf("Found %d recent %s related to this work",
			n, plural(n, "commit", "commits")))
	}

	if s.Summary != nil && s.Summary.UniqueContributors > 1 && s.Summary.MostActiveContributor != "" {
		window := ""
		if s.WindowDays > 0 {
			window = fmt.Sprintf(" over the last %d days", s.WindowDays)
		}
		out = append(out, fmt.Sprintf("%s is the most active of %d contributors%s",
			s.Summary.MostActiveContributor, s.Summary.UniqueContributors, window))
	}

	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func list(items []string) string {
	if len(items) <= maxListed {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:maxListed], ", "), len(items)-maxListed)
}
