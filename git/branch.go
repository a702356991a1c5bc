package git

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultBranchPrefix is used by BranchName when no prefix is given.
const DefaultBranchPrefix = "feature/"

// MaxBranchNameLength caps names produced by BranchName.
const MaxBranchNameLength = 80

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// BranchName builds "<prefix><slug>-YYYY-MM-DD" from a free-text
// description. The slug is truncated so the whole name fits in
// MaxBranchNameLength; an empty slug becomes "update".
//
// Example: "Fix: Issue #123 - User's data" -> "feature/fix-issue-123-users-data-2026-10-15"
func BranchName(message, prefix string, date time.Time) string {
	if prefix == "" {
		prefix = DefaultBranchPrefix
	}
	suffix := "-" + date.Format(time.DateOnly)

	slug := Slugify(message)
	if slug == "" {
		slug = "update"
	}
	if room := MaxBranchNameLength - len(prefix) - len(suffix); len(slug) > room {
		if room < 1 {
			room = 1
		}
		slug = strings.TrimRight(slug[:room], "-")
	}

	return CleanBranch(prefix + slug + suffix)
}

// Slugify converts a string to a lowercase ASCII slug. Accented letters
// lose their marks; apostrophes vanish; other punctuation and whitespace
// collapse into single hyphens.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CleanBranch removes doubled hyphens and hyphens dangling before a path
// separator.
func CleanBranch(s string) string {
	s = hyphenRuns.ReplaceAllString(s, "-")

	parts := strings.Split(s, "/")
	for i, part := range parts {
		parts[i] = strings.TrimRight(part, "-")
	}
	return strings.Join(parts, "/")
}
