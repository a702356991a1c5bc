package team

import (
	"strings"
	"sync"
	"unicode"
)

// Matcher decides whether two pieces of text (branch names, commit
// subjects) talk about the same thing. Tokens are lowercase alphanumeric
// runs; trivial tokens (stop words, short or numeric runs) are ignored.
// Two tokens match when they are equal, belong to the same keyword family,
// or one is a prefix of the other of at least MinPrefix characters.
type Matcher struct {
	StopWords   map[string]bool
	Families    map[string][]string
	MinTokenLen int
	MinPrefix   int

	once    sync.Once
	concept map[string]string
}

// DefaultStopWords are ignored when matching. They cover filler words,
// commit verbs and branch-type prefixes.
var DefaultStopWords = []string{
	"the", "and", "for", "with", "from", "into", "onto", "this", "that", "are",
	"add", "adds", "added", "fix", "fixes", "fixed", "update", "updates", "updated",
	"change", "changes", "changed", "remove", "removes", "removed", "implement",
	"implements", "implemented", "make", "use", "new", "more", "some", "when",
	"feature", "feat", "bugfix", "hotfix", "chore", "release", "merge", "branch",
	"main", "master", "develop", "origin", "pull", "request", "wip",
}

// DefaultFamilies group tokens that name the same concept.
var DefaultFamilies = map[string][]string{
	"auth":    {"auth", "oauth", "authentication", "authenticate", "authorization", "authorize", "login", "logout", "signin", "signup", "jwt", "token", "tokens", "session", "sessions", "sso", "password", "credential", "credentials"},
	"api":     {"api", "endpoint", "endpoints", "rest", "graphql", "route", "routes", "handler", "handlers"},
	"ui":      {"ui", "ux", "frontend", "css", "style", "styles", "component", "components", "view", "views", "layout", "button"},
	"db":      {"db", "database", "migration", "migrations", "schema", "sql", "query", "queries", "postgres", "mysql", "sqlite"},
	"test":    {"test", "tests", "testing", "spec", "specs", "coverage", "e2e"},
	"docs":    {"doc", "docs", "documentation", "readme", "guide"},
	"perf":    {"perf", "performance", "optimize", "optimise", "speed", "latency", "cache", "caching"},
	"ci":      {"ci", "build", "pipeline", "workflow", "deploy", "deployment", "docker"},
	"payment": {"payment", "payments", "billing", "checkout", "invoice", "invoices", "stripe", "subscription"},
	"user":    {"user", "users", "account", "accounts", "profile", "profiles"},
}

// DefaultMatcher returns a Matcher with the default stop words and
// keyword families.
func DefaultMatcher() *Matcher {
	stop := make(map[string]bool, len(DefaultStopWords))
	for _, w := range DefaultStopWords {
		stop[w] = true
	}
	return &Matcher{
		StopWords:   stop,
		Families:    DefaultFamilies,
		MinTokenLen: 3,
		MinPrefix:   4,
	}
}

// Tokens returns the distinct non-trivial tokens of s in order of
// appearance.
func (m *Matcher) Tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, f := range fields {
		if seen[f] || m.trivial(f) {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

func (m *Matcher) trivial(tok string) bool {
	if len(tok) < m.MinTokenLen && m.conceptOf(tok) == "" {
		return true
	}
	if m.StopWords[tok] {
		return true
	}
	return strings.IndexFunc(tok, func(r rune) bool { return !unicode.IsDigit(r) }) < 0
}

// Overlap reports whether any token of a matches any token of b.
func (m *Matcher) Overlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if m.TokenMatch(x, y) {
				return true
			}
		}
	}
	return false
}

// TokenMatch reports whether two tokens refer to the same thing.
func (m *Matcher) TokenMatch(x, y string) bool {
	if x == y {
		return true
	}
	if cx := m.conceptOf(x); cx != "" && cx == m.conceptOf(y) {
		return true
	}
	short, long := x, y
	if len(short) > len(long) {
		short, long = long, short
	}
	return m.MinPrefix > 0 && len(short) >= m.MinPrefix && strings.HasPrefix(long, short)
}

func (m *Matcher) conceptOf(tok string) string {
	m.once.Do(func() {
		m.concept = make(map[string]string)
		for name, words := range m.Families {
			for _, w := range words {
				m.concept[w] = name
			}
		}
	})
	return m.concept[tok]
}
