package team

import "strings"

// ParseRemoteBranches parses `git branch -r` output into "remote/name"
// refs, dropping symbolic entries such as "origin/HEAD -> origin/main".
func ParseRemoteBranches(out string) []string {
	var refs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "* "))
		if line == "" || strings.Contains(line, "->") || strings.HasSuffix(line, "/HEAD") {
			continue
		}
		refs = append(refs, line)
	}
	return refs
}

// StripRemote removes the remote name from a remote-tracking ref:
// "origin/feature/auth" becomes "feature/auth".
func StripRemote(ref string) string {
	if _, name, ok := strings.Cut(ref, "/"); ok {
		return name
	}
	return ref
}

// SplitBranch separates the leading group segment of a branch name from
// the rest. Branches without a slash have no group.
func SplitBranch(branch string) (group, rest string) {
	branch = strings.TrimPrefix(branch, "refs/heads/")
	if g, r, ok := strings.Cut(branch, "/"); ok {
		return g, r
	}
	return "", branch
}

// RelatedBranches returns the branches that share target's group segment
// and at least one matching token in the remainder, excluding target
// itself. Order follows branches; duplicates are dropped.
func RelatedBranches(target string, branches []string, m *Matcher) []string {
	if m == nil {
		m = DefaultMatcher()
	}
	group, rest := SplitBranch(target)
	want := m.Tokens(rest)
	if len(want) == 0 {
		return []string{}
	}

	seen := map[string]bool{target: true}
	related := []string{}
	for _, b := range branches {
		if seen[b] {
			continue
		}
		seen[b] = true

		g, r := SplitBranch(b)
		if g != group {
			continue
		}
		if m.Overlap(want, m.Tokens(r)) {
			related = append(related, b)
		}
	}
	return related
}
