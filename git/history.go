package git

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/enrich/response"
	"github.com/randalmurphal/enrich/team"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// commitFormat renders hash, author, email, ISO date and subject.
var commitFormat = "--format=" + strings.Join([]string{"%H", "%an", "%ae", "%aI", "%s"}, "%x1f") + "%x1e"

// CommitsSince returns up to limit commits reachable from HEAD authored
// after since, newest first.
func (g *Context) CommitsSince(ctx context.Context, since time.Time, limit int) ([]response.Commit, error) {
	args := []string{"log", "--since=" + since.Format(time.RFC3339), commitFormat}
	if limit > 0 {
		args = append(args, fmt.Sprintf("--max-count=%d", limit))
	}
	out, err := g.runGitRaw(ctx, args...)
	if err != nil {
		return nil, &Error{Op: "log", Err: err}
	}
	return parseCommits(out)
}

func parseCommits(out string) ([]response.Commit, error) {
	commits := []response.Commit{}
	for _, record := range strings.Split(out, recordSep) {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		fields := strings.Split(record, fieldSep)
		if len(fields) != 5 {
			return nil, &Error{Op: "parse log", Output: record, Err: ErrCommandFailed}
		}
		date, err := time.Parse(time.RFC3339, fields[3])
		if err != nil {
			return nil, &Error{Op: "parse log date", Err: err}
		}
		commits = append(commits, response.Commit{
			Hash:    fields[0],
			Author:  fields[1],
			Email:   fields[2],
			Date:    date,
			Message: fields[4],
		})
	}
	return commits, nil
}

// RemoteBranches lists remote-tracking branches as "remote/name", without
// symbolic HEAD entries.
func (g *Context) RemoteBranches(ctx context.Context) ([]string, error) {
	out, err := g.runGitRaw(ctx, "branch", "-r")
	if err != nil {
		return nil, &Error{Op: "list remote branches", Err: err}
	}
	return team.ParseRemoteBranches(out), nil
}

// FileContributors returns per-author commit counts for file, highest
// first, as reported by git shortlog.
func (g *Context) FileContributors(ctx context.Context, file string) ([]team.Contribution, error) {
	out, err := g.runGitRaw(ctx, "shortlog", "-sn", "HEAD", "--", file)
	if err != nil {
		return nil, &Error{Op: "shortlog", Err: err}
	}
	return team.ParseShortlog(out), nil
}

// MergeBase returns the best common ancestor of a and b.
func (g *Context) MergeBase(ctx context.Context, a, b string) (string, error) {
	out, err := g.runGitContext(ctx, "merge-base", a, b)
	if err != nil {
		return "", &Error{Op: "merge-base", Err: err}
	}
	if out == "" {
		return "", &Error{Op: "merge-base", Err: ErrNoMergeBase}
	}
	return out, nil
}

// DiffNames lists files that differ between two revisions.
func (g *Context) DiffNames(ctx context.Context, from, to string) ([]string, error) {
	out, err := g.runGitRaw(ctx, "diff", "--name-only", from, to)
	if err != nil {
		return nil, &Error{Op: "diff", Err: err}
	}
	return nonEmptyLines(out), nil
}
