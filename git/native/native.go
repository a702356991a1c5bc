// Package native reads repository history with go-git, without shelling
// out to a git binary. Repository offers the same history reads as
// git.Context so either can back the team-activity enhancer.
package native

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/randalmurphal/enrich/git"
	"github.com/randalmurphal/enrich/response"
	"github.com/randalmurphal/enrich/team"
)

// Repository is an open go-git repository.
type Repository struct {
	repo *gogit.Repository
}

// Open opens the repository containing path.
func Open(path string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, git.ErrNotGitRepo
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &Repository{repo: repo}, nil
}

// CurrentBranch returns the checked-out branch, or "" for a detached or
// unborn HEAD.
func (r *Repository) CurrentBranch() string {
	head, err := r.repo.Head()
	if err != nil {
		return ""
	}
	if head.Name().IsBranch() {
		return head.Name().Short()
	}
	return ""
}

// CommitsSince returns up to limit commits reachable from HEAD authored
// after since, newest first.
func (r *Repository) CommitsSince(ctx context.Context, since time.Time, limit int) ([]response.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, &git.Error{Op: "log", Err: err}
	}
	iter, err := r.repo.Log(&gogit.LogOptions{From: head.Hash(), Since: &since, Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, &git.Error{Op: "log", Err: err}
	}
	defer iter.Close()

	commits := []response.Commit{}
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		commits = append(commits, response.Commit{
			Hash:    c.Hash.String(),
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			Message: subject(c.Message),
			Date:    c.Author.When,
		})
		return nil
	})
	if err != nil {
		return nil, &git.Error{Op: "log", Err: err}
	}
	return commits, nil
}

// RemoteBranches lists remote-tracking branches as "remote/name".
func (r *Repository) RemoteBranches(ctx context.Context) ([]string, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, &git.Error{Op: "list remote branches", Err: err}
	}
	defer refs.Close()

	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !ref.Name().IsRemote() || ref.Type() == plumbing.SymbolicReference {
			return nil
		}
		name := ref.Name().Short()
		if strings.HasSuffix(name, "/HEAD") {
			return nil
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, &git.Error{Op: "list remote branches", Err: err}
	}
	slices.Sort(names)
	return names, nil
}

// FileContributors counts commits touching file per author, highest
// first, ties by name.
func (r *Repository) FileContributors(ctx context.Context, file string) ([]team.Contribution, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, &git.Error{Op: "shortlog", Err: err}
	}
	iter, err := r.repo.Log(&gogit.LogOptions{From: head.Hash(), FileName: &file})
	if err != nil {
		return nil, &git.Error{Op: "shortlog", Err: err}
	}
	defer iter.Close()

	var contribs []team.Contribution
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		contribs = append(contribs, team.Contribution{Author: c.Author.Name, Count: 1})
		return nil
	})
	if err != nil {
		return nil, &git.Error{Op: "shortlog", Err: err}
	}

	totals := team.Aggregate(contribs)
	slices.SortFunc(totals, func(a, b team.Contribution) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Author, b.Author)
	})
	return totals, nil
}

// MergeBase returns the best common ancestor of two revisions.
func (r *Repository) MergeBase(ctx context.Context, a, b string) (string, error) {
	ca, err := r.commit(a)
	if err != nil {
		return "", &git.Error{Op: "merge-base", Err: err}
	}
	cb, err := r.commit(b)
	if err != nil {
		return "", &git.Error{Op: "merge-base", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return "", &git.Error{Op: "merge-base", Err: err}
	}
	bases, err := ca.MergeBase(cb)
	if err != nil {
		return "", &git.Error{Op: "merge-base", Err: err}
	}
	if len(bases) == 0 {
		return "", &git.Error{Op: "merge-base", Err: git.ErrNoMergeBase}
	}
	return bases[0].Hash.String(), nil
}

// DiffNames lists files that differ between two revisions.
func (r *Repository) DiffNames(ctx context.Context, from, to string) ([]string, error) {
	fromTree, err := r.tree(from)
	if err != nil {
		return nil, &git.Error{Op: "diff", Err: err}
	}
	toTree, err := r.tree(to)
	if err != nil {
		return nil, &git.Error{Op: "diff", Err: err}
	}
	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, nil)
	if err != nil {
		return nil, &git.Error{Op: "diff", Err: err}
	}

	names := make([]string, 0, len(changes))
	for _, ch := range changes {
		name := ch.To.Name
		if name == "" {
			name = ch.From.Name
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}

func (r *Repository) commit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", rev, err)
	}
	return r.repo.CommitObject(*hash)
}

func (r *Repository) tree(rev string) (*object.Tree, error) {
	c, err := r.commit(rev)
	if err != nil {
		return nil, err
	}
	return c.Tree()
}

func subject(message string) string {
	first, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(first)
}
