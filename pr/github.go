package pr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	devhttp "github.com/randalmurphal/enrich/http"
)

// GitHubProvider implements Provider for GitHub repositories.
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

// GitHubOption configures GitHubProvider.
type GitHubOption func(*GitHubProvider) error

// WithGitHubAPIURL points the provider at another API root, such as a
// GitHub Enterprise instance.
func WithGitHubAPIURL(apiURL string) GitHubOption {
	return func(p *GitHubProvider) error {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		u, err := url.Parse(apiURL)
		if err != nil {
			return fmt.Errorf("parse API URL: %w", err)
		}
		p.client.BaseURL = u
		return nil
	}
}

// NewGitHubProvider creates a new GitHub provider.
// token is a personal access token or GitHub App token.
func NewGitHubProvider(token, owner, repo string, opts ...GitHubOption) (*GitHubProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	p := &GitHubProvider{
		client: github.NewClient(oauth2.NewClient(context.Background(), ts)),
		owner:  owner,
		repo:   repo,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// NewGitHubProviderFromURL creates a GitHub provider from a remote URL.
func NewGitHubProviderFromURL(token, remoteURL string) (*GitHubProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}
	return NewGitHubProvider(token, owner, repo)
}

// GetPR retrieves a pull request by number.
func (p *GitHubProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	pr, resp, err := p.client.PullRequests.Get(ctx, p.owner, p.repo, id)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get PR: %w", err)
	}
	return prFromGitHub(pr), nil
}

// ListPRs lists pull requests matching the filter, following pagination
// until the limit is reached.
func (p *GitHubProvider) ListPRs(ctx context.Context, filter Filter) ([]*PullRequest, error) {
	limit := filter.limit()
	perPage := min(limit, 100)

	it := devhttp.NewPageIterator(func(ctx context.Context, page int) ([]*github.PullRequest, bool, error) {
		opts := &github.PullRequestListOptions{
			State:       string(filter.state()),
			Base:        filter.Base,
			Head:        filter.Head,
			ListOptions: github.ListOptions{Page: page, PerPage: perPage},
		}
		if opts.State == string(StateMerged) {
			opts.State = string(StateClosed)
		}
		prs, resp, err := p.client.PullRequests.List(ctx, p.owner, p.repo, opts)
		if err != nil {
			return nil, false, fmt.Errorf("list PRs: %w", err)
		}
		return prs, resp != nil && resp.NextPage != 0, nil
	})

	var result []*PullRequest
	for len(result) < limit {
		gh, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		pr := prFromGitHub(gh)
		if filter.Author != "" && pr.Author != filter.Author {
			continue
		}
		if filter.State == StateMerged && pr.State != StateMerged {
			continue
		}
		result = append(result, pr)
	}
	return result, nil
}

func prFromGitHub(pr *github.PullRequest) *PullRequest {
	result := &PullRequest{
		ID:     pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
		Title:  pr.GetTitle(),
		Author: pr.GetUser().GetLogin(),
		Draft:  pr.GetDraft(),
	}

	switch pr.GetState() {
	case "open":
		result.State = StateOpen
	case "closed":
		if pr.GetMerged() || pr.MergedAt != nil {
			result.State = StateMerged
		} else {
			result.State = StateClosed
		}
	}

	if pr.Head != nil {
		result.Head = pr.Head.GetRef()
	}
	if pr.Base != nil {
		result.Base = pr.Base.GetRef()
	}
	if pr.CreatedAt != nil {
		result.CreatedAt = pr.CreatedAt.Time
	}
	if pr.UpdatedAt != nil {
		result.UpdatedAt = pr.UpdatedAt.Time
	}
	for _, label := range pr.Labels {
		result.Labels = append(result.Labels, label.GetName())
	}
	for _, reviewer := range pr.RequestedReviewers {
		result.Reviewers = append(result.Reviewers, reviewer.GetLogin())
	}
	return result
}
