package pr

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/xanzy/go-gitlab"
)

// GitLabProvider implements Provider for GitLab merge requests.
type GitLabProvider struct {
	client    *gitlab.Client
	projectID string // numeric ID or "namespace/project"
}

// NewGitLabProvider creates a new GitLab provider.
// baseURL is the GitLab instance URL (empty for gitlab.com).
func NewGitLabProvider(token, baseURL, projectID string) (*GitLabProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabProvider{
		client:    client,
		projectID: projectID,
	}, nil
}

// NewGitLabProviderFromURL creates a GitLab provider from a remote URL.
// Self-hosted hosts get their own API base URL.
func NewGitLabProviderFromURL(token, remoteURL string) (*GitLabProvider, error) {
	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parse remote URL: %w", err)
	}

	var baseURL string
	if !strings.Contains(remoteURL, "gitlab.com") {
		host := strings.TrimPrefix(remoteURL, "https://")
		host = strings.TrimPrefix(host, "http://")
		host = strings.TrimPrefix(host, "git@")
		host, _, _ = strings.Cut(host, "/")
		host, _, _ = strings.Cut(host, ":")
		baseURL = "https://" + host
	}

	return NewGitLabProvider(token, baseURL, owner+"/"+repo)
}

// GetPR retrieves a merge request by IID.
func (p *GitLabProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(p.projectID, id, nil, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get MR: %w", err)
	}
	return prFromGitLab(mr), nil
}

// ListPRs lists merge requests matching the filter.
func (p *GitLabProvider) ListPRs(ctx context.Context, filter Filter) ([]*PullRequest, error) {
	limit := filter.limit()
	opts := &gitlab.ListProjectMergeRequestsOptions{
		ListOptions: gitlab.ListOptions{PerPage: min(limit, 100)},
		State:       gitlab.Ptr(gitlabState(filter.state())),
	}
	if filter.Base != "" {
		opts.TargetBranch = gitlab.Ptr(filter.Base)
	}
	if filter.Head != "" {
		opts.SourceBranch = gitlab.Ptr(filter.Head)
	}
	if filter.Author != "" {
		opts.AuthorUsername = gitlab.Ptr(filter.Author)
	}

	mrs, _, err := p.client.MergeRequests.ListProjectMergeRequests(p.projectID, opts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list MRs: %w", err)
	}

	result := make([]*PullRequest, 0, len(mrs))
	for _, mr := range mrs {
		if len(result) == limit {
			break
		}
		result = append(result, prFromGitLab(mr))
	}
	return result, nil
}

func gitlabState(s State) string {
	if s == StateOpen {
		return "opened"
	}
	return string(s)
}

func prFromGitLab(mr *gitlab.MergeRequest) *PullRequest {
	result := &PullRequest{
		ID:     mr.IID,
		URL:    mr.WebURL,
		Title:  mr.Title,
		Head:   mr.SourceBranch,
		Base:   mr.TargetBranch,
		Labels: mr.Labels,
	}

	result.Draft = strings.HasPrefix(mr.Title, "Draft:") ||
		strings.HasPrefix(mr.Title, "WIP:")

	switch mr.State {
	case "opened":
		result.State = StateOpen
	case "merged":
		result.State = StateMerged
	case "closed":
		result.State = StateClosed
	}

	if mr.Author != nil {
		result.Author = mr.Author.Username
	}
	if mr.CreatedAt != nil {
		result.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		result.UpdatedAt = *mr.UpdatedAt
	}
	for _, reviewer := range mr.Reviewers {
		result.Reviewers = append(result.Reviewers, reviewer.Username)
	}
	return result
}
