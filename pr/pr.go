package pr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/enrich/response"
)

// State represents the state of a pull request.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

// Provider reads pull requests from a hosting service.
type Provider interface {
	// GetPR retrieves a pull request by number.
	GetPR(ctx context.Context, id int) (*PullRequest, error)

	// ListPRs lists pull requests matching the filter.
	ListPRs(ctx context.Context, filter Filter) ([]*PullRequest, error)
}

// DefaultLimit caps ListPRs when Filter.Limit is zero.
const DefaultLimit = 30

// Filter configures pull request listing.
type Filter struct {
	State  State  // Filter by state (empty = open)
	Base   string // Filter by base branch
	Head   string // Filter by head branch
	Author string // Filter by author username
	Limit  int    // Maximum number to return (0 = DefaultLimit)
}

func (f Filter) limit() int {
	if f.Limit > 0 {
		return f.Limit
	}
	return DefaultLimit
}

func (f Filter) state() State {
	if f.State == "" {
		return StateOpen
	}
	return f.State
}

// PullRequest is a pull or merge request as reported by a provider.
type PullRequest struct {
	ID        int       // PR number/ID
	URL       string    // Web URL
	Title     string    // PR title
	Author    string    // Author username
	State     State     // Current state
	Draft     bool      // Whether it's a draft
	Head      string    // Source branch
	Base      string    // Target branch
	CreatedAt time.Time // Creation time
	UpdatedAt time.Time // Last update time
	Labels    []string  // Applied labels
	Reviewers []string  // Requested reviewers
}

// ToActivity converts provider results to the team-activity shape,
// skipping nil entries.
func ToActivity(prs []*PullRequest) []response.PullRequest {
	out := make([]response.PullRequest, 0, len(prs))
	for _, p := range prs {
		if p == nil {
			continue
		}
		out = append(out, response.PullRequest{
			Number:    p.ID,
			Title:     p.Title,
			Author:    p.Author,
			CreatedAt: p.CreatedAt,
			State:     string(p.State),
		})
	}
	return out
}

// DetectProvider attempts to detect the PR provider from a remote URL.
func DetectProvider(remoteURL string) (string, error) {
	remoteURL = strings.ToLower(remoteURL)

	if strings.Contains(remoteURL, "github.com") {
		return KindGitHub, nil
	}
	if strings.Contains(remoteURL, "gitlab") {
		return KindGitLab, nil
	}

	return "", ErrUnknownProvider
}

// ParseRepoFromURL extracts owner and repo from a git remote URL.
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	remoteURL = strings.TrimSpace(remoteURL)

	// git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.Split(remoteURL, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path := strings.TrimSuffix(parts[1], ".git")
		pathParts := strings.Split(path, "/")
		if len(pathParts) != 2 {
			return "", "", fmt.Errorf("invalid repository path")
		}
		return pathParts[0], pathParts[1], nil
	}

	remoteURL = strings.TrimPrefix(remoteURL, "https://")
	remoteURL = strings.TrimPrefix(remoteURL, "http://")
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	parts := strings.Split(remoteURL, "/")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid URL format")
	}

	return parts[len(parts)-2], parts[len(parts)-1], nil
}
