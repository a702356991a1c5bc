package pr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/enrich/git"
)

const ghFields = "number,title,author,createdAt,updatedAt,state,isDraft,headRefName,baseRefName,url"

// CLIProvider reads pull requests through the gh command line tool, which
// carries its own authentication.
type CLIProvider struct {
	runner git.CommandRunner
	dir    string
}

// NewCLIProvider creates a provider that runs gh in dir.
func NewCLIProvider(runner git.CommandRunner, dir string) *CLIProvider {
	if runner == nil {
		runner = git.NewExecRunner()
	}
	return &CLIProvider{runner: runner, dir: dir}
}

type ghPullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	State       string    `json:"state"`
	IsDraft     bool      `json:"isDraft"`
	HeadRefName string    `json:"headRefName"`
	BaseRefName string    `json:"baseRefName"`
	URL         string    `json:"url"`
}

func (g ghPullRequest) toPR() *PullRequest {
	return &PullRequest{
		ID:        g.Number,
		URL:       g.URL,
		Title:     g.Title,
		Author:    g.Author.Login,
		State:     State(strings.ToLower(g.State)),
		Draft:     g.IsDraft,
		Head:      g.HeadRefName,
		Base:      g.BaseRefName,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}

// GetPR implements Provider.
func (p *CLIProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	out, err := p.runner.Run(ctx, p.dir, "gh", "pr", "view", strconv.Itoa(id), "--json", ghFields)
	if err != nil {
		if strings.Contains(err.Error(), "Could not resolve") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gh pr view: %w", err)
	}
	var g ghPullRequest
	if err := json.Unmarshal([]byte(out), &g); err != nil {
		return nil, fmt.Errorf("decode gh output: %w", err)
	}
	return g.toPR(), nil
}

// ListPRs implements Provider.
func (p *CLIProvider) ListPRs(ctx context.Context, filter Filter) ([]*PullRequest, error) {
	args := []string{"pr", "list",
		"--state", string(filter.state()),
		"--json", ghFields,
		"--limit", strconv.Itoa(filter.limit()),
	}
	if filter.Base != "" {
		args = append(args, "--base", filter.Base)
	}
	if filter.Head != "" {
		args = append(args, "--head", filter.Head)
	}
	if filter.Author != "" {
		args = append(args, "--author", filter.Author)
	}

	out, err := p.runner.Run(ctx, p.dir, "gh", args...)
	if err != nil {
		return nil, fmt.Errorf("gh pr list: %w", err)
	}
	return parseGHList(out)
}

func parseGHList(out string) ([]*PullRequest, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return []*PullRequest{}, nil
	}
	var list []ghPullRequest
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		return nil, fmt.Errorf("decode gh output: %w", err)
	}
	result := make([]*PullRequest, len(list))
	for i, g := range list {
		result[i] = g.toPR()
	}
	return result, nil
}
