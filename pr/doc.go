// Package pr reads open pull requests from GitHub, GitLab or the gh CLI
// so that team activity can report work in flight.
//
// Implementations:
//   - GitHubProvider: go-github over an oauth2 token
//   - GitLabProvider: go-gitlab merge requests
//   - CLIProvider: shells out to gh pr list
//   - MockProvider: function hooks for tests
//
// Example usage:
//
//	provider, err := pr.New(pr.Options{Kind: "auto", RemoteURL: remote})
//	if err != nil {
//	    return err
//	}
//	open, err := provider.ListPRs(ctx, pr.Filter{State: pr.StateOpen, Limit: 10})
package pr
