package main

import (
	"errors"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/enrich/config"
	"github.com/randalmurphal/enrich/enhancer"
	"github.com/randalmurphal/enrich/git"
	"github.com/randalmurphal/enrich/git/native"
	"github.com/randalmurphal/enrich/notify"
	"github.com/randalmurphal/enrich/pr"
)

// notifyQueueSize bounds pending webhook and Slack deliveries.
const notifyQueueSize = 64

// environment is the repository state the enhancers read from.
type environment struct {
	git     *git.Context
	history enhancer.HistorySource
	prs     enhancer.PullRequestLister
}

// openEnvironment opens the repository at a.dir. It returns
// git.ErrNotGitRepo outside a repository.
func (a *app) openEnvironment() (*environment, error) {
	g, err := git.NewContext(a.dir)
	if err != nil {
		return nil, err
	}
	env := &environment{git: g, history: g}

	if a.settings.GitBackend == config.BackendNative {
		repo, err := native.Open(g.RepoPath())
		if err != nil {
			return nil, err
		}
		env.history = repo
	}

	if a.settings.Team.PullRequests {
		if p := a.pullRequests(g); p != nil {
			env.prs = p
		}
	}
	return env, nil
}

// pullRequests returns the configured provider, or nil when none can be
// built. A missing provider only limits the activity report.
func (a *app) pullRequests(g *git.Context) pr.Provider {
	remote, err := g.ExecGitCommand("remote get-url origin")
	if err != nil {
		a.logger.Debug("no origin remote", "error", err)
		return nil
	}
	p, err := pr.New(pr.Options{
		Kind:      a.settings.PRProvider,
		RemoteURL: strings.TrimSpace(remote),
		Runner:    git.NewExecRunner(),
		Dir:       g.RepoPath(),
	})
	switch {
	case errors.Is(err, pr.ErrNoProvider):
		return nil
	case err != nil:
		a.logger.Warn("pull requests unavailable", "error", err)
		return nil
	}
	return p
}

// notifier fans events out to the log and any configured webhook or Slack
// endpoint. The returned func flushes pending deliveries.
func (a *app) notifier() (notify.Notifier, func()) {
	targets := []notify.Notifier{notify.NewLogNotifier(a.logger)}
	if a.settings.NotifyWebhook != "" {
		targets = append(targets, notify.NewWebhookNotifier(a.settings.NotifyWebhook, nil))
	}
	if a.settings.NotifySlack != "" {
		targets = append(targets, notify.NewSlackNotifier(a.settings.NotifySlack))
	}
	async := notify.NewAsyncNotifier(notify.NewMultiNotifier(targets...), notifyQueueSize, a.logger)
	return async, async.Close
}

func (a *app) teamEnhancer(env *environment, n notify.Notifier, m *enhancer.Metrics) *enhancer.TeamActivityEnhancer {
	var src enhancer.HistorySource
	opts := []enhancer.TeamOption{
		enhancer.WithTeamLogger(a.logger),
		enhancer.WithTeamNotifier(n),
		enhancer.WithTeamMetrics(m),
	}
	if env != nil {
		src = env.history
		if env.prs != nil {
			opts = append(opts, enhancer.WithPullRequests(env.prs))
		}
	}
	return enhancer.NewTeamActivityEnhancer(src, a.settings.TeamActivityConfig(), opts...)
}

// newPipeline builds the metadata and team-activity pipeline. With
// teamOnly the metadata enhancer is left out.
func (a *app) newPipeline(env *environment, n notify.Notifier, m *enhancer.Metrics, teamOnly bool) (*enhancer.Pipeline, error) {
	stages := []enhancer.Enhancer{a.teamEnhancer(env, n, m)}
	if !teamOnly {
		meta := enhancer.NewMetadataEnhancer(a.settings.MetadataConfig(), enhancer.WithMetadataLogger(a.logger))
		stages = append(stages, meta)
	}
	return enhancer.NewPipeline(stages,
		enhancer.WithLogger(a.logger),
		enhancer.WithNotifier(n),
		enhancer.WithMetrics(m),
	)
}

// execContext describes an invocation. env may be nil.
func (a *app) execContext(env *environment, operation string) (*enhancer.ExecContext, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	ec := &enhancer.ExecContext{
		SessionID:          id,
		Operation:          operation,
		OperationStartTime: time.Now(),
		Source:             &enhancer.Source{Tool: "enrich", Version: version, Component: "cli"},
	}
	if env == nil {
		return ec, nil
	}

	ec.Git = &enhancer.GitInfo{Branch: env.git.CurrentBranch()}
	if commits := env.git.RecentCommits(1); len(commits) > 0 {
		ec.Git.LastCommit = commits[0].Hash
	}
	if user, err := env.git.ExecGitCommand("config user.name"); err == nil {
		ec.User = strings.TrimSpace(user)
	}
	return ec, nil
}
