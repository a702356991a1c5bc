package enhancer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/enrich/git"
	"github.com/randalmurphal/enrich/git/native"
	"github.com/randalmurphal/enrich/notify"
	"github.com/randalmurphal/enrich/pr"
	"github.com/randalmurphal/enrich/response"
	"github.com/randalmurphal/enrich/team"
)

var (
	_ HistorySource     = (*git.Context)(nil)
	_ HistorySource     = (*native.Repository)(nil)
	_ PullRequestLister = pr.Provider(nil)
)

// fakeHistory is an in-memory HistorySource that counts calls.
type fakeHistory struct {
	branch       string
	commits      []response.Commit
	commitsErr   error
	remotes      []string
	remotesErr   error
	contributors map[string][]team.Contribution
	diffs        map[string][]string

	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeHistory) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *fakeHistory) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeHistory) CurrentBranch() string {
	f.record("CurrentBranch")
	return f.branch
}

func (f *fakeHistory) CommitsSince(_ context.Context, _ time.Time, _ int) ([]response.Commit, error) {
	f.record("CommitsSince")
	return f.commits, f.commitsErr
}

func (f *fakeHistory) RemoteBranches(context.Context) ([]string, error) {
	f.record("RemoteBranches")
	return f.remotes, f.remotesErr
}

func (f *fakeHistory) FileContributors(_ context.Context, file string) ([]team.Contribution, error) {
	f.record("FileContributors")
	c, ok := f.contributors[file]
	if !ok {
		return nil, errors.New("no history for " + file)
	}
	return c, nil
}

func (f *fakeHistory) MergeBase(_ context.Context, _, b string) (string, error) {
	f.record("MergeBase")
	return "base-" + b, nil
}

func (f *fakeHistory) DiffNames(_ context.Context, _, to string) ([]string, error) {
	f.record("DiffNames")
	return f.diffs[to], nil
}

func exampleCommits(now time.Time) []response.Commit {
	return []response.Commit{
		{Hash: "abc123", Author: "John Doe", Message: "Fix bug", Date: now},
		{Hash: "def456", Author: "Jane Smith", Message: "Add feature", Date: now.AddDate(0, 0, -1)},
	}
}

func TestTeamActivity_Summary(t *testing.T) {
	clock := newClock()
	src := &fakeHistory{branch: "main", commits: exampleCommits(clock.Now())}
	e := NewTeamActivityEnhancer(src, DefaultTeamActivityConfig(),
		WithTeamClock(clock.Now), WithTeamLogger(quietLogger()))

	out, err := e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{})
	require.NoError(t, err)

	ta := out.TeamActivity()
	require.NotNil(t, ta)
	assert.False(t, ta.Limited)
	assert.Equal(t, &response.Summary{
		TotalCommits:          2,
		UniqueContributors:    2,
		MostActiveContributor: "John Doe",
	}, ta.Summary)
	assert.Equal(t, []string{"John Doe", "Jane Smith"}, ta.ActiveContributors)
	assert.Len(t, ta.RecentCommits, 2)
}

func TestTeamActivity_NoContextIsLimited(t *testing.T) {
	src := &fakeHistory{branch: "main"}
	e := NewTeamActivityEnhancer(src, DefaultTeamActivityConfig())

	out, err := e.Enhance(context.Background(), response.Success("ok", nil), nil)
	require.NoError(t, err)

	assert.Equal(t, &response.TeamActivity{Limited: true}, out.TeamActivity())
	assert.Empty(t, src.calls)
}

func TestTeamActivity_CachesHistory(t *testing.T) {
	clock := newClock()
	src := &fakeHistory{
		branch:  "feature/auth-login",
		commits: exampleCommits(clock.Now()),
		remotes: []string{"origin/main"},
	}
	cfg := DefaultTeamActivityConfig()
	cfg.CacheTTL = time.Minute
	e := NewTeamActivityEnhancer(src, cfg, WithTeamClock(clock.Now), WithTeamLogger(quietLogger()))

	run := func() {
		_, err := e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{})
		require.NoError(t, err)
	}

	run()
	run()
	assert.Equal(t, 1, src.Calls("CommitsSince"))
	assert.Equal(t, 1, src.Calls("RemoteBranches"))

	clock.Advance(time.Minute + time.Second)
	run()
	assert.Equal(t, 2, src.Calls("CommitsSince"))
	assert.Equal(t, 2, src.Calls("RemoteBranches"))

	e.Invalidate()
	run()
	assert.Equal(t, 3, src.Calls("CommitsSince"))
}

func TestTeamActivity_EditedResultDoesNotReachCache(t *testing.T) {
	clock := newClock()
	src := &fakeHistory{branch: "main", commits: exampleCommits(clock.Now())}
	mock := &pr.MockProvider{
		ListPRsFunc: func(context.Context, pr.Filter) ([]*pr.PullRequest, error) {
			return []*pr.PullRequest{{ID: 7, Title: "Add login", Author: "alice", State: pr.StateOpen}}, nil
		},
	}
	cfg := DefaultTeamActivityConfig()
	cfg.CacheTTL = time.Minute
	e := NewTeamActivityEnhancer(src, cfg,
		WithPullRequests(mock), WithTeamClock(clock.Now), WithTeamLogger(quietLogger()))

	first, err := e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{})
	require.NoError(t, err)
	first.TeamActivity().RecentCommits[0].Author = "Mallory"
	first.TeamActivity().ActivePRs[0].Title = "edited"

	second, err := e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{})
	require.NoError(t, err)

	assert.Equal(t, 1, src.Calls("CommitsSince"))
	assert.Equal(t, 1, mock.ListCalls())
	assert.Equal(t, "John Doe", second.TeamActivity().RecentCommits[0].Author)
	assert.Equal(t, "Add login", second.TeamActivity().ActivePRs[0].Title)
	assert.Equal(t, "John Doe", src.commits[0].Author)
}

func TestTeamActivity_CacheIsPerInstance(t *testing.T) {
	src := &fakeHistory{branch: "main"}
	a := NewTeamActivityEnhancer(src, DefaultTeamActivityConfig(), WithTeamLogger(quietLogger()))
	b := NewTeamActivityEnhancer(src, DefaultTeamActivityConfig(), WithTeamLogger(quietLogger()))

	for _, e := range []*TeamActivityEnhancer{a, b} {
		_, err := e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, src.Calls("CommitsSince"))
}

func TestTeamActivity_Collaboration(t *testing.T) {
	clock := newClock()
	src := &fakeHistory{
		commits: []response.Commit{
			{Hash: "a1", Author: "Alice", Message: "Add oauth token refresh", Date: clock.Now()},
			{Hash: "b1", Author: "Bob", Message: "WIP: login page", Date: clock.Now()},
			{Hash: "c1", Author: "Carol", Message: "Update docs", Date: clock.Now()},
		},
		remotes: []string{
			"origin/feature/auth-login",
			"origin/feature/payments",
			"origin/main",
			"origin/feature/oauth-flow",
		},
		contributors: map[string][]team.Contribution{
			"auth.go":   {{Author: "Alice", Count: 5}, {Author: "Bob", Count: 2}},
			"README.md": {{Author: "Bob", Count: 4}, {Author: "Carol", Count: 1}},
		},
		diffs: map[string][]string{
			"origin/feature/oauth-flow": {"auth.go", "other.go"},
			"origin/feature/payments":   {"billing.go"},
			"origin/main":               {"README.md"},
		},
	}
	rec := &recordingNotifier{}
	e := NewTeamActivityEnhancer(src, DefaultTeamActivityConfig(),
		WithTeamClock(clock.Now), WithTeamLogger(quietLogger()), WithTeamNotifier(rec))

	in := response.Success("ok", nil).AddMetadata("files", []string{"auth.go", "README.md"})
	ec := &ExecContext{
		SessionID: "s-1",
		User:      "Bob",
		Git:       &GitInfo{Branch: "feature/auth-login"},
	}
	out, err := e.Enhance(context.Background(), in, ec)
	require.NoError(t, err)

	ta := out.TeamActivity()
	require.NotNil(t, ta)
	assert.Equal(t, 0, src.Calls("CurrentBranch"))

	assert.Equal(t, []string{"feature/oauth-flow"}, ta.RelatedBranches)
	assert.Equal(t, []string{"Alice", "Carol"}, ta.PotentialReviewers)

	wantFiles := map[string]map[string]int{
		"auth.go":   {"Alice": 5, "Bob": 2},
		"README.md": {"Bob": 4, "Carol": 1},
	}
	if diff := cmp.Diff(wantFiles, ta.FileContributors); diff != "" {
		t.Errorf("FileContributors mismatch (-want +got):\n%s", diff)
	}

	wantConflicts := []response.Conflict{
		{Branch: "feature/oauth-flow", ConflictingFiles: []string{"auth.go"}},
		{Branch: "main", ConflictingFiles: []string{"README.md"}},
	}
	if diff := cmp.Diff(wantConflicts, ta.PotentialConflicts); diff != "" {
		t.Errorf("PotentialConflicts mismatch (-want +got):\n%s", diff)
	}

	wantWork := []response.WorkItem{
		{Author: "Alice", Message: "Add oauth token refresh", Hash: "a1"},
		{Author: "Bob", Message: "WIP: login page", Hash: "b1"},
	}
	if diff := cmp.Diff(wantWork, ta.RelatedWork); diff != "" {
		t.Errorf("RelatedWork mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, hasPrefixed(ta.Insights, "Potential conflicts exist with 2 branches"), "insights: %v", ta.Insights)
	assert.True(t, hasPrefixed(ta.Insights, "Suggested reviewers available"), "insights: %v", ta.Insights)
	assert.False(t, hasPrefixed(ta.Insights, "Bob has work in progress"), "own WIP reported: %v", ta.Insights)

	require.Len(t, out.Risks, 1)
	assert.Equal(t, response.RiskMedium, out.Risks[0].Level)
	assert.Equal(t, "Named files were also changed on 2 other branches", out.Risks[0].Description)

	require.Len(t, out.Suggestions, 1)
	assert.Equal(t, "request-review", out.Suggestions[0].Action)
	assert.Equal(t, "Request review from Alice, Carol", out.Suggestions[0].Description)

	events := rec.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventConflictDetected, events[0].Type)
	assert.Equal(t, "s-1", events[0].RunID)
}

func TestTeamActivity_ConflictCandidateLimit(t *testing.T) {
	remotes := []string{"origin/a", "origin/b", "origin/feature/x-auth", "origin/c"}
	related := []string{"feature/x-auth"}

	got := conflictCandidates("feature/y", remotes, related, 2)
	assert.Equal(t, []string{"origin/feature/x-auth", "origin/a"}, got)

	got = conflictCandidates("a", remotes, nil, 0)
	assert.Equal(t, []string{"origin/b", "origin/feature/x-auth", "origin/c"}, got)
}

func TestTeamActivity_DegradesPerFeature(t *testing.T) {
	m := NewMetrics(nil)
	src := &fakeHistory{
		branch:     "feature/auth-login",
		commitsErr: errors.New("git log failed"),
		remotes:    []string{"origin/feature/auth-refresh"},
		contributors: map[string][]team.Contribution{
			"auth.go": {{Author: "Alice", Count: 1}},
		},
	}
	e := NewTeamActivityEnhancer(src, DefaultTeamActivityConfig(),
		WithTeamLogger(quietLogger()), WithTeamMetrics(m))

	in := response.Success("ok", map[string]any{"files": []any{"auth.go", "missing.go"}})
	out, err := e.Enhance(context.Background(), in, &ExecContext{})
	require.NoError(t, err)

	ta := out.TeamActivity()
	require.NotNil(t, ta)
	assert.Nil(t, ta.RecentCommits)
	assert.Nil(t, ta.Summary)
	assert.Nil(t, ta.ActiveContributors)
	assert.Equal(t, []string{"feature/auth-refresh"}, ta.RelatedBranches)
	assert.Equal(t, map[string]map[string]int{"auth.go": {"Alice": 1}}, ta.FileContributors)
	assert.NotContains(t, out.Data, "error")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("commits")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("files")))

	// A failed fetch is not cached.
	_, err = e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{})
	require.NoError(t, err)
	assert.Equal(t, 2, src.Calls("CommitsSince"))
}

func TestTeamActivity_PullRequests(t *testing.T) {
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	var gotFilter pr.Filter
	mock := &pr.MockProvider{
		ListPRsFunc: func(_ context.Context, f pr.Filter) ([]*pr.PullRequest, error) {
			gotFilter = f
			return []*pr.PullRequest{
				{ID: 42, Title: "Add login", Author: "alice", State: pr.StateOpen, CreatedAt: created},
			}, nil
		},
	}

	e := NewTeamActivityEnhancer(nil, DefaultTeamActivityConfig(),
		WithPullRequests(mock), WithTeamLogger(quietLogger()))

	for range 2 {
		out, err := e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{})
		require.NoError(t, err)

		ta := out.TeamActivity()
		require.NotNil(t, ta)
		assert.True(t, ta.Limited)
		assert.Equal(t, []response.PullRequest{
			{Number: 42, Title: "Add login", Author: "alice", CreatedAt: created, State: "open"},
		}, ta.ActivePRs)
	}

	assert.Equal(t, 1, mock.ListCalls())
	assert.Equal(t, pr.StateOpen, gotFilter.State)
	assert.Equal(t, 20, gotFilter.Limit)
}

func TestTeamActivity_Configure(t *testing.T) {
	clock := newClock()
	src := &fakeHistory{branch: "main", commits: exampleCommits(clock.Now())}
	e := NewTeamActivityEnhancer(src, DefaultTeamActivityConfig(),
		WithTeamClock(clock.Now), WithTeamLogger(quietLogger()))

	e.Configure(func(c *TeamActivityConfig) {
		c.TrackCommits = false
		c.TrackBranches = false
		c.DetectConflicts = false
	})
	assert.False(t, e.Settings().TrackCommits)

	out, err := e.Enhance(context.Background(), response.Success("ok", nil), &ExecContext{})
	require.NoError(t, err)

	ta := out.TeamActivity()
	require.NotNil(t, ta)
	assert.Nil(t, ta.RecentCommits)
	assert.Nil(t, ta.RelatedBranches)
	assert.Equal(t, 0, src.Calls("CommitsSince"))
	assert.Equal(t, 0, src.Calls("RemoteBranches"))
}

func TestTeamActivity_RunsAfterMetadata(t *testing.T) {
	clock := newClock()
	src := &fakeHistory{branch: "main", commits: exampleCommits(clock.Now())}

	meta := NewMetadataEnhancer(DefaultMetadataConfig(), WithMetadataClock(clock.Now))
	ta := NewTeamActivityEnhancer(src, DefaultTeamActivityConfig(),
		WithTeamClock(clock.Now), WithTeamLogger(quietLogger()))

	p, err := NewPipeline([]Enhancer{ta, meta}, WithLogger(quietLogger()))
	require.NoError(t, err)

	out, report := p.RunWithReport(context.Background(), response.Success("ok", nil), &ExecContext{SessionID: "s-2"})
	assert.Equal(t, []string{MetadataEnhancerName, TeamActivityEnhancerName}, report.Ran)
	assert.Equal(t, "s-2", out.Metadata["sessionId"])
	require.NotNil(t, out.TeamActivity())
	assert.Equal(t, 2, out.TeamActivity().Summary.TotalCommits)
}

func hasPrefixed(lines []string, prefix string) bool {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
