package enhancer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/enrich/notify"
	"github.com/randalmurphal/enrich/pr"
	"github.com/randalmurphal/enrich/response"
	"github.com/randalmurphal/enrich/team"
)

// TeamActivityEnhancerName is the registered name of TeamActivityEnhancer.
const TeamActivityEnhancerName = "TeamActivityEnhancer"

// HistorySource reads repository history. *git.Context and
// *native.Repository implement it.
type HistorySource interface {
	CurrentBranch() string
	CommitsSince(ctx context.Context, since time.Time, limit int) ([]response.Commit, error)
	RemoteBranches(ctx context.Context) ([]string, error)
	FileContributors(ctx context.Context, file string) ([]team.Contribution, error)
	MergeBase(ctx context.Context, a, b string) (string, error)
	DiffNames(ctx context.Context, from, to string) ([]string, error)
}

// PullRequestLister lists open pull requests. pr.Provider implements it.
type PullRequestLister interface {
	ListPRs(ctx context.Context, filter pr.Filter) ([]*pr.PullRequest, error)
}

// TeamActivityConfig configures TeamActivityEnhancer.
type TeamActivityConfig struct {
	// WindowDays bounds "recent" commits.
	WindowDays        int
	TrackCommits      bool
	TrackBranches     bool
	TrackPullRequests bool
	TrackFiles        bool
	DetectConflicts   bool
	// CacheTTL is how long fetched history is reused. Zero disables caching.
	CacheTTL time.Duration
	// FetchTimeout bounds each collaborator call. Zero means no limit.
	FetchTimeout        time.Duration
	MaxCommits          int
	MaxConflictBranches int
	MaxPullRequests     int

	Config
}

// DefaultTeamActivityConfig returns the default configuration.
func DefaultTeamActivityConfig() TeamActivityConfig {
	return TeamActivityConfig{
		WindowDays:          30,
		TrackCommits:        true,
		TrackBranches:       true,
		TrackPullRequests:   true,
		TrackFiles:          true,
		DetectConflicts:     true,
		CacheTTL:            5 * time.Minute,
		FetchTimeout:        10 * time.Second,
		MaxCommits:          100,
		MaxConflictBranches: 20,
		MaxPullRequests:     20,
	}
}

type commitsKey struct {
	days  int
	limit int
}

// TeamActivityEnhancer mines repository history for collaboration
// signals: recent commits, related branches, open pull requests, file
// contributors, suggested reviewers and potential conflicts.
type TeamActivityEnhancer struct {
	Base

	src      HistorySource
	prs      PullRequestLister
	matcher  *team.Matcher
	logger   *slog.Logger
	notifier notify.Notifier
	metrics  *Metrics
	now      func() time.Time

	mu  sync.RWMutex
	cfg TeamActivityConfig

	commits  *Cache[commitsKey, []response.Commit]
	branches *Cache[string, []string]
	pulls    *Cache[int, []response.PullRequest]
	files    *Cache[string, []team.Contribution]
	diffs    *Cache[string, []string]
}

// TeamOption configures TeamActivityEnhancer.
type TeamOption func(*TeamActivityEnhancer)

// WithPullRequests enables open pull request lookups.
func WithPullRequests(l PullRequestLister) TeamOption {
	return func(t *TeamActivityEnhancer) { t.prs = l }
}

// WithMatcher replaces the default token matcher.
func WithMatcher(m *team.Matcher) TeamOption {
	return func(t *TeamActivityEnhancer) {
		if m != nil {
			t.matcher = m
		}
	}
}

// WithTeamLogger sets the logger.
func WithTeamLogger(l *slog.Logger) TeamOption {
	return func(t *TeamActivityEnhancer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTeamNotifier reports detected conflicts.
func WithTeamNotifier(n notify.Notifier) TeamOption {
	return func(t *TeamActivityEnhancer) { t.notifier = n }
}

// WithTeamMetrics counts collaborator failures.
func WithTeamMetrics(m *Metrics) TeamOption {
	return func(t *TeamActivityEnhancer) { t.metrics = m }
}

// WithTeamClock replaces time.Now for the activity window and caches.
func WithTeamClock(now func() time.Time) TeamOption {
	return func(t *TeamActivityEnhancer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTeamActivityEnhancer creates a TeamActivityEnhancer reading from src.
// A nil src limits the result to pull requests.
func NewTeamActivityEnhancer(src HistorySource, cfg TeamActivityConfig, opts ...TeamOption) *TeamActivityEnhancer {
	t := &TeamActivityEnhancer{
		src:     src,
		matcher: team.DefaultMatcher(),
		logger:  slog.Default(),
		now:     time.Now,
		cfg:     cfg,
	}
	t.configure(TeamActivityEnhancerName, "Adds team collaboration context to responses",
		PriorityLow, []string{MetadataEnhancerName}, cfg.Config)
	for _, opt := range opts {
		opt(t)
	}

	clock := func() time.Time { return t.now() }
	t.commits = NewCache[commitsKey, []response.Commit](cfg.CacheTTL, clock)
	t.branches = NewCache[string, []string](cfg.CacheTTL, clock)
	t.pulls = NewCache[int, []response.PullRequest](cfg.CacheTTL, clock)
	t.files = NewCache[string, []team.Contribution](cfg.CacheTTL, clock)
	t.diffs = NewCache[string, []string](cfg.CacheTTL, clock)
	return t
}

// Settings returns a copy of the current configuration.
func (t *TeamActivityEnhancer) Settings() TeamActivityConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

// Configure changes the configuration at run time. Cached data is kept;
// sub-features switched off simply stop appearing in results.
func (t *TeamActivityEnhancer) Configure(fn func(*TeamActivityConfig)) {
	t.mu.Lock()
	fn(&t.cfg)
	ttl := t.cfg.CacheTTL
	t.mu.Unlock()

	t.commits.SetTTL(ttl)
	t.branches.SetTTL(ttl)
	t.pulls.SetTTL(ttl)
	t.files.SetTTL(ttl)
	t.diffs.SetTTL(ttl)
}

// Invalidate drops all cached history.
func (t *TeamActivityEnhancer) Invalidate() {
	t.commits.Purge()
	t.branches.Purge()
	t.pulls.Purge()
	t.files.Purge()
	t.diffs.Purge()
}

// Enhance implements Enhancer. Without an execution context it attaches a
// limited block and reads nothing.
func (t *TeamActivityEnhancer) Enhance(ctx context.Context, r *response.Response, ec *ExecContext) (*response.Response, error) {
	if ec == nil {
		r.SetTeamActivity(&response.TeamActivity{Limited: true})
		return r, nil
	}

	cfg := t.Settings()
	ta := &response.TeamActivity{Limited: t.src == nil}
	user := actingUser(r, ec)
	files := team.NamedFiles(r)
	target := t.targetBranch(r, ec)

	var commits []response.Commit
	if cfg.TrackCommits && t.src != nil {
		if c, err := t.recentCommits(ctx, cfg); err != nil {
			t.degrade("commits", err)
		} else {
			commits = c
			ta.RecentCommits = c
			ta.ActiveContributors = team.ActiveContributors(c)
			ta.Summary = team.Summarize(c)
			_, rest := team.SplitBranch(target)
			keywords := team.Keywords(t.matcher, append([]string{rest}, ec.Keywords...)...)
			ta.RelatedWork = team.RelatedWork(c, keywords, t.matcher)
		}
	}

	var remotes []string
	remotesOK := false
	if (cfg.TrackBranches || cfg.DetectConflicts) && t.src != nil {
		if b, err := t.remoteBranches(ctx, cfg); err != nil {
			t.degrade("branches", err)
		} else {
			remotes, remotesOK = b, true
		}
	}

	var related []string
	if remotesOK {
		related = team.RelatedBranches(target, stripRemotes(remotes), t.matcher)
		if cfg.TrackBranches {
			ta.RelatedBranches = related
		}
	}

	if cfg.TrackPullRequests && t.prs != nil {
		if p, err := t.pullRequests(ctx, cfg); err != nil {
			t.degrade("pull_requests", err)
		} else {
			ta.ActivePRs = p
		}
	}

	if cfg.TrackFiles && t.src != nil && len(files) > 0 {
		t.fileActivity(ctx, cfg, files, user, ta)
	}

	if cfg.DetectConflicts && remotesOK && len(files) > 0 {
		ta.PotentialConflicts = t.conflicts(ctx, cfg, target, remotes, related, files)
	}

	insights := team.Insights(team.Signals{
		RelatedBranches: ta.RelatedBranches,
		Conflicts:       ta.PotentialConflicts,
		Reviewers:       ta.PotentialReviewers,
		PullRequests:    ta.ActivePRs,
		RelatedWork:     ta.RelatedWork,
		Commits:         commits,
		Summary:         ta.Summary,
		WindowDays:      cfg.WindowDays,
		User:            user,
	})
	if len(insights) > 0 {
		ta.Insights = insights
	}

	if n := len(ta.PotentialConflicts); n > 0 {
		r.AddRisk(response.RiskMedium, fmt.Sprintf("Named files were also changed on %d other %s", n, branchWord(n)))
		t.notifyConflicts(ctx, r, ec, ta.PotentialConflicts)
	}
	if len(ta.PotentialReviewers) > 0 {
		r.AddSuggestion("request-review",
			"Request review from "+strings.Join(ta.PotentialReviewers[:min(3, len(ta.PotentialReviewers))], ", "),
			"medium")
	}

	r.SetTeamActivity(ta)
	return r, nil
}

func (t *TeamActivityEnhancer) fetchCtx(ctx context.Context, cfg TeamActivityConfig) (context.Context, context.CancelFunc) {
	if cfg.FetchTimeout > 0 {
		return context.WithTimeout(ctx, cfg.FetchTimeout)
	}
	return context.WithCancel(ctx)
}

// The history helpers below hand out copies of cached slices, since the
// results end up in responses that callers may edit.
func (t *TeamActivityEnhancer) recentCommits(ctx context.Context, cfg TeamActivityConfig) ([]response.Commit, error) {
	key := commitsKey{days: cfg.WindowDays, limit: cfg.MaxCommits}
	if c, ok := t.commits.Get(key); ok {
		return slices.Clone(c), nil
	}

	ctx, cancel := t.fetchCtx(ctx, cfg)
	defer cancel()
	since := t.now().AddDate(0, 0, -cfg.WindowDays)
	c, err := t.src.CommitsSince(ctx, since, cfg.MaxCommits)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = []response.Commit{}
	}
	t.commits.Set(key, c)
	return slices.Clone(c), nil
}

func (t *TeamActivityEnhancer) remoteBranches(ctx context.Context, cfg TeamActivityConfig) ([]string, error) {
	if b, ok := t.branches.Get(""); ok {
		return slices.Clone(b), nil
	}

	ctx, cancel := t.fetchCtx(ctx, cfg)
	defer cancel()
	b, err := t.src.RemoteBranches(ctx)
	if err != nil {
		return nil, err
	}
	t.branches.Set("", b)
	return slices.Clone(b), nil
}

func (t *TeamActivityEnhancer) pullRequests(ctx context.Context, cfg TeamActivityConfig) ([]response.PullRequest, error) {
	if p, ok := t.pulls.Get(cfg.MaxPullRequests); ok {
		return slices.Clone(p), nil
	}

	ctx, cancel := t.fetchCtx(ctx, cfg)
	defer cancel()
	list, err := t.prs.ListPRs(ctx, pr.Filter{State: pr.StateOpen, Limit: cfg.MaxPullRequests})
	if err != nil {
		return nil, err
	}
	p := pr.ToActivity(list)
	t.pulls.Set(cfg.MaxPullRequests, p)
	return slices.Clone(p), nil
}

// fileActivity fills FileContributors and PotentialReviewers. Files whose
// lookup fails are left out.
func (t *TeamActivityEnhancer) fileActivity(ctx context.Context, cfg TeamActivityConfig, files []string, user string, ta *response.TeamActivity) {
	perFile := make(map[string]map[string]int, len(files))
	var lists [][]team.Contribution
	for _, f := range files {
		contribs, ok := t.files.Get(f)
		if !ok {
			fctx, cancel := t.fetchCtx(ctx, cfg)
			c, err := t.src.FileContributors(fctx, f)
			cancel()
			if err != nil {
				t.degrade("files", fmt.Errorf("%s: %w", f, err))
				continue
			}
			t.files.Set(f, c)
			contribs = c
		}
		contribs = slices.Clone(contribs)
		perFile[f] = team.CountMap(contribs)
		lists = append(lists, contribs)
	}
	if len(lists) == 0 {
		return
	}
	ta.FileContributors = perFile
	if reviewers := team.RankReviewers(lists, user); len(reviewers) > 0 {
		ta.PotentialReviewers = reviewers
	}
}

// conflicts compares named files with the files each remote branch
// changed since it forked from HEAD. Related branches are checked first.
func (t *TeamActivityEnhancer) conflicts(ctx context.Context, cfg TeamActivityConfig, target string, remotes, related, files []string) []response.Conflict {
	refs := conflictCandidates(target, remotes, related, cfg.MaxConflictBranches)

	var found []response.Conflict
	for _, ref := range refs {
		changed, err := t.changedOn(ctx, cfg, ref)
		if err != nil {
			t.degrade("conflicts", fmt.Errorf("%s: %w", ref, err))
			continue
		}
		if both := team.Intersect(changed, files); len(both) > 0 {
			found = append(found, response.Conflict{
				Branch:           team.StripRemote(ref),
				ConflictingFiles: both,
			})
		}
	}
	return found
}

func (t *TeamActivityEnhancer) changedOn(ctx context.Context, cfg TeamActivityConfig, ref string) ([]string, error) {
	if c, ok := t.diffs.Get(ref); ok {
		return slices.Clone(c), nil
	}

	ctx, cancel := t.fetchCtx(ctx, cfg)
	defer cancel()
	base, err := t.src.MergeBase(ctx, "HEAD", ref)
	if err != nil {
		return nil, err
	}
	changed, err := t.src.DiffNames(ctx, base, ref)
	if err != nil {
		return nil, err
	}
	t.diffs.Set(ref, changed)
	return slices.Clone(changed), nil
}

// conflictCandidates picks up to limit remote refs, related branches
// first, skipping the target branch itself.
func conflictCandidates(target string, remotes, related []string, limit int) []string {
	isRelated := make(map[string]bool, len(related))
	for _, b := range related {
		isRelated[b] = true
	}

	var first, rest []string
	for _, ref := range remotes {
		name := team.StripRemote(ref)
		if name == target {
			continue
		}
		if isRelated[name] {
			first = append(first, ref)
		} else {
			rest = append(rest, ref)
		}
	}
	refs := append(first, rest...)
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs
}

func (t *TeamActivityEnhancer) targetBranch(r *response.Response, ec *ExecContext) string {
	if b, ok := r.Data["branch"].(string); ok && b != "" {
		return b
	}
	if ec.Git != nil && ec.Git.Branch != "" {
		return ec.Git.Branch
	}
	if t.src != nil {
		return t.src.CurrentBranch()
	}
	return ""
}

func (t *TeamActivityEnhancer) degrade(feature string, err error) {
	t.logger.Warn("team activity degraded", "enhancer", t.Name(), "op", feature, "error", err)
	t.metrics.fetchError(feature)
}

func (t *TeamActivityEnhancer) notifyConflicts(ctx context.Context, r *response.Response, ec *ExecContext, conflicts []response.Conflict) {
	if t.notifier == nil {
		return
	}
	branches := make([]string, len(conflicts))
	files := make(map[string][]string, len(conflicts))
	for i, c := range conflicts {
		branches[i] = c.Branch
		files[c.Branch] = c.ConflictingFiles
	}
	err := t.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventConflictDetected,
		RunID:     runID(r, ec),
		Enhancer:  t.Name(),
		Message:   fmt.Sprintf("Potential conflicts with %s", strings.Join(branches, ", ")),
		Severity:  notify.SeverityWarning,
		Timestamp: t.now(),
		Metadata:  map[string]any{"files": files},
	})
	if err != nil {
		t.logger.Warn("conflict notification not sent", "enhancer", t.Name(), "error", err)
	}
}

func actingUser(r *response.Response, ec *ExecContext) string {
	if ec.User != "" {
		return ec.User
	}
	if u, ok := r.Context["user"].(string); ok {
		return u
	}
	return ""
}

func stripRemotes(refs []string) []string {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = team.StripRemote(ref)
	}
	return names
}

func branchWord(n int) string {
	if n == 1 {
		return "branch"
	}
	return "branches"
}
