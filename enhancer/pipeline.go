package enhancer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/randalmurphal/enrich/notify"
	"github.com/randalmurphal/enrich/response"
)

// Pipeline runs a fixed, dependency-ordered set of enhancers over a
// Response. A failing stage never aborts a run: its output is discarded
// and the response from before the stage continues down the chain.
//
// A Pipeline is safe for concurrent runs as long as its enhancers are.
type Pipeline struct {
	order        []Enhancer
	index        map[string]Enhancer
	logger       *slog.Logger
	metrics      *Metrics
	notifier     notify.Notifier
	stageTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records stage outcomes.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithNotifier reports failed stages.
func WithNotifier(n notify.Notifier) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithStageTimeout bounds each stage. A stage that overruns is treated as
// failed. Zero means no limit.
func WithStageTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.stageTimeout = d }
}

// NewPipeline validates the enhancer set and fixes the execution order.
// Every returned error is a *ConfigError.
func NewPipeline(enhancers []Enhancer, opts ...Option) (*Pipeline, error) {
	order, err := sortEnhancers(enhancers)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		order:  order,
		index:  make(map[string]Enhancer, len(order)),
		logger: slog.Default(),
	}
	for _, e := range order {
		p.index[e.Name()] = e
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// sortEnhancers is Kahn's algorithm. Among ready enhancers the highest
// priority goes first; equal priorities keep registration order.
func sortEnhancers(enhancers []Enhancer) ([]Enhancer, error) {
	pos := make(map[string]int, len(enhancers))
	for i, e := range enhancers {
		name := e.Name()
		if name == "" {
			return nil, &ConfigError{Enhancer: fmt.Sprintf("#%d", i), Err: ErrNoName}
		}
		if _, dup := pos[name]; dup {
			return nil, &ConfigError{Enhancer: name, Err: ErrDuplicateEnhancer}
		}
		pos[name] = i
	}

	indegree := make([]int, len(enhancers))
	dependents := make([][]int, len(enhancers))
	for i, e := range enhancers {
		for _, dep := range e.Dependencies() {
			j, ok := pos[dep]
			if !ok {
				return nil, &ConfigError{Enhancer: e.Name(), Dependency: dep, Err: ErrUnknownDependency}
			}
			if e.Enabled() && !enhancers[j].Enabled() {
				return nil, &ConfigError{Enhancer: e.Name(), Dependency: dep, Err: ErrDisabledDependency}
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i := range enhancers {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]Enhancer, 0, len(enhancers))
	for len(ready) > 0 {
		best := 0
		for k := 1; k < len(ready); k++ {
			if runsBefore(enhancers, ready[k], ready[best]) {
				best = k
			}
		}
		i := ready[best]
		ready = slices.Delete(ready, best, best+1)
		order = append(order, enhancers[i])

		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	if len(order) < len(enhancers) {
		for i, e := range enhancers {
			if indegree[i] > 0 {
				return nil, &ConfigError{Enhancer: e.Name(), Err: ErrCyclicDependency}
			}
		}
	}
	return order, nil
}

func runsBefore(enhancers []Enhancer, a, b int) bool {
	pa, pb := enhancers[a].Priority(), enhancers[b].Priority()
	if pa != pb {
		return pa > pb
	}
	return a < b
}

// Order returns enhancer names in execution order.
func (p *Pipeline) Order() []string {
	names := make([]string, len(p.order))
	for i, e := range p.order {
		names[i] = e.Name()
	}
	return names
}

// Enhancers returns the enhancers in execution order.
func (p *Pipeline) Enhancers() []Enhancer {
	return slices.Clone(p.order)
}

// Lookup returns the enhancer registered under name.
func (p *Pipeline) Lookup(name string) (Enhancer, bool) {
	e, ok := p.index[name]
	return e, ok
}

// Report describes what happened to each stage of one run.
type Report struct {
	Ran     []string
	Skipped []string
	Failed  []*StageError
}

// Run enhances r and returns the final response. A nil r is returned
// as is.
func (p *Pipeline) Run(ctx context.Context, r *response.Response, ec *ExecContext) *response.Response {
	out, _ := p.RunWithReport(ctx, r, ec)
	return out
}

// RunWithReport is Run plus a per-stage account.
func (p *Pipeline) RunWithReport(ctx context.Context, r *response.Response, ec *ExecContext) (*response.Response, Report) {
	var report Report
	if r == nil {
		return nil, report
	}

	// Metadata keys present on entry belong to the caller.
	owners := make(map[string]string, len(r.Metadata))
	for k := range r.Metadata {
		owners[k] = ""
	}

	cur := r
	for _, e := range p.order {
		name := e.Name()
		if !e.Enabled() || !e.CanEnhance(cur) {
			p.logger.Debug("enhancer skipped", "enhancer", name)
			p.metrics.stage(name, OutcomeSkipped, 0)
			report.Skipped = append(report.Skipped, name)
			continue
		}

		start := time.Now()
		out, err := p.runStage(ctx, e, cur.Clone(), ec)
		if err == nil {
			err = checkStage(cur, out)
		}
		elapsed := time.Since(start)

		if err != nil {
			serr := asStageError(name, err)
			p.logger.Warn("enhancer failed", "enhancer", name, "error", serr.Err, "panic", serr.Panic)
			p.metrics.stage(name, OutcomeFailed, elapsed)
			p.notifyFailure(ctx, cur, ec, serr)
			report.Failed = append(report.Failed, serr)
			continue
		}

		p.enforceOwnership(name, owners, cur, out)
		p.metrics.stage(name, OutcomeSuccess, elapsed)
		report.Ran = append(report.Ran, name)
		cur = out
	}
	return cur, report
}

func (p *Pipeline) runStage(ctx context.Context, e Enhancer, r *response.Response, ec *ExecContext) (*response.Response, error) {
	if p.stageTimeout <= 0 {
		return invoke(ctx, e, r, ec)
	}

	ctx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()

	type result struct {
		r   *response.Response
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := invoke(ctx, e, r, ec)
		done <- result{out, err}
	}()

	select {
	case res := <-done:
		return res.r, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("stage timed out after %s: %w", p.stageTimeout, ctx.Err())
	}
}

func invoke(ctx context.Context, e Enhancer, r *response.Response, ec *ExecContext) (out *response.Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = &StageError{Enhancer: e.Name(), Panic: true, Err: fmt.Errorf("%v", rec)}
		}
	}()
	return e.Enhance(ctx, r, ec)
}

// checkStage rejects results that break the response contract.
func checkStage(before, after *response.Response) error {
	if after == nil {
		return ErrNilResponse
	}
	if after.Status != before.Status {
		return ErrStatusChanged
	}
	if !hasPrefix(after.Suggestions, before.Suggestions) || !hasPrefix(after.Risks, before.Risks) {
		return ErrListShrunk
	}
	return nil
}

func hasPrefix[T comparable](s, prefix []T) bool {
	return len(s) >= len(prefix) && slices.Equal(s[:len(prefix)], prefix)
}

// enforceOwnership restores metadata keys that the stage overwrote or
// deleted but did not own, and records the keys it added.
func (p *Pipeline) enforceOwnership(stage string, owners map[string]string, before, after *response.Response) {
	for key, owner := range owners {
		if owner == stage {
			continue
		}
		prev := before.Metadata[key]
		got, ok := after.Metadata[key]
		if ok && reflect.DeepEqual(got, prev) {
			continue
		}
		ownerName := owner
		if ownerName == "" {
			ownerName = "caller"
		}
		p.logger.Warn("metadata key owned by another writer restored",
			"enhancer", stage, "key", key, "owner", ownerName)
		after.AddMetadata(key, prev)
	}
	for key := range after.Metadata {
		if _, known := owners[key]; !known {
			owners[key] = stage
		}
	}
}

func (p *Pipeline) notifyFailure(ctx context.Context, r *response.Response, ec *ExecContext, serr *StageError) {
	if p.notifier == nil {
		return
	}
	event := notify.Event{
		Type:      notify.EventEnhancerFailed,
		RunID:     runID(r, ec),
		Enhancer:  serr.Enhancer,
		Message:   serr.Error(),
		Severity:  notify.SeverityWarning,
		Timestamp: time.Now(),
	}
	if err := p.notifier.Notify(ctx, event); err != nil {
		p.logger.Warn("failure notification not sent", "enhancer", serr.Enhancer, "error", err)
	}
}

func asStageError(name string, err error) *StageError {
	var serr *StageError
	if errors.As(err, &serr) && serr.Enhancer == name {
		return serr
	}
	return &StageError{Enhancer: name, Err: err}
}

// runID identifies a run for notifications: the session ID when known.
func runID(r *response.Response, ec *ExecContext) string {
	if id := ec.sessionID(); id != "" {
		return id
	}
	if r != nil {
		if id, ok := r.Metadata["sessionId"].(string); ok {
			return id
		}
	}
	return ""
}
