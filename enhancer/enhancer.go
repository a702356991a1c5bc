package enhancer

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/enrich/response"
)

// Default priorities. Higher runs earlier when dependencies allow.
const (
	PriorityHighest = 100
	PriorityHigh    = 80
	PriorityNormal  = 50
	PriorityLow     = 20
	PriorityLowest  = 10
)

// Enhancer enriches a Response. Implementations must not change the
// response status or remove suggestions and risks.
type Enhancer interface {
	Name() string
	Priority() int
	Dependencies() []string
	Enabled() bool
	CanEnhance(r *response.Response) bool
	// Enhance returns the enriched response, which may be r itself.
	Enhance(ctx context.Context, r *response.Response, ec *ExecContext) (*response.Response, error)
}

// Session identifies the caller session.
type Session struct {
	ID string `json:"id"`
}

// Source identifies the tool that produced a response.
type Source struct {
	Tool      string `json:"tool,omitempty"`
	Version   string `json:"version,omitempty"`
	Component string `json:"component,omitempty"`
}

// GitInfo is repository state known to the caller.
type GitInfo struct {
	Branch     string `json:"branch,omitempty"`
	LastCommit string `json:"lastCommit,omitempty"`
}

// ExecContext describes the operation whose response is being enriched.
// A nil *ExecContext is valid and means nothing is known.
type ExecContext struct {
	Session            *Session       `json:"session,omitempty"`
	SessionID          string         `json:"sessionId,omitempty"`
	Operation          string         `json:"operation,omitempty"`
	User               string         `json:"user,omitempty"`
	Source             *Source        `json:"source,omitempty"`
	OperationStartTime time.Time      `json:"operationStartTime,omitempty"`
	Git                *GitInfo       `json:"gitContext,omitempty"`
	Keywords           []string       `json:"keywords,omitempty"`
	Values             map[string]any `json:"values,omitempty"`
}

func (ec *ExecContext) sessionID() string {
	if ec == nil {
		return ""
	}
	if ec.Session != nil && ec.Session.ID != "" {
		return ec.Session.ID
	}
	return ec.SessionID
}

// Config holds the settings shared by every enhancer. Zero values select
// the enhancer's defaults; a nil Dependencies keeps the default list.
type Config struct {
	Priority     int
	Dependencies []string
	Disabled     bool
}

// Base implements the bookkeeping half of Enhancer. Embed it and supply
// Enhance.
type Base struct {
	name        string
	description string
	priority    int
	deps        []string
	disabled    atomic.Bool
}

func (b *Base) configure(name, description string, defPriority int, defDeps []string, cfg Config) {
	b.name = name
	b.description = description
	b.priority = defPriority
	if cfg.Priority != 0 {
		b.priority = cfg.Priority
	}
	b.deps = defDeps
	if cfg.Dependencies != nil {
		b.deps = cfg.Dependencies
	}
	b.disabled.Store(cfg.Disabled)
}

// Name implements Enhancer.
func (b *Base) Name() string { return b.name }

// Description says what the enhancer adds.
func (b *Base) Description() string { return b.description }

// Priority implements Enhancer.
func (b *Base) Priority() int { return b.priority }

// Dependencies implements Enhancer.
func (b *Base) Dependencies() []string { return slices.Clone(b.deps) }

// Enabled implements Enhancer.
func (b *Base) Enabled() bool { return !b.disabled.Load() }

// SetEnabled toggles the enhancer at run time.
func (b *Base) SetEnabled(enabled bool) { b.disabled.Store(!enabled) }

// CanEnhance implements Enhancer.
func (b *Base) CanEnhance(r *response.Response) bool {
	return r != nil && b.Enabled()
}
