package enhancer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"runtime"
	"time"

	"github.com/randalmurphal/enrich/response"
)

// MetadataEnhancerName is the registered name of MetadataEnhancer.
const MetadataEnhancerName = "MetadataEnhancer"

var processStart = time.Now()

// MetadataFunc computes a custom metadata value per run. ec may be nil.
type MetadataFunc func(ec *ExecContext) any

// MetadataConfig configures MetadataEnhancer.
type MetadataConfig struct {
	IncludeSystemInfo  bool
	IncludeProcessInfo bool
	IncludeTimestamps  bool
	// CustomMetadata values are written verbatim, except MetadataFunc
	// values, which are called on every run.
	CustomMetadata map[string]any

	Config
}

// DefaultMetadataConfig enables everything.
func DefaultMetadataConfig() MetadataConfig {
	return MetadataConfig{
		IncludeSystemInfo:  true,
		IncludeProcessInfo: true,
		IncludeTimestamps:  true,
	}
}

// MetadataEnhancer attaches timestamps, host and process facts, and the
// session and operation details carried by the execution context.
type MetadataEnhancer struct {
	Base
	cfg    MetadataConfig
	logger *slog.Logger
	now    func() time.Time
}

// MetadataOption configures MetadataEnhancer.
type MetadataOption func(*MetadataEnhancer)

// WithMetadataLogger sets the logger.
func WithMetadataLogger(l *slog.Logger) MetadataOption {
	return func(m *MetadataEnhancer) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetadataClock replaces time.Now.
func WithMetadataClock(now func() time.Time) MetadataOption {
	return func(m *MetadataEnhancer) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMetadataEnhancer creates a MetadataEnhancer.
func NewMetadataEnhancer(cfg MetadataConfig, opts ...MetadataOption) *MetadataEnhancer {
	m := &MetadataEnhancer{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	m.cfg.CustomMetadata = maps.Clone(cfg.CustomMetadata)
	m.configure(MetadataEnhancerName, "Adds contextual metadata to responses", PriorityHigh, nil, cfg.Config)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enhance implements Enhancer.
func (m *MetadataEnhancer) Enhance(ctx context.Context, r *response.Response, ec *ExecContext) (*response.Response, error) {
	now := m.now()

	if m.cfg.IncludeTimestamps {
		r.AddMetadata("enhancedAt", now.UTC().Format(time.RFC3339Nano))
	}
	if m.cfg.IncludeSystemInfo {
		r.AddMetadata("system", systemInfo())
	}
	if m.cfg.IncludeProcessInfo {
		r.AddMetadata("process", map[string]any{
			"pid":        os.Getpid(),
			"uptime":     now.Sub(processStart).Seconds(),
			"goroutines": runtime.NumGoroutine(),
		})
	}

	if ec != nil {
		if id := ec.sessionID(); id != "" {
			r.AddMetadata("sessionId", id)
		}
		if !ec.OperationStartTime.IsZero() {
			r.AddMetadata("operationDuration", now.Sub(ec.OperationStartTime).Milliseconds())
		}
		if ec.Operation != "" {
			r.AddMetadata("operation", ec.Operation)
		}
		if ec.User != "" {
			r.AddMetadata("user", ec.User)
		}
		if ec.Source != nil {
			r.AddMetadata("source", sourceMap(ec.Source))
		}
	}

	for key, value := range m.cfg.CustomMetadata {
		v, err := m.evaluate(value, ec)
		if err != nil {
			m.logger.Warn("custom metadata skipped", "enhancer", m.Name(), "key", key, "error", err)
			continue
		}
		r.AddMetadata(key, v)
	}
	return r, nil
}

func (m *MetadataEnhancer) evaluate(value any, ec *ExecContext) (v any, err error) {
	fn, ok := value.(MetadataFunc)
	if !ok {
		if plain, isFunc := value.(func(*ExecContext) any); isFunc {
			fn, ok = plain, true
		}
	}
	if !ok {
		return value, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("metadata function panicked: %v", rec)
		}
	}()
	return fn(ec), nil
}

func systemInfo() map[string]any {
	info := map[string]any{
		"platform":       runtime.GOOS,
		"arch":           runtime.GOARCH,
		"runtimeVersion": runtime.Version(),
		"cpus":           runtime.NumCPU(),
	}
	if host, err := os.Hostname(); err == nil {
		info["hostname"] = host
	}
	return info
}

func sourceMap(s *Source) map[string]any {
	out := map[string]any{}
	if s.Tool != "" {
		out["tool"] = s.Tool
	}
	if s.Version != "" {
		out["version"] = s.Version
	}
	if s.Component != "" {
		out["component"] = s.Component
	}
	return out
}
