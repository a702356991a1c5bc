package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/enrich/enhancer"
	"github.com/randalmurphal/enrich/pr"
)

// Configuration keys.
const (
	KeyMetadataSystem     = "metadata.system"
	KeyMetadataProcess    = "metadata.process"
	KeyMetadataTimestamps = "metadata.timestamps"

	KeyTeamWindowDays   = "team.window_days"
	KeyTeamCommits      = "team.commits"
	KeyTeamBranches     = "team.branches"
	KeyTeamPullRequests = "team.pull_requests"
	KeyTeamFiles        = "team.files"
	KeyTeamConflicts    = "team.conflicts"
	KeyTeamCacheTTL     = "team.cache_ttl"
	KeyTeamMaxCommits   = "team.max_commits"
	KeyTeamFetchTimeout = "team.fetch_timeout"

	KeyGitBackend = "git.backend"
	KeyPRProvider = "pr.provider"

	KeyNotifyWebhook = "notify.webhook"
	KeyNotifySlack   = "notify.slack"

	KeyServerAddr      = "server.addr"
	KeyServerJWTSecret = "server.jwt_secret"
	KeyServerAPIKeys   = "server.api_keys"

	KeyLogLevel = "log.level"
)

// Git backends.
const (
	BackendExec   = "exec"
	BackendNative = "native"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ENRICH_"

// Defaults returns the built-in value of every key.
func Defaults() map[string]string {
	return map[string]string{
		KeyMetadataSystem:     "true",
		KeyMetadataProcess:    "true",
		KeyMetadataTimestamps: "true",
		KeyTeamWindowDays:     "30",
		KeyTeamCommits:        "true",
		KeyTeamBranches:       "true",
		KeyTeamPullRequests:   "true",
		KeyTeamFiles:          "true",
		KeyTeamConflicts:      "true",
		KeyTeamCacheTTL:       "5m",
		KeyTeamMaxCommits:     "100",
		KeyTeamFetchTimeout:   "10s",
		KeyGitBackend:         BackendExec,
		KeyPRProvider:         pr.KindAuto,
		KeyNotifyWebhook:      "",
		KeyNotifySlack:        "",
		KeyServerAddr:         ":8080",
		KeyServerJWTSecret:    "",
		KeyServerAPIKeys:      "",
		KeyLogLevel:           "info",
	}
}

// ValidKeys lists every recognised key, sorted.
func ValidKeys() []string {
	keys := make([]string, 0, len(Defaults()))
	for k := range Defaults() {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// DefaultResolverConfig is the resolver setup used by the enrich CLI:
// ~/.config/enrich/config.yaml, .enrich.yaml in the git root and ENRICH_
// environment variables.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		EnvPrefix:       EnvPrefix,
		GlobalConfigDir: "enrich",
		LocalConfigName: ".enrich.yaml",
		Defaults:        Defaults(),
		ValidKeys:       ValidKeys(),
	}
}

// DefaultSaveConfig writes the files DefaultResolverConfig reads.
func DefaultSaveConfig() SaveConfig {
	return SaveConfig{
		GlobalConfigDir: "enrich",
		LocalConfigName: ".enrich.yaml",
		ValidKeys:       ValidKeys(),
	}
}

// ErrInvalidValue is wrapped by every InvalidValueError.
var ErrInvalidValue = errors.New("invalid config value")

// InvalidValueError reports a value that could not be interpreted.
type InvalidValueError struct {
	Key    string
	Value  string
	Source Source
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s=%q (from %s): %s", e.Key, e.Value, e.Source, e.Reason)
}

func (e *InvalidValueError) Unwrap() error {
	return ErrInvalidValue
}

// TeamSettings configures the team-activity enhancer.
type TeamSettings struct {
	WindowDays   int
	Commits      bool
	Branches     bool
	PullRequests bool
	Files        bool
	Conflicts    bool
	CacheTTL     time.Duration
	MaxCommits   int
	FetchTimeout time.Duration
}

// Settings is the typed view of a Resolved configuration.
type Settings struct {
	MetadataSystem     bool
	MetadataProcess    bool
	MetadataTimestamps bool

	Team TeamSettings

	GitBackend string
	PRProvider string

	NotifyWebhook string
	NotifySlack   string

	ServerAddr string
	JWTSecret  string
	APIKeys    []string

	LogLevel slog.Level
}

// Parse converts resolved values into Settings. Every invalid value is
// reported; the returned error joins one *InvalidValueError per key.
func Parse(c *Resolved) (*Settings, error) {
	p := parser{c: c}
	s := &Settings{
		MetadataSystem:     p.bool(KeyMetadataSystem),
		MetadataProcess:    p.bool(KeyMetadataProcess),
		MetadataTimestamps: p.bool(KeyMetadataTimestamps),
		Team: TeamSettings{
			WindowDays:   p.positiveInt(KeyTeamWindowDays),
			Commits:      p.bool(KeyTeamCommits),
			Branches:     p.bool(KeyTeamBranches),
			PullRequests: p.bool(KeyTeamPullRequests),
			Files:        p.bool(KeyTeamFiles),
			Conflicts:    p.bool(KeyTeamConflicts),
			CacheTTL:     p.duration(KeyTeamCacheTTL),
			MaxCommits:   p.positiveInt(KeyTeamMaxCommits),
			FetchTimeout: p.duration(KeyTeamFetchTimeout),
		},
		GitBackend:    p.oneOf(KeyGitBackend, BackendExec, BackendNative),
		PRProvider:    p.oneOf(KeyPRProvider, pr.KindAuto, pr.KindGitHub, pr.KindGitLab, pr.KindCLI, pr.KindNone),
		NotifyWebhook: c.Get(KeyNotifyWebhook),
		NotifySlack:   c.Get(KeyNotifySlack),
		ServerAddr:    c.Get(KeyServerAddr),
		JWTSecret:     c.Get(KeyServerJWTSecret),
		APIKeys:       splitList(c.Get(KeyServerAPIKeys)),
		LogLevel:      p.level(KeyLogLevel),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return s, nil
}

// MetadataConfig returns the metadata enhancer configuration.
func (s *Settings) MetadataConfig() enhancer.MetadataConfig {
	return enhancer.MetadataConfig{
		IncludeSystemInfo:  s.MetadataSystem,
		IncludeProcessInfo: s.MetadataProcess,
		IncludeTimestamps:  s.MetadataTimestamps,
	}
}

// TeamActivityConfig returns the team-activity enhancer configuration.
// Limits not exposed as keys keep their defaults.
func (s *Settings) TeamActivityConfig() enhancer.TeamActivityConfig {
	cfg := enhancer.DefaultTeamActivityConfig()
	cfg.WindowDays = s.Team.WindowDays
	cfg.TrackCommits = s.Team.Commits
	cfg.TrackBranches = s.Team.Branches
	cfg.TrackPullRequests = s.Team.PullRequests
	cfg.TrackFiles = s.Team.Files
	cfg.DetectConflicts = s.Team.Conflicts
	cfg.CacheTTL = s.Team.CacheTTL
	cfg.MaxCommits = s.Team.MaxCommits
	cfg.FetchTimeout = s.Team.FetchTimeout
	return cfg
}

type parser struct {
	c    *Resolved
	errs []error
}

func (p *parser) fail(key, reason string) {
	value, source := p.c.GetWithSource(key)
	p.errs = append(p.errs, &InvalidValueError{Key: key, Value: value, Source: source, Reason: reason})
}

func (p *parser) bool(key string) bool {
	b, err := strconv.ParseBool(p.c.Get(key))
	if err != nil {
		p.fail(key, "want true or false")
	}
	return b
}

func (p *parser) positiveInt(key string) int {
	n, err := strconv.Atoi(p.c.Get(key))
	if err != nil || n <= 0 {
		p.fail(key, "want a positive integer")
		return 0
	}
	return n
}

// duration accepts Go durations ("90s", "5m") and bare seconds.
func (p *parser) duration(key string) time.Duration {
	v := p.c.Get(key)
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		p.fail(key, "want a duration such as 30s or 5m")
		return 0
	}
	return d
}

func (p *parser) oneOf(key string, allowed ...string) string {
	v := strings.ToLower(p.c.Get(key))
	if !slices.Contains(allowed, v) {
		p.fail(key, "want one of "+strings.Join(allowed, ", "))
	}
	return v
}

func (p *parser) level(key string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(p.c.Get(key))); err != nil {
		p.fail(key, "want debug, info, warn or error")
	}
	return l
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
