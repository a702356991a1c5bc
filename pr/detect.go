package pr

import (
	"fmt"
	"os"

	"github.com/randalmurphal/enrich/git"
)

// Provider kinds accepted by New.
const (
	KindAuto   = "auto"
	KindGitHub = "github"
	KindGitLab = "gitlab"
	KindCLI    = "gh"
	KindNone   = "none"
)

// Options selects and configures a provider.
type Options struct {
	// Kind is one of the Kind constants; empty means KindAuto.
	Kind      string
	RemoteURL string
	// Token is the API token. Empty falls back to the environment.
	Token string
	// Runner and Dir are used by the gh CLI provider.
	Runner git.CommandRunner
	Dir    string
}

// New creates the provider described by opts. KindAuto detects the host
// from RemoteURL; a GitHub remote without a token uses the gh CLI. KindNone
// returns ErrNoProvider.
func New(opts Options) (Provider, error) {
	kind := opts.Kind
	if kind == "" {
		kind = KindAuto
	}

	if kind == KindAuto {
		detected, err := DetectProvider(opts.RemoteURL)
		if err != nil {
			return nil, err
		}
		kind = detected
		if kind == KindGitHub && tokenFor(KindGitHub, opts.Token) == "" {
			kind = KindCLI
		}
	}

	switch kind {
	case KindNone:
		return nil, ErrNoProvider
	case KindCLI:
		return NewCLIProvider(opts.Runner, opts.Dir), nil
	case KindGitHub:
		token := tokenFor(KindGitHub, opts.Token)
		if token == "" {
			return nil, fmt.Errorf("GITHUB_TOKEN or GIT_TOKEN not set: %w", ErrNoToken)
		}
		return NewGitHubProviderFromURL(token, opts.RemoteURL)
	case KindGitLab:
		token := tokenFor(KindGitLab, opts.Token)
		if token == "" {
			return nil, fmt.Errorf("GITLAB_TOKEN or GIT_TOKEN not set: %w", ErrNoToken)
		}
		return NewGitLabProviderFromURL(token, opts.RemoteURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, kind)
	}
}

// ProviderFromEnv creates an API provider for remoteURL using
// GITHUB_TOKEN or GITLAB_TOKEN, with GIT_TOKEN as a fallback.
func ProviderFromEnv(remoteURL string) (Provider, error) {
	kind, err := DetectProvider(remoteURL)
	if err != nil {
		return nil, err
	}
	return New(Options{Kind: kind, RemoteURL: remoteURL})
}

// ProviderFromEnvWithToken creates an API provider with an explicit token.
func ProviderFromEnvWithToken(remoteURL, token string) (Provider, error) {
	kind, err := DetectProvider(remoteURL)
	if err != nil {
		return nil, err
	}
	return New(Options{Kind: kind, RemoteURL: remoteURL, Token: token})
}

func tokenFor(kind, explicit string) string {
	if explicit != "" {
		return explicit
	}
	var token string
	switch kind {
	case KindGitHub:
		token = os.Getenv("GITHUB_TOKEN")
	case KindGitLab:
		token = os.Getenv("GITLAB_TOKEN")
	}
	if token == "" {
		token = os.Getenv("GIT_TOKEN")
	}
	return token
}
