package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/enrich/auth"
	"github.com/randalmurphal/enrich/config"
	enricherrors "github.com/randalmurphal/enrich/errors"
	"github.com/randalmurphal/enrich/git"
	"github.com/randalmurphal/enrich/response"
	"github.com/randalmurphal/enrich/testutil"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// execute runs the CLI with a fresh HOME so no user config leaks in.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	return executeIn(t, home, args...)
}

func executeIn(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	a.newResolver = func(cfg config.ResolverConfig) *config.Resolver {
		global := filepath.Join(home, ".config", cfg.GlobalConfigDir, "config.yaml")
		return config.NewResolverWithPaths(cfg, global, "")
	}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCmd(newApp(&bytes.Buffer{}, &bytes.Buffer{}))

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "activity", "branch-name", "serve", "token", "config", "version"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "enrich dev (commit none, built unknown)\n", out)
}

func TestBranchName(t *testing.T) {
	out, _, err := execute(t, "branch-name", "--prefix", "fix/", "Fix login redirect")

	require.NoError(t, err)
	want := "fix/fix-login-redirect-" + time.Now().Format(time.DateOnly)
	assert.Equal(t, want, strings.TrimSpace(out))
}

func TestRun_OutsideRepository(t *testing.T) {
	out, _, err := execute(t, "run", "--dir", t.TempDir(),
		"--message", "Deployed api", "--status", "warning",
		"--file", "api/server.go", "--operation", "deploy",
		"--data", `{"retries": 3}`, "--json")
	require.NoError(t, err)

	var r response.Response
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	assert.Equal(t, response.StatusWarning, r.Status)
	assert.Equal(t, "Deployed api", r.Message)
	assert.Equal(t, float64(3), r.Data["retries"])
	assert.NotEmpty(t, r.Metadata["sessionId"])
	assert.Equal(t, "deploy", r.Metadata["operation"])
	assert.Equal(t, []any{"api/server.go"}, r.Metadata["files"])
	require.NotNil(t, r.TeamActivity())
	assert.True(t, r.TeamActivity().Limited)
}

func TestRun_TextOutput(t *testing.T) {
	out, _, err := execute(t, "run", "--dir", t.TempDir(), "--message", "done")

	require.NoError(t, err)
	assert.Contains(t, out, "Status:  success")
	assert.Contains(t, out, "Message: done")
	assert.Contains(t, out, "Metadata:")
	assert.Contains(t, out, "sessionId:")
}

func TestRun_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "status", args: []string{"--status", "fatal"}},
		{name: "data", args: []string{"--data", "{not json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"run", "--dir", t.TempDir()}, tt.args...)...)

			assert.ErrorIs(t, err, enricherrors.ErrInvalidInput)
		})
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv(config.EnvKey(config.EnvPrefix, config.KeyTeamWindowDays), "soon")

	_, _, err := execute(t, "run", "--dir", t.TempDir())

	require.ErrorIs(t, err, config.ErrInvalidValue)
	var cliErr *enricherrors.CLIError
	require.ErrorAs(t, enricherrors.Wrap(err), &cliErr)
	assert.Contains(t, cliErr.Details, "team.window_days")
}

func TestActivity_OutsideRepository(t *testing.T) {
	_, _, err := execute(t, "activity", "--dir", t.TempDir())

	require.ErrorIs(t, err, git.ErrNotGitRepo)
	assert.ErrorIs(t, enricherrors.Wrap(err), enricherrors.ErrNotInGitRepo)
}

func TestActivity(t *testing.T) {
	for _, backend := range []string{config.BackendExec, config.BackendNative} {
		t.Run(backend, func(t *testing.T) {
			dir := testutil.SetupTestRepo(t)
			testutil.CommitFileAs(t, dir, "Alice", "auth.go", "package auth\n", "Add auth")
			testutil.CommitFileAs(t, dir, "Bob", "auth.go", "package auth\n\nfunc Login() {}\n", "Add login")
			testutil.CommitFileAs(t, dir, "Alice", "auth.go", "package auth\n\nfunc Login() error { return nil }\n", "Fix login")
			testutil.CreateBranch(t, dir, "feature/auth-tokens")
			testutil.CommitFileAs(t, dir, "Bob", "auth.go", "package auth\n\n// tokens\n", "Token auth")
			testutil.SwitchBranch(t, dir, "main")
			testutil.SetupOrigin(t, dir)
			testutil.CreateBranch(t, dir, "feature/auth-refresh")

			t.Setenv(config.EnvKey(config.EnvPrefix, config.KeyGitBackend), backend)
			t.Setenv(config.EnvKey(config.EnvPrefix, config.KeyPRProvider), "none")

			out, _, err := execute(t, "activity", "--dir", dir, "--file", "auth.go")
			require.NoError(t, err)

			var ta response.TeamActivity
			require.NoError(t, json.Unmarshal([]byte(out), &ta), out)
			assert.False(t, ta.Limited)
			require.NotNil(t, ta.Summary)
			assert.Equal(t, 4, ta.Summary.TotalCommits)
			assert.Equal(t, "Alice", ta.Summary.MostActiveContributor)
			assert.Equal(t, map[string]int{"Alice": 2, "Bob": 1}, ta.FileContributors["auth.go"])
			assert.Contains(t, ta.RelatedBranches, "feature/auth-tokens")
			require.Len(t, ta.PotentialConflicts, 1)
			assert.Equal(t, "feature/auth-tokens", ta.PotentialConflicts[0].Branch)
			assert.Equal(t, []string{"auth.go"}, ta.PotentialConflicts[0].ConflictingFiles)
		})
	}
}

func TestConfig_SetGetList(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	out, _, err := executeIn(t, home, "config", "set", "--global", "team.window_days", "14")
	require.NoError(t, err)
	assert.Contains(t, out, "Set team.window_days in ")

	out, _, err = executeIn(t, home, "config", "get", "team.window_days")
	require.NoError(t, err)
	assert.Equal(t, "14 (global)\n", out)

	out, _, err = executeIn(t, home, "config", "list")
	require.NoError(t, err)
	assert.Regexp(t, `team\.window_days\s+14\s+global`, out)
	assert.Regexp(t, `team\.cache_ttl\s+5m\s+default`, out)

	_, _, err = executeIn(t, home, "config", "unset", "team.window_days")
	require.NoError(t, err)
	out, _, err = executeIn(t, home, "config", "get", "team.window_days")
	require.NoError(t, err)
	assert.Equal(t, "30 (default)\n", out)
}

func TestConfig_SetUnknownKey(t *testing.T) {
	_, _, err := execute(t, "config", "set", "--global", "team.colour", "blue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key: team.colour")
}

func TestConfig_SetLocalOutsideRepository(t *testing.T) {
	_, _, err := execute(t, "config", "set", "team.window_days", "7")

	assert.ErrorIs(t, err, enricherrors.ErrNotInGitRepo)
}

func TestConfig_WorksWithInvalidValues(t *testing.T) {
	t.Setenv(config.EnvKey(config.EnvPrefix, config.KeyTeamWindowDays), "soon")
	t.Setenv(config.EnvKey(config.EnvPrefix, config.KeyServerJWTSecret), testSecret)

	out, _, err := execute(t, "config", "list")

	require.NoError(t, err)
	assert.Regexp(t, `team\.window_days\s+soon\s+env`, out)
	assert.NotContains(t, out, testSecret)
	assert.Regexp(t, `server\.jwt_secret\s+\*+\s+env`, out)
}

func TestTokenIssue(t *testing.T) {
	t.Setenv(config.EnvKey(config.EnvPrefix, config.KeyServerJWTSecret), testSecret)

	out, _, err := execute(t, "token", "issue", "--subject", "ci", "--ttl", "10m", "--scope", "enrich")
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(auth.JWTConfig{Secret: testSecret})
	require.NoError(t, err)
	claims, err := tokens.Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ci", claims.Subject)
	assert.True(t, claims.HasScope("enrich"))
	assert.False(t, claims.HasScope("validate"))
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenIssue_Errors(t *testing.T) {
	_, _, err := execute(t, "token", "issue", "--subject", "ci")
	assert.ErrorIs(t, err, config.ErrInvalidValue)

	_, _, err = execute(t, "token", "issue")
	assert.ErrorIs(t, err, enricherrors.ErrInvalidInput)

	t.Setenv(config.EnvKey(config.EnvPrefix, config.KeyServerJWTSecret), "short")
	_, _, err = execute(t, "token", "issue", "--subject", "ci")
	assert.True(t, errors.Is(err, auth.ErrSecretTooShort))
}

func TestTokenAPIKey(t *testing.T) {
	out, _, err := execute(t, "token", "apikey")
	require.NoError(t, err)

	var key, hash string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		label, value, _ := strings.Cut(line, ":")
		switch label {
		case "Key":
			key = strings.TrimSpace(value)
		case "Hash":
			hash = strings.TrimSpace(value)
		}
	}
	assert.True(t, auth.ValidateAPIKeyFormat(key), "key %q", key)
	assert.True(t, strings.HasPrefix(hash, auth.HashedKeyPrefix))
	assert.NoError(t, auth.NewKeySet(hash).Verify(key))
}
