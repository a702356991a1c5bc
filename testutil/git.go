package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Default identity used for commits made by these helpers.
const (
	DefaultAuthor = "Test User"
	DefaultEmail  = "test@test.com"
)

// RequireGit skips the test when no git binary is available.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// SetupTestRepo creates a temporary git repository on branch main with
// one commit adding README.md. It is removed when the test ends.
func SetupTestRepo(t *testing.T) string {
	t.Helper()
	RequireGit(t)

	dir := t.TempDir()
	mustGit(t, dir, nil, "init")
	mustGit(t, dir, nil, "symbolic-ref", "HEAD", "refs/heads/main")
	mustGit(t, dir, nil, "config", "user.email", DefaultEmail)
	mustGit(t, dir, nil, "config", "user.name", DefaultAuthor)
	mustGit(t, dir, nil, "config", "commit.gpgsign", "false")

	CommitFile(t, dir, "README.md", "# Test Repository\n", "Initial commit")
	return dir
}

// SetupTestRepoWithFiles creates a test repo and commits files in one
// commit.
func SetupTestRepoWithFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := SetupTestRepo(t)
	for path, content := range files {
		writeFile(t, dir, path, content)
	}
	mustGit(t, dir, nil, "add", ".")
	mustGit(t, dir, nil, "commit", "-m", "Add test files")
	return dir
}

// CreateBranch creates and checks out branch.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	mustGit(t, repoDir, nil, "checkout", "-b", branch)
}

// SwitchBranch checks out an existing branch.
func SwitchBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	mustGit(t, repoDir, nil, "checkout", branch)
}

// CommitFile writes path and commits it as DefaultAuthor.
func CommitFile(t *testing.T, repoDir, path, content, message string) {
	t.Helper()
	CommitFileAs(t, repoDir, DefaultAuthor, path, content, message)
}

// CommitFileAs writes path and commits it with author as both author and
// committer. The email is derived from the name.
func CommitFileAs(t *testing.T, repoDir, author, path, content, message string) {
	t.Helper()

	writeFile(t, repoDir, path, content)
	email := strings.ToLower(strings.ReplaceAll(author, " ", ".")) + "@example.com"
	env := []string{
		"GIT_AUTHOR_NAME=" + author,
		"GIT_AUTHOR_EMAIL=" + email,
		"GIT_COMMITTER_NAME=" + author,
		"GIT_COMMITTER_EMAIL=" + email,
	}
	mustGit(t, repoDir, nil, "add", path)
	mustGit(t, repoDir, env, "commit", "-m", message)
}

// SetupOrigin creates a bare repository, adds it as origin and pushes every
// local branch, so remote-tracking branches exist. It returns the bare
// repository path.
func SetupOrigin(t *testing.T, repoDir string) string {
	t.Helper()

	bare := filepath.Join(t.TempDir(), "origin.git")
	mustGit(t, repoDir, nil, "init", "--bare", bare)
	mustGit(t, repoDir, nil, "remote", "add", "origin", bare)
	mustGit(t, repoDir, nil, "push", "--all", "origin")
	return bare
}

// Push pushes branch to origin.
func Push(t *testing.T, repoDir, branch string) {
	t.Helper()
	mustGit(t, repoDir, nil, "push", "origin", branch)
}

// GetCurrentBranch returns the current branch name.
func GetCurrentBranch(t *testing.T, repoDir string) string {
	t.Helper()
	return gitOutput(t, repoDir, "branch", "--show-current")
}

// GetHeadSHA returns the full SHA of HEAD.
func GetHeadSHA(t *testing.T, repoDir string) string {
	t.Helper()
	return gitOutput(t, repoDir, "rev-parse", "HEAD")
}

// RevParse resolves rev to a full SHA.
func RevParse(t *testing.T, repoDir, rev string) string {
	t.Helper()
	return gitOutput(t, repoDir, "rev-parse", rev)
}

func writeFile(t *testing.T, dir, path, content string) {
	t.Helper()

	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %s failed: %v", strings.Join(args, " "), err)
	}
	return strings.TrimSpace(string(out))
}

// mustGit runs git in dir with extra environment entries, failing the test
// on error. Later entries in env override the defaults.
func mustGit(t *testing.T, dir string, env []string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME="+DefaultAuthor,
		"GIT_AUTHOR_EMAIL="+DefaultEmail,
		"GIT_COMMITTER_NAME="+DefaultAuthor,
		"GIT_COMMITTER_EMAIL="+DefaultEmail,
	)
	cmd.Env = append(cmd.Env, env...)

	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
}
