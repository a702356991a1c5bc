package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Context reads state from a git repository.
type Context struct {
	repoPath string        // Path to the repository
	workDir  string        // Working directory for commands (defaults to repoPath)
	runner   CommandRunner // Command runner (defaults to ExecRunner)
	now      func() time.Time
}

// Option configures Context.
type Option func(*Context)

// NewContext creates a git context for the repository at repoPath.
// It returns ErrNotGitRepo when the path is not inside a repository.
func NewContext(repoPath string, opts ...Option) (*Context, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	g := &Context{
		repoPath: absPath,
		workDir:  absPath,
		runner:   NewExecRunner(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(g)
	}

	if !g.IsGitRepository() {
		return nil, ErrNotGitRepo
	}
	return g, nil
}

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(g *Context) {
		g.runner = runner
	}
}

// WithClock sets the time source used for dated branch names and
// activity windows.
func WithClock(now func() time.Time) Option {
	return func(g *Context) {
		g.now = now
	}
}

// RepoPath returns the path to the repository.
func (g *Context) RepoPath() string {
	return g.repoPath
}

// WorkDir returns the working directory for git commands.
func (g *Context) WorkDir() string {
	return g.workDir
}

// IsGitRepository reports whether the working directory is inside a
// git repository.
func (g *Context) IsGitRepository() bool {
	_, err := g.runGit("rev-parse", "--git-dir")
	return err == nil
}

// CurrentBranch returns the checked-out branch, or "" when it cannot be
// determined (detached HEAD, unborn repository without git 2.22, errors).
func (g *Context) CurrentBranch() string {
	if branch, err := g.runGit("branch", "--show-current"); err == nil && branch != "" {
		return branch
	}
	if branch, err := g.runGit("rev-parse", "--abbrev-ref", "HEAD"); err == nil && branch != "" && branch != "HEAD" {
		return branch
	}
	if status, err := g.runGit("status"); err == nil {
		for _, line := range strings.Split(status, "\n") {
			if name, ok := strings.CutPrefix(strings.TrimSpace(line), "On branch "); ok {
				return strings.TrimSpace(name)
			}
		}
	}
	return ""
}

// MainBranch returns the repository's default branch, falling back to
// "main".
func (g *Context) MainBranch() string {
	if ref, err := g.runGit("symbolic-ref", "refs/remotes/origin/HEAD"); err == nil && ref != "" {
		return strings.TrimPrefix(ref, "refs/remotes/origin/")
	}
	for _, candidate := range []string{"main", "master"} {
		if g.BranchExists(candidate) {
			return candidate
		}
	}
	return "main"
}

// HasUncommittedChanges reports whether the working tree is dirty.
// Errors count as clean.
func (g *Context) HasUncommittedChanges() bool {
	status, err := g.runGit("status", "--porcelain")
	return err == nil && status != ""
}

// CommitRef is a one-line commit summary.
type CommitRef struct {
	Hash    string
	Message string
}

// RecentCommits returns up to count commits from HEAD (10 when count <= 0).
// Errors yield an empty list.
func (g *Context) RecentCommits(count int) []CommitRef {
	if count <= 0 {
		count = 10
	}
	out, err := g.runGit("log", "--oneline", fmt.Sprintf("-%d", count))
	if err != nil {
		return []CommitRef{}
	}

	commits := []CommitRef{}
	for _, line := range nonEmptyLines(out) {
		hash, message, _ := strings.Cut(line, " ")
		commits = append(commits, CommitRef{Hash: hash, Message: message})
	}
	return commits
}

// FileChange is one entry of the working tree status.
type FileChange struct {
	Status string
	File   string
}

// ChangedFiles returns uncommitted changes. Renames report the new path.
// Errors yield an empty list.
func (g *Context) ChangedFiles() []FileChange {
	out, err := g.runGitRaw(context.Background(), "status", "--porcelain")
	if err != nil {
		return []FileChange{}
	}

	changes := []FileChange{}
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		file := strings.TrimSpace(line[3:])
		if _, to, ok := strings.Cut(file, " -> "); ok {
			file = to
		}
		changes = append(changes, FileChange{
			Status: strings.TrimSpace(line[:2]),
			File:   file,
		})
	}
	return changes
}

// BranchExists reports whether name resolves to a ref.
func (g *Context) BranchExists(name string) bool {
	_, err := g.runGit("rev-parse", "--verify", name)
	return err == nil
}

// HasRemoteBranch reports whether origin has a branch called name.
func (g *Context) HasRemoteBranch(name string) bool {
	out, err := g.runGit("branch", "-r", "--list", "origin/"+name)
	return err == nil && out != ""
}

// ExecGitCommand runs a git command line such as "git log -1" and returns
// its raw stdout. The line is split on whitespace; no shell is involved.
func (g *Context) ExecGitCommand(cmdline string) (string, error) {
	fields := strings.Fields(cmdline)
	if len(fields) > 0 && fields[0] == "git" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return "", &Error{Op: "exec", Cmd: cmdline, Err: ErrEmptyCommand}
	}

	out, err := g.runGitRaw(context.Background(), fields...)
	if err != nil {
		e := &Error{Op: "exec", Cmd: "git " + strings.Join(fields, " "), Err: err}
		var cmdErr *Error
		if errors.As(err, &cmdErr) {
			e.Output = cmdErr.Output
		}
		return "", e
	}
	return out, nil
}

// GenerateBranchName builds a dated branch name from a description using
// the context clock. See BranchName.
func (g *Context) GenerateBranchName(message, prefix string) string {
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	return BranchName(message, prefix, now())
}

// runGit executes a git command and returns trimmed stdout.
func (g *Context) runGit(args ...string) (string, error) {
	return g.runGitContext(context.Background(), args...)
}

func (g *Context) runGitContext(ctx context.Context, args ...string) (string, error) {
	out, err := g.runGitRaw(ctx, args...)
	return strings.TrimSpace(out), err
}

func (g *Context) runGitRaw(ctx context.Context, args ...string) (string, error) {
	return g.runner.Run(ctx, g.workDir, "git", args...)
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
