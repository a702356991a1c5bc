package git

import "errors"

// Git operation errors.
var (
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrBranchNotFound indicates the branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrCommandFailed indicates a git command exited non-zero.
	ErrCommandFailed = errors.New("git command failed")

	// ErrEmptyCommand indicates ExecGitCommand was given nothing to run.
	ErrEmptyCommand = errors.New("empty git command")

	// ErrNoMergeBase indicates two refs share no history.
	ErrNoMergeBase = errors.New("no merge base")
)

// Error wraps a git command error with context.
type Error struct {
	Op     string // Operation that failed (e.g., "merge-base", "shortlog")
	Cmd    string // Command that was run
	Output string // stderr, if any
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
