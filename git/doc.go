// Package git reads repository state by running the git binary.
//
// Core types:
//   - Context: repository handle exposing branch, status and history reads
//   - CommandRunner: interface for executing commands (with mocks for testing)
//
// Example usage:
//
//	gc, err := git.NewContext(".")
//	if err != nil {
//	    return err
//	}
//	branch := gc.CurrentBranch()
//	name := gc.GenerateBranchName("Add login form", "feature/")
//
// History reads (CommitsSince, RemoteBranches, FileContributors, MergeBase,
// DiffNames) take a context so callers can bound slow repositories.
package git
