package native

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/randalmurphal/enrich/git"
	"github.com/randalmurphal/enrich/team"
	"github.com/randalmurphal/enrich/testutil"
)

// setupHistory builds main with three commits to auth.go by two authors
// and feature/oauth branching from it, both pushed to origin.
func setupHistory(t *testing.T) string {
	t.Helper()

	dir := testutil.SetupTestRepo(t)
	testutil.CommitFileAs(t, dir, "Alice", "auth.go", "package auth\n", "Add auth")
	testutil.CommitFileAs(t, dir, "Bob", "auth.go", "package auth\n\nfunc Login() {}\n", "Add login")
	testutil.CommitFileAs(t, dir, "Alice", "auth.go", "package auth\n\nfunc Login() error { return nil }\n", "Return errors from login")

	testutil.CreateBranch(t, dir, "feature/oauth")
	testutil.CommitFileAs(t, dir, "Bob", "oauth.go", "package auth\n", "WIP oauth flow")
	testutil.CommitFileAs(t, dir, "Bob", "auth.go", "package auth\n\n// Login is replaced by OAuth.\n", "Deprecate login")
	testutil.SwitchBranch(t, dir, "main")

	testutil.SetupOrigin(t, dir)
	return dir
}

func TestOpen_NotRepo(t *testing.T) {
	_, err := Open(t.TempDir())
	if !errors.Is(err, git.ErrNotGitRepo) {
		t.Errorf("Open() error = %v, want ErrNotGitRepo", err)
	}
}

func TestRepository(t *testing.T) {
	dir := setupHistory(t)
	ctx := testutil.TestContext(t)

	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if got := repo.CurrentBranch(); got != "main" {
		t.Errorf("CurrentBranch() = %q, want main", got)
	}

	commits, err := repo.CommitsSince(ctx, time.Now().Add(-time.Hour), 0)
	if err != nil {
		t.Fatalf("CommitsSince() error = %v", err)
	}
	var messages []string
	for _, c := range commits {
		messages = append(messages, c.Message)
	}
	wantMessages := []string{"Return errors from login", "Add login", "Add auth", "Initial commit"}
	if diff := cmp.Diff(wantMessages, messages); diff != "" {
		t.Errorf("CommitsSince() messages (-want +got):\n%s", diff)
	}
	if commits[0].Author != "Alice" || commits[0].Email != "alice@example.com" {
		t.Errorf("newest commit author = %s <%s>", commits[0].Author, commits[0].Email)
	}

	limited, err := repo.CommitsSince(ctx, time.Now().Add(-time.Hour), 2)
	if err != nil {
		t.Fatalf("CommitsSince(limit) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("CommitsSince(limit 2) returned %d commits", len(limited))
	}

	contribs, err := repo.FileContributors(ctx, "auth.go")
	if err != nil {
		t.Fatalf("FileContributors() error = %v", err)
	}
	wantContribs := []team.Contribution{{Author: "Alice", Count: 2}, {Author: "Bob", Count: 1}}
	if diff := cmp.Diff(wantContribs, contribs); diff != "" {
		t.Errorf("FileContributors() (-want +got):\n%s", diff)
	}

	remotes, err := repo.RemoteBranches(ctx)
	if err != nil {
		t.Fatalf("RemoteBranches() error = %v", err)
	}
	if diff := cmp.Diff([]string{"origin/feature/oauth", "origin/main"}, remotes); diff != "" {
		t.Errorf("RemoteBranches() (-want +got):\n%s", diff)
	}

	base, err := repo.MergeBase(ctx, "main", "origin/feature/oauth")
	if err != nil {
		t.Fatalf("MergeBase() error = %v", err)
	}
	if want := testutil.RevParse(t, dir, "main"); base != want {
		t.Errorf("MergeBase() = %s, want %s", base, want)
	}

	changed, err := repo.DiffNames(ctx, base, "origin/feature/oauth")
	if err != nil {
		t.Fatalf("DiffNames() error = %v", err)
	}
	if diff := cmp.Diff([]string{"auth.go", "oauth.go"}, changed); diff != "" {
		t.Errorf("DiffNames() (-want +got):\n%s", diff)
	}
}

func TestRepository_UnknownRevision(t *testing.T) {
	dir := testutil.SetupTestRepo(t)
	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	_, err = repo.MergeBase(context.Background(), "main", "no-such-branch")
	var gitErr *git.Error
	if !errors.As(err, &gitErr) || gitErr.Op != "merge-base" {
		t.Errorf("MergeBase() error = %v, want *git.Error with op merge-base", err)
	}
}

// Both backends must report the same history for the same repository.
func TestMatchesExecBackend(t *testing.T) {
	dir := setupHistory(t)
	ctx := testutil.TestContext(t)

	nat, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	exe, err := git.NewContext(dir)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}

	since := time.Now().Add(-time.Hour)
	natCommits, err := nat.CommitsSince(ctx, since, 10)
	if err != nil {
		t.Fatal(err)
	}
	exeCommits, err := exe.CommitsSince(ctx, since, 10)
	if err != nil {
		t.Fatal(err)
	}
	var natHashes, exeHashes []string
	for _, c := range natCommits {
		natHashes = append(natHashes, c.Hash)
	}
	for _, c := range exeCommits {
		exeHashes = append(exeHashes, c.Hash)
	}
	if diff := cmp.Diff(exeHashes, natHashes); diff != "" {
		t.Errorf("commit hashes differ (-exec +native):\n%s", diff)
	}

	natRemotes, _ := nat.RemoteBranches(ctx)
	exeRemotes, _ := exe.RemoteBranches(ctx)
	if diff := cmp.Diff(exeRemotes, natRemotes); diff != "" {
		t.Errorf("remote branches differ (-exec +native):\n%s", diff)
	}

	natContribs, _ := nat.FileContributors(ctx, "auth.go")
	exeContribs, _ := exe.FileContributors(ctx, "auth.go")
	if diff := cmp.Diff(exeContribs, natContribs); diff != "" {
		t.Errorf("file contributors differ (-exec +native):\n%s", diff)
	}

	natBase, _ := nat.MergeBase(ctx, "main", "origin/feature/oauth")
	exeBase, _ := exe.MergeBase(ctx, "main", "origin/feature/oauth")
	if natBase != exeBase {
		t.Errorf("merge base native = %s, exec = %s", natBase, exeBase)
	}
}
