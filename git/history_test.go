package git

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCommitsSince(t *testing.T) {
	out := "abc123\x1fJohn Doe\x1fjohn@example.com\x1f2026-10-14T10:00:00+02:00\x1fFix bug\x1e\n" +
		"def456\x1fJane Smith\x1fjane@example.com\x1f2026-10-13T09:30:00Z\x1fAdd feature\x1e\n"
	runner := NewSequentialMockRunner()
	runner.AddOutput(out, nil)

	since := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	commits, err := mockContext(runner).CommitsSince(context.Background(), since, 50)
	if err != nil {
		t.Fatalf("CommitsSince: %v", err)
	}
	if len(commits) != 2 {
		t.Fatalf("len = %d, want 2", len(commits))
	}
	c := commits[0]
	if c.Hash != "abc123" || c.Author != "John Doe" || c.Email != "john@example.com" || c.Message != "Fix bug" {
		t.Errorf("commit[0] = %+v", c)
	}
	if !c.Date.Equal(time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", c.Date)
	}

	args := strings.Join(runner.Calls[0].Args, " ")
	if !strings.Contains(args, "--since=2026-09-15T00:00:00Z") || !strings.Contains(args, "--max-count=50") {
		t.Errorf("args = %q", args)
	}
}

func TestCommitsSince_Malformed(t *testing.T) {
	runner := NewSequentialMockRunner()
	runner.AddOutput("not a log record\x1e", nil)

	if _, err := mockContext(runner).CommitsSince(context.Background(), time.Now(), 0); err == nil {
		t.Error("expected a parse error")
	}
}

func TestRemoteBranches(t *testing.T) {
	runner := NewMockRunner().On("git branch -r",
		"  origin/HEAD -> origin/main\n  origin/feature/auth\n  origin/feature/auth-ui\n", nil)

	got, err := mockContext(runner).RemoteBranches(context.Background())
	if err != nil {
		t.Fatalf("RemoteBranches: %v", err)
	}
	if strings.Join(got, ",") != "origin/feature/auth,origin/feature/auth-ui" {
		t.Errorf("RemoteBranches = %v", got)
	}
}

func TestFileContributors(t *testing.T) {
	runner := NewMockRunner().On("git shortlog -sn HEAD -- src/auth.js", "    10\tJohn Doe\n     5\tJane Smith\n", nil)

	got, err := mockContext(runner).FileContributors(context.Background(), "src/auth.js")
	if err != nil {
		t.Fatalf("FileContributors: %v", err)
	}
	if len(got) != 2 || got[0].Author != "John Doe" || got[0].Count != 10 {
		t.Errorf("FileContributors = %+v", got)
	}
}

func TestMergeBaseAndDiffNames(t *testing.T) {
	runner := NewMockRunner().
		On("git merge-base HEAD origin/feature/auth", "base123\n", nil).
		On("git diff --name-only base123 origin/feature/auth", "src/auth.js\nsrc/config.js\n", nil).
		On("git merge-base HEAD origin/orphan", "", nil)
	gc := mockContext(runner)
	ctx := context.Background()

	base, err := gc.MergeBase(ctx, "HEAD", "origin/feature/auth")
	if err != nil || base != "base123" {
		t.Fatalf("MergeBase = %q, %v", base, err)
	}

	files, err := gc.DiffNames(ctx, base, "origin/feature/auth")
	if err != nil {
		t.Fatalf("DiffNames: %v", err)
	}
	if strings.Join(files, ",") != "src/auth.js,src/config.js" {
		t.Errorf("DiffNames = %v", files)
	}

	if _, err := gc.MergeBase(ctx, "HEAD", "origin/orphan"); !errors.Is(err, ErrNoMergeBase) {
		t.Errorf("MergeBase error = %v, want ErrNoMergeBase", err)
	}
	if _, err := gc.DiffNames(ctx, "x", "y"); err == nil {
		t.Error("DiffNames should fail for unknown refs")
	}
}
