package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	enricherrors "github.com/randalmurphal/enrich/errors"
	"github.com/randalmurphal/enrich/git"
	"github.com/randalmurphal/enrich/response"
)

type runOptions struct {
	message   string
	status    string
	files     []string
	data      string
	operation string
	asJSON    bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enrich a response and print it",
		Long: `Build a response from the flags, run every enabled enhancer against
the current repository and print the result.

Outside a git repository only the metadata enhancer contributes.

Examples:
  enrich run --message "Deployed api" --file api/server.go
  enrich run --status warning --data '{"retries": 3}' --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "response message")
	cmd.Flags().StringVarP(&opts.status, "status", "s", string(response.StatusSuccess), "response status (success, warning, info, error)")
	cmd.Flags().StringSliceVarP(&opts.files, "file", "f", nil, "file touched by the operation (repeatable)")
	cmd.Flags().StringVar(&opts.data, "data", "", "response data as a JSON object")
	cmd.Flags().StringVar(&opts.operation, "operation", "", "operation name recorded in metadata")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts runOptions) error {
	status, ok := response.ParseStatus(opts.status)
	if !ok {
		return enricherrors.NewInvalidInputError("--status "+opts.status, nil)
	}
	var data map[string]any
	if opts.data != "" {
		if err := json.Unmarshal([]byte(opts.data), &data); err != nil {
			return enricherrors.NewInvalidInputError("--data", err)
		}
	}

	r := response.New(status, opts.message, data)
	if len(opts.files) > 0 {
		r.AddMetadata("files", opts.files)
	}

	env, err := a.openEnvironment()
	switch {
	case errors.Is(err, git.ErrNotGitRepo):
		a.logger.Debug("not in a git repository, team activity limited", "dir", a.dir)
		env = nil
	case err != nil:
		return err
	}

	n, flush := a.notifier()
	defer flush()

	p, err := a.newPipeline(env, n, nil, false)
	if err != nil {
		return err
	}
	ec, err := a.execContext(env, opts.operation)
	if err != nil {
		return err
	}

	out := p.Run(cmd.Context(), r, ec)
	if opts.asJSON {
		return writeJSON(a.stdout, out)
	}
	printResponse(a.stdout, out)
	return nil
}

func newActivityCmd(a *app) *cobra.Command {
	var (
		branch string
		files  []string
	)
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Print team activity for the current repository",
		Long: `Collect the team-activity snapshot for the current branch (or
--branch) and print it as JSON. Named files add contributor, reviewer and
conflict information.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.openEnvironment()
			if err != nil {
				return err
			}
			n, flush := a.notifier()
			defer flush()

			p, err := a.newPipeline(env, n, nil, true)
			if err != nil {
				return err
			}
			ec, err := a.execContext(env, "activity")
			if err != nil {
				return err
			}
			if branch != "" {
				ec.Git.Branch = branch
			}

			r := response.Info("team activity", nil)
			if len(files) > 0 {
				r.AddMetadata("files", files)
			}
			out := p.Run(cmd.Context(), r, ec)
			return writeJSON(a.stdout, out.TeamActivity())
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to report on (default: current)")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "file to check for contributors and conflicts (repeatable)")
	return cmd
}

func newBranchNameCmd(a *app) *cobra.Command {
	var prefix string
	cmd := &cobra.Command{
		Use:   "branch-name MESSAGE",
		Short: "Generate a dated branch name from a description",
		Example: `  enrich branch-name "Fix login redirect"
  enrich branch-name --prefix fix/ "Handle empty tokens"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.stdout, git.BranchName(args[0], prefix, time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&prefix, "prefix", "p", git.DefaultBranchPrefix, "branch name prefix")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResponse renders r for a terminal.
func printResponse(w io.Writer, r *response.Response) {
	fmt.Fprintf(w, "Status:  %s\n", r.Status)
	if r.Message != "" {
		fmt.Fprintf(w, "Message: %s\n", r.Message)
	}

	if len(r.Risks) > 0 {
		fmt.Fprintln(w, "\nRisks:")
		for _, risk := range r.Risks {
			fmt.Fprintf(w, "  [%s] %s\n", risk.Level, risk.Description)
		}
	}
	if len(r.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, s := range r.Suggestions {
			if s.Priority != "" {
				fmt.Fprintf(w, "  [%s] %s\n", s.Priority, s.Description)
			} else {
				fmt.Fprintf(w, "  %s\n", s.Description)
			}
		}
	}

	if ta := r.TeamActivity(); ta != nil {
		printActivity(w, ta)
	}

	if len(r.Metadata) > 0 {
		fmt.Fprintln(w, "\nMetadata:")
		keys := make([]string, 0, len(r.Metadata))
		for k := range r.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %s\n", k, compact(r.Metadata[k]))
		}
	}
}

func printActivity(w io.Writer, ta *response.TeamActivity) {
	fmt.Fprintln(w, "\nTeam activity:")
	if ta.Limited {
		fmt.Fprintln(w, "  (limited: no repository history available)")
	}
	if s := ta.Summary; s != nil {
		fmt.Fprintf(w, "  %d commits by %d contributors", s.TotalCommits, s.UniqueContributors)
		if s.MostActiveContributor != "" {
			fmt.Fprintf(w, ", most active: %s", s.MostActiveContributor)
		}
		fmt.Fprintln(w)
	}
	if len(ta.RelatedBranches) > 0 {
		fmt.Fprintf(w, "  Related branches: %s\n", strings.Join(ta.RelatedBranches, ", "))
	}
	for _, p := range ta.ActivePRs {
		fmt.Fprintf(w, "  PR #%d %s (%s)\n", p.Number, p.Title, p.Author)
	}
	if len(ta.PotentialReviewers) > 0 {
		fmt.Fprintf(w, "  Reviewers: %s\n", strings.Join(ta.PotentialReviewers, ", "))
	}
	for _, c := range ta.PotentialConflicts {
		fmt.Fprintf(w, "  Conflict: %s touches %s\n", c.Branch, strings.Join(c.ConflictingFiles, ", "))
	}
	for _, insight := range ta.Insights {
		fmt.Fprintf(w, "  * %s\n", insight)
	}
}

func compact(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
