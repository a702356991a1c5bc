package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/enrich/config"
	"github.com/randalmurphal/enrich/git"
)

// app holds state shared by every subcommand of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	dir      string
	verbose  bool
	logLevel string

	// newResolver builds the config resolver; tests replace it to avoid
	// reading the user's files.
	newResolver func(config.ResolverConfig) *config.Resolver

	resolver *config.Resolver
	resolved *config.Resolved
	settings *config.Settings
	logger   *slog.Logger
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:      stdout,
		stderr:      stderr,
		dir:         ".",
		newResolver: config.NewResolver,
		logger:      slog.New(slog.NewTextHandler(stderr, nil)),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich tool responses with metadata and team activity",
		Long: `enrich runs a pipeline of enhancers over a tool response. The
built-in enhancers add execution metadata and a snapshot of team activity
in the surrounding git repository: recent commits, related branches, open
pull requests, likely reviewers and potential conflicts.

Configuration is read from ~/.config/enrich/config.yaml, .enrich.yaml in
the repository root and ENRICH_* environment variables, in increasing
order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVarP(&a.dir, "dir", "C", ".", "repository directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newRunCmd(a),
		newActivityCmd(a),
		newBranchNameCmd(a),
		newServeCmd(a),
		newTokenCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// resolve merges configuration sources without interpreting them.
func (a *app) resolve() {
	cfg := config.DefaultResolverConfig()
	cfg.ErrWriter = a.stderr
	cfg.GitRootFinder = a.gitRoot

	a.resolver = a.newResolver(cfg)
	a.resolved = a.resolver.ResolveWithFlags(map[string]string{
		config.KeyLogLevel: a.logLevel,
	})
}

// load resolves and parses configuration and sets up logging.
func (a *app) load() error {
	a.resolve()
	settings, err := config.Parse(a.resolved)
	if err != nil {
		return err
	}
	a.settings = settings

	level := settings.LogLevel
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) gitRoot(string) (string, error) {
	g, err := git.NewContext(a.dir)
	if err != nil {
		return "", err
	}
	out, err := g.ExecGitCommand("rev-parse --show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
