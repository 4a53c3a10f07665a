package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"commitscore/internal/analyzer"
	"commitscore/internal/config"
	"commitscore/internal/git"
	"commitscore/internal/scoring"
	"commitscore/internal/security"
	"commitscore/internal/ui"
	"commitscore/pkg/errors"
)

// newCredentials returns the keyring fallback used for the API key
var newCredentials = func() config.Credentials {
	return security.NewCredentialStore()
}

type rootOptions struct {
	configFile string
	verbose    bool
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "commitscore <repo-path>",
		Short: "Score every commit of a git repository per committer",
		Long: `commitscore walks every commit reachable from HEAD, sends a diffstat of each
commit together with its message to a scoring service and prints the average
performance and maintainability score of every committer.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	flags := rootCmd.Flags()
	flags.String("api-key", "", "scoring service API key (overrides "+config.EnvDeepSeekAPIKey+")")
	flags.String("endpoint", scoring.DefaultEndpoint, "scoring service URL")
	flags.String("timeout", "", "per-request timeout such as 30s (default none)")
	flags.StringP("output", "o", config.OutputText, "output format: text or table")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "print a progress line per scored commit")

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ~/.commitscore/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")

	rootCmd.AddCommand(newAuthCommand(opts))
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		ui.ShowError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves configuration for cmd from flags, environment, the
// config file and the keyring
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	loader := config.NewLoader(newCredentials())
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := loader.ReadFile(opts.configFile); err != nil {
		return nil, err
	}
	return loader.Load()
}

func runAnalyze(cmd *cobra.Command, repoPath string, opts *rootOptions) error {
	// Credentials are checked before the repository is touched
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	log := setupLogging(cfg.LogLevel, opts.verbose && !cmd.Flags().Changed("log-level"))

	path, err := resolveRepoPath(repoPath)
	if err != nil {
		return err
	}

	client, err := scoring.New(cfg.Scoring("commitscore/" + Version))
	if err != nil {
		return err
	}

	repo, err := git.Open(path)
	if err != nil {
		return err
	}

	log.Info("starting analysis", "repository", repo.Path(), "endpoint", client.Endpoint(),
		"key_source", string(cfg.KeySource))

	options := []analyzer.Option{
		analyzer.WithLogger(log.With("repository", repo.Path())),
	}
	var progress *ui.Progress
	if opts.verbose {
		progress = ui.NewProgress(cmd.ErrOrStderr())
		options = append(options, analyzer.WithObserver(progress.Observe))
	}

	report, err := analyzer.New(repo, client, options...).Run(cmd.Context())
	if err != nil {
		return err
	}

	if progress != nil {
		progress.Finish()
	}

	out := cmd.OutOrStdout()
	if cfg.Output == config.OutputTable {
		ui.RenderTable(out, report)
		return nil
	}
	return ui.RenderText(out, report)
}

func resolveRepoPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.ConfigurationError("invalid repository path", "repo_path").
			WithContext("path", path)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", errors.ConfigurationError("repository path does not exist or is not a directory", "repo_path").
			WithContext("path", abs)
	}
	return abs, nil
}
