package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/agent-sessions/internal"
	"github.com/iksnae/agent-sessions/internal/config"
	"github.com/iksnae/agent-sessions/internal/source"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "agent-sessions",
	Short: "Index and explore AI coding assistant sessions",
	Long: `A CLI tool that ingests session transcripts from AI coding assistants
(Claude Code, Codex CLI, Cursor) and converts them into one canonical,
searchable local index.

Each assistant stores sessions in its own incompatible format; this tool
normalizes them into a single schema with stable identifiers, so the same
session re-ingested twice always produces the same records.

Quick Start:
  agent-sessions sync                 # Ingest sessions from all detected sources
  agent-sessions list                 # List indexed conversations
  agent-sessions show <id>            # View one conversation
  agent-sessions search "bug fix"     # Full-text search across messages
  agent-sessions export <id> -f md    # Export as Markdown`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/agent-sessions/config.toml)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig loads the tool configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newRegistry builds the adapter registry with configured roots.
func newRegistry(cfg *config.Config) *source.Registry {
	r := source.NewRegistry()
	r.Register(source.NewClaudeAdapter(cfg.ClaudeRoot))
	r.Register(source.NewCodexAdapter(cfg.CodexRoot))
	r.Register(source.NewCursorAdapter(cfg.CursorDB))
	return r
}
