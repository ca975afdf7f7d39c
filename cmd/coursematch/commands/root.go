// Package commands defines all Cobra CLI commands for the coursematch binary.
package commands

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/coursematch/internal/audit"
	"github.com/54b3r/coursematch/internal/config"
	"github.com/54b3r/coursematch/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// startedAt is set once a command passes config loading; Execute uses it to
// emit the closing audit record.
var startedAt time.Time

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coursematch",
		Short: "Course recommendations from university syllabi",
		Long: `coursematch answers student questions with course recommendations drawn
from a catalog of university syllabi.

Typical workflow:
  coursematch import --glob 'syllabi/**/*.json'   load scraped syllabi
  coursematch index                                build the vector index
  coursematch ask "AI 관련 강의 추천해줘"            one-off question
  coursematch serve                                HTTP API

Model and embedding providers are selected via MODEL_PROVIDER and
EMBEDDING_PROVIDER or a YAML config file (~/.coursematch/config.yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Env vars always override YAML values, so the logger is built
			// after loading.
			path, err := config.Load(configPath, logging.New())
			if err != nil {
				return err
			}
			loadedConfigPath = path

			log := logging.New()
			slog.SetDefault(log)
			cmd.SetContext(logging.WithLogger(cmd.Context(), log))

			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)
			startedAt = time.Now()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.coursematch/config.yaml)")

	root.AddCommand(
		NewImportCmd(),
		NewIndexCmd(),
		NewAskCmd(),
		NewServeCmd(),
		NewCoursesCmd(),
		NewVersionCmd(),
	)

	return root
}

// Execute runs the root command and closes the audit trail with the outcome.
func Execute() error {
	cmd, err := NewRootCmd().ExecuteC()
	if !startedAt.IsZero() {
		audit.LogCommandEnd(slog.Default(), cmd.Name(), startedAt, err)
	}
	return err
}
