package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jingkaihe/skillgate/pkg/config"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// shutdownTracing flushes spans; replaced once tracing is initialized.
var shutdownTracing = func(context.Context) error { return nil }

func init() {
	config.Setup(viper.GetViper())
}

var rootCmd = &cobra.Command{
	Use:   "skillgate",
	Short: "Skill activation hook for AI coding assistants",
	Long: `skillgate decides which skills to load into an assistant's context when the
user submits a prompt. It classifies the prompt against the project's skill
catalog, injects the selected SKILL.md files and remembers what was injected
for the rest of the conversation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		applyLogSettings(cmd.Context(), viper.GetString("log_level"), viper.GetString("log_format"))

		shutdown, err := initTracing(cmd.Context())
		if err != nil {
			logger.G(cmd.Context()).WithError(err).Warn("failed to initialize tracing")
			return nil
		}
		shutdownTracing = shutdown
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

// applyLogSettings falls back to the default level when level is invalid so
// a typo in the environment never fails a command.
func applyLogSettings(ctx context.Context, level, format string) {
	logger.SetLogFormat(format)
	if err := logger.SetLogLevel(level); err != nil {
		logger.SetLogLevel(defaultLogLevel)
		logger.G(ctx).WithError(err).WithField("level", level).Warn("invalid log level, using default")
	}
}

const defaultLogLevel = "warn"

func main() {
	rootCmd.PersistentFlags().String("log-level", defaultLogLevel, "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt or json)")
	rootCmd.PersistentFlags().String("log-file", "", "Append logs to this file instead of stderr")
	rootCmd.PersistentFlags().String("project-dir", "", "Project directory when the hook input has no cwd")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("project_dir", rootCmd.PersistentFlags().Lookup("project-dir"))

	rootCmd.AddCommand(withTracing(activateCmd))
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(withTracing(ghLabelsCmd))
	rootCmd.AddCommand(versionCmd)

	ctx := context.Background()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if shutdownErr := shutdownTracing(ctx); shutdownErr != nil {
		logger.G(ctx).WithError(shutdownErr).Debug("failed to flush traces")
	}
	if err != nil && cmd == activateCmd {
		logger.G(ctx).WithError(err).Warn("activate failed before running")
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
