package main

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/jingkaihe/skillgate/pkg/activation"
	"github.com/jingkaihe/skillgate/pkg/config"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/presenter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Run the prompt-submit skill activation hook",
	Long: `Read the hook payload from stdin, decide which skills the prompt needs and
write the skill contents plus an activation summary to stdout.

The command always exits 0 so a misconfigured hook never blocks the
conversation. Problems are logged to stderr (and --log-file when set).

Register it as a UserPromptSubmit hook:
  skillgate activate`,
	Args: cobra.NoArgs,
	// Newer assistant versions may pass flags this build does not know.
	FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
	RunE: func(cmd *cobra.Command, _ []string) error {
		runActivate(cmd.Context(), viper.GetViper(), cmd.InOrStdin(), cmd.OutOrStdout())
		return nil
	},
}

func runActivate(ctx context.Context, v *viper.Viper, stdin io.Reader, stdout io.Writer) {
	ctx = logger.WithFields(ctx, logrus.Fields{"run_id": uuid.NewString()})
	log := logger.G(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("activation panicked, skipping")
		}
	}()

	in, err := activation.ParseInput(stdin)
	if err != nil {
		log.WithError(err).Warn("invalid hook input")
		return
	}

	project := config.ProjectDir(in.Cwd, v.GetString("project_dir"))
	if err := config.LoadDotEnv(config.EnvFile(project)); err != nil {
		log.WithError(err).Warn("failed to load hook .env file")
	}

	cfg, err := config.Load(v)
	if err != nil {
		log.WithError(err).Warn("invalid configuration, skipping activation")
		return
	}
	if err := logger.SetLogLevel(cfg.LogLevel); err != nil {
		log.WithError(err).Warn("invalid log level")
	}
	if cfg.LogFile != "" {
		closeLog, err := logger.SetLogFile(cfg.LogFile)
		if err != nil {
			log.WithError(err).Warn("failed to open log file")
		} else {
			defer closeLog()
		}
	}

	paths := cfg.Resolve(in.Cwd)
	log.WithField("project", paths.ProjectDir).
		WithField("skills_base", paths.SkillsBase).
		WithField("rules", paths.RulesPath).
		Debug("resolved paths")

	engine, closeEngine, err := activation.Build(ctx, cfg, paths)
	if err != nil {
		log.WithError(err).Warn("failed to set up activation")
		return
	}
	defer func() {
		if err := closeEngine(); err != nil {
			log.WithError(err).Debug("failed to close response cache")
		}
	}()

	report := engine.Run(ctx, in)
	if err := presenter.WriteActivation(stdout, report); err != nil {
		log.WithError(err).Warn("failed to write activation output")
	}
}
