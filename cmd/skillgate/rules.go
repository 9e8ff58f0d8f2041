package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"
	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillgate/pkg/config"
	"github.com/jingkaihe/skillgate/pkg/presenter"
	"github.com/jingkaihe/skillgate/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RulesGenerateConfig holds the flags of `rules generate`.
type RulesGenerateConfig struct {
	Output    string
	SkillDirs []string
	Version   string
	Check     bool
}

// NewRulesGenerateConfig returns the defaults for `rules generate`.
func NewRulesGenerateConfig() *RulesGenerateConfig {
	return &RulesGenerateConfig{
		Version: "1.0",
	}
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the skill catalog",
	Long:  `Generate, validate and describe skill-rules.json.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var rulesGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Build skill-rules.json from SKILL.md frontmatter",
	Long: `Scan the skills directory for <name>/SKILL.md files and write a catalog built
from their frontmatter (description, triggers, dependsOn, affinityWith,
autoInject, injectionOrder).

With --check nothing is written; the command prints a diff against the
existing catalog and fails when it is out of date.

Examples:
  skillgate rules generate
  skillgate rules generate --skills-dir hub/library/skills --output .claude/hooks/skill-rules.json
  skillgate rules generate --check`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		return runRulesGenerate(cmd.Context(), cfg.Resolve(""), getRulesGenerateConfigFromFlags(cmd))
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check the skill catalog for problems",
	Long: `Report invalid names, duplicate skills, unknown dependencies, dependency cycles
and one-sided affinity declarations. Exits non-zero when errors are found;
warnings alone do not fail.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		path := cfg.Resolve("").RulesPath
		if len(args) == 1 {
			path = args[0]
		}
		return runRulesValidate(path)
	},
}

var rulesSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of skill-rules.json",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := skills.SchemaJSON()
		if err != nil {
			return errors.Wrap(err, "failed to render schema")
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	defaults := NewRulesGenerateConfig()
	rulesGenerateCmd.Flags().StringP("output", "o", defaults.Output, "Catalog file to write (default <project>/.claude/hooks/skill-rules.json)")
	rulesGenerateCmd.Flags().StringSlice("skills-dir", defaults.SkillDirs, "Directories containing <name>/SKILL.md (default: the configured skills base)")
	rulesGenerateCmd.Flags().String("catalog-version", defaults.Version, "Version string written to the catalog")
	rulesGenerateCmd.Flags().Bool("check", defaults.Check, "Print a diff and fail if the catalog is out of date instead of writing it")

	rulesCmd.AddCommand(rulesGenerateCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesSchemaCmd)
}

func getRulesGenerateConfigFromFlags(cmd *cobra.Command) *RulesGenerateConfig {
	generate := NewRulesGenerateConfig()
	if output, err := cmd.Flags().GetString("output"); err == nil {
		generate.Output = output
	}
	if dirs, err := cmd.Flags().GetStringSlice("skills-dir"); err == nil {
		generate.SkillDirs = dirs
	}
	if version, err := cmd.Flags().GetString("catalog-version"); err == nil {
		generate.Version = version
	}
	if check, err := cmd.Flags().GetBool("check"); err == nil {
		generate.Check = check
	}
	return generate
}

func runRulesGenerate(ctx context.Context, paths config.Paths, cfg *RulesGenerateConfig) error {
	output := cfg.Output
	if output == "" {
		output = paths.RulesPath
	}
	dirs := cfg.SkillDirs
	if len(dirs) == 0 {
		dirs = []string{paths.SkillsBase}
	}

	generated, count, err := generateRules(ctx, dirs, cfg.Version)
	if err != nil {
		return err
	}

	if cfg.Check {
		diff, err := rulesDiff(output, generated)
		if err != nil {
			return err
		}
		if diff == "" {
			presenter.Success(fmt.Sprintf("%s is up to date (%d skills)", output, count))
			return nil
		}
		presenter.Diff(diff)
		return errors.Errorf("%s is out of date; run `skillgate rules generate`", output)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return errors.Wrap(err, "failed to create catalog directory")
	}
	if err := os.WriteFile(output, generated, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", output)
	}
	presenter.Success(fmt.Sprintf("Wrote %d skills to %s", count, output))
	return nil
}

func generateRules(ctx context.Context, dirs []string, version string) ([]byte, int, error) {
	discovery, err := skills.NewDiscovery(skills.WithSkillDirs(dirs...))
	if err != nil {
		return nil, 0, err
	}
	rules, err := discovery.GenerateRules(ctx)
	if err != nil {
		return nil, 0, err
	}
	data, err := skills.EncodeRules(version, rules)
	if err != nil {
		return nil, 0, err
	}
	return data, len(rules), nil
}

// rulesDiff returns a unified diff from the catalog at path to generated,
// or "" when they match. A missing catalog diffs against empty content.
func rulesDiff(path string, generated []byte) (string, error) {
	current, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	if string(current) == string(generated) {
		return "", nil
	}
	return udiff.Unified(path, path+" (generated)", string(current), string(generated)), nil
}

func runRulesValidate(path string) error {
	rules, err := skills.ReadRules(path)
	if err != nil {
		return err
	}
	report := skills.Validate(rules)

	for _, warning := range problems(report.Warnings) {
		presenter.Warning(warning.Error())
	}
	for _, problem := range problems(report.Errors) {
		presenter.Error(problem, "")
	}
	if !report.OK() {
		return errors.Errorf("%s has %d error(s)", path, len(problems(report.Errors)))
	}
	presenter.Success(fmt.Sprintf("%s: %d skills, %d warning(s)", path, len(rules), len(problems(report.Warnings))))
	return nil
}

func problems(err error) []error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []error{err}
}
