package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	v := viper.New()
	Setup(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	for _, names := range legacyEnv {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, 0.65, cfg.HighThreshold)
	assert.Equal(t, 0.50, cfg.LowThreshold)
	assert.Equal(t, 2, cfg.MaxRequired)
	assert.Equal(t, 2, cfg.MaxSuggested)
	assert.Equal(t, 6, cfg.ShortPromptWords)
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, "anthropic", cfg.Classifier.Provider)
	assert.Equal(t, 500, cfg.Classifier.MaxTokens)
	assert.Equal(t, 0.1, cfg.Classifier.Temperature)
	assert.Equal(t, 20*time.Second, cfg.Classifier.Timeout)

	assert.Equal(t, cfg, Default())
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Setenv("SKILL_CONFIDENCE_THRESHOLD", "0.8")
	t.Setenv("SKILL_SUGGESTED_THRESHOLD", "0.4")
	t.Setenv("SKILL_SHORT_PROMPT_WORDS", "3")
	t.Setenv("SKILL_CACHE_TTL_MS", "60000")
	t.Setenv("CLAUDE_SKILLS_MODEL", "claude-sonnet-4-5")
	t.Setenv("HESTAI_SKILLS_PATH", "/skills")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.HighThreshold)
	assert.Equal(t, 0.4, cfg.LowThreshold)
	assert.Equal(t, 3, cfg.ShortPromptWords)
	assert.Equal(t, time.Minute, cfg.Cache.TTL())
	assert.Equal(t, "claude-sonnet-4-5", cfg.Classifier.Model)
	assert.Equal(t, "/skills", cfg.SkillsPath)
}

func TestLoad_PrefixedEnv(t *testing.T) {
	t.Setenv("SKILLGATE_MAX_REQUIRED", "3")
	t.Setenv("SKILLGATE_CLASSIFIER_PROVIDER", "openai")
	t.Setenv("SKILLGATE_CLASSIFIER_TIMEOUT", "5s")
	t.Setenv("SKILLGATE_HIGH_THRESHOLD", "0.9")
	t.Setenv("SKILL_CONFIDENCE_THRESHOLD", "0.7")

	cfg, err := Load(newViper(t))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxRequired)
	assert.Equal(t, "openai", cfg.Classifier.Provider)
	assert.Equal(t, 5*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, 0.9, cfg.HighThreshold, "prefixed variable wins over the legacy name")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"high out of range", func(c *Config) { c.HighThreshold = 1.2 }},
		{"low out of range", func(c *Config) { c.LowThreshold = -0.1 }},
		{"low above high", func(c *Config) { c.LowThreshold = 0.9 }},
		{"negative slots", func(c *Config) { c.MaxRequired = -1 }},
		{"negative words", func(c *Config) { c.ShortPromptWords = -1 }},
		{"zero ttl", func(c *Config) { c.Cache.TTLMs = 0 }},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }},
		{"zero timeout", func(c *Config) { c.Classifier.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, Default().Validate())
}

func TestResolve(t *testing.T) {
	project := t.TempDir()

	paths := Default().Resolve(project)
	assert.Equal(t, project, paths.ProjectDir)
	assert.Equal(t, filepath.Join(project, "hub", "library", "skills"), paths.SkillsBase)
	assert.Equal(t, filepath.Join(project, ".claude", "hooks", "skill-rules.json"), paths.RulesPath)
	assert.Equal(t, filepath.Join(project, ".claude", "hooks", "state"), paths.StateDir)
	assert.Equal(t, filepath.Join(project, ".claude", "hooks", "config", "intent-analysis-prompt.txt"), paths.TemplatePath)
	assert.Equal(t, filepath.Join(project, ".claude", "hooks", ".env"), paths.EnvFile)

	cfg := Default()
	cfg.SkillsPath = "/project-skills"
	cfg.HubSkillsPath = "/hub-skills"
	cfg.RulesPath = "rules/custom.yaml"
	paths = cfg.Resolve(project)
	assert.Equal(t, "/hub-skills", paths.SkillsBase)
	assert.Equal(t, filepath.Join(project, "rules", "custom.yaml"), paths.RulesPath)

	cfg.HubSkillsPath = ""
	assert.Equal(t, "/project-skills", cfg.Resolve(project).SkillsBase)
}

func TestProjectDir(t *testing.T) {
	assert.Equal(t, "/from-hook", ProjectDir("/from-hook", "/configured"))
	assert.Equal(t, "/configured", ProjectDir("", "/configured"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, ProjectDir("", ""))
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini")

	assert.Equal(t, "sk-ant", ClassifierConfig{Provider: "anthropic"}.ResolveAPIKey())
	assert.Equal(t, "sk-openai", ClassifierConfig{Provider: "openai"}.ResolveAPIKey())
	assert.Equal(t, "gemini", ClassifierConfig{Provider: "google"}.ResolveAPIKey())
	assert.Equal(t, "explicit", ClassifierConfig{APIKey: "explicit"}.ResolveAPIKey())
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SKILLGATE_TEST_FROM_FILE=file\nSKILLGATE_TEST_PRESET=file\n"), 0o644))
	t.Setenv("SKILLGATE_TEST_PRESET", "env")
	t.Setenv("SKILLGATE_TEST_FROM_FILE", "")
	os.Unsetenv("SKILLGATE_TEST_FROM_FILE")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "file", os.Getenv("SKILLGATE_TEST_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("SKILLGATE_TEST_PRESET"))
}
