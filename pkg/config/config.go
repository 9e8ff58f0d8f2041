// Package config resolves skillgate settings from flags, SKILLGATE_*
// environment variables, the legacy hook variables, an optional config.yaml
// and the project's .claude/hooks/.env file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for skillgate environment variables.
const EnvPrefix = "SKILLGATE"

// Config holds every tunable of an activation run.
type Config struct {
	ProjectDir    string `mapstructure:"project_dir"`
	HubSkillsPath string `mapstructure:"hub_skills_path"`
	SkillsPath    string `mapstructure:"skills_path"`
	RulesPath     string `mapstructure:"rules_path"`
	StateDir      string `mapstructure:"state_dir"`
	TemplatePath  string `mapstructure:"template_path"`

	HighThreshold    float64 `mapstructure:"high_threshold"`
	LowThreshold     float64 `mapstructure:"low_threshold"`
	MaxRequired      int     `mapstructure:"max_required"`
	MaxSuggested     int     `mapstructure:"max_suggested"`
	ShortPromptWords int     `mapstructure:"short_prompt_words"`

	Cache      CacheConfig      `mapstructure:"cache"`
	Classifier ClassifierConfig `mapstructure:"classifier"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	LogFile   string `mapstructure:"log_file"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	TTLMs   int64  `mapstructure:"ttl_ms"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}

// ClassifierConfig configures the LLM collaborator.
type ClassifierConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ResolveAPIKey returns the configured key, falling back to the provider's
// conventional environment variable.
func (c ClassifierConfig) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	var names []string
	switch strings.ToLower(c.Provider) {
	case "openai":
		names = []string{"OPENAI_API_KEY"}
	case "google":
		names = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}
	default:
		names = []string{"ANTHROPIC_API_KEY"}
	}
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

var defaults = map[string]any{
	"project_dir":            "",
	"hub_skills_path":        "",
	"skills_path":            "",
	"rules_path":             "",
	"state_dir":              "",
	"template_path":          "",
	"high_threshold":         0.65,
	"low_threshold":          0.50,
	"max_required":           2,
	"max_suggested":          2,
	"short_prompt_words":     6,
	"cache.backend":          "sqlite",
	"cache.path":             "",
	"cache.ttl_ms":           int64(time.Hour / time.Millisecond),
	"classifier.provider":    "anthropic",
	"classifier.model":       "",
	"classifier.api_key":     "",
	"classifier.base_url":    "",
	"classifier.max_tokens":  500,
	"classifier.temperature": 0.1,
	"classifier.timeout":     "20s",
	"log_level":              "warn",
	"log_format":             "fmt",
	"log_file":               "",
}

// legacyEnv maps keys to the variable names used by the original hook.
var legacyEnv = map[string][]string{
	"project_dir":        {"CLAUDE_PROJECT_DIR"},
	"hub_skills_path":    {"HESTAI_HUB_SKILLS_PATH"},
	"skills_path":        {"HESTAI_SKILLS_PATH"},
	"high_threshold":     {"SKILL_CONFIDENCE_THRESHOLD"},
	"low_threshold":      {"SKILL_SUGGESTED_THRESHOLD"},
	"short_prompt_words": {"SKILL_SHORT_PROMPT_WORDS"},
	"cache.ttl_ms":       {"SKILL_CACHE_TTL_MS"},
	"classifier.model":   {"CLAUDE_SKILLS_MODEL"},
	"log_file":           {"SKILL_DEBUG_LOG"},
}

// Setup configures v with defaults, environment bindings and config file
// search paths, then reads the config file if one exists.
func Setup(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, names := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(append([]string{key, prefixed}, names...)...)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.skillgate")
	v.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = v.ReadInConfig()
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	cfg, _ := decode(v)
	return cfg
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return cfg, errors.Wrap(err, "failed to create config decoder")
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return cfg, errors.Wrap(err, "failed to decode configuration")
	}
	return cfg, nil
}

// Validate checks ranges and relationships between settings.
func (c Config) Validate() error {
	switch {
	case c.HighThreshold < 0 || c.HighThreshold > 1:
		return errors.Errorf("high_threshold must be within [0,1], got %v", c.HighThreshold)
	case c.LowThreshold < 0 || c.LowThreshold > 1:
		return errors.Errorf("low_threshold must be within [0,1], got %v", c.LowThreshold)
	case c.LowThreshold > c.HighThreshold:
		return errors.Errorf("low_threshold %v exceeds high_threshold %v", c.LowThreshold, c.HighThreshold)
	case c.MaxRequired < 0 || c.MaxSuggested < 0:
		return errors.New("slot limits must not be negative")
	case c.ShortPromptWords < 0:
		return errors.New("short_prompt_words must not be negative")
	case c.Cache.TTLMs <= 0:
		return errors.New("cache.ttl_ms must be positive")
	case c.Cache.Backend != "sqlite" && c.Cache.Backend != "memory":
		return errors.Errorf("unsupported cache.backend %q", c.Cache.Backend)
	case c.Classifier.Timeout <= 0:
		return errors.New("classifier.timeout must be positive")
	}
	return nil
}

// Paths are the resolved filesystem locations for one run.
type Paths struct {
	ProjectDir   string
	SkillsBase   string
	RulesPath    string
	StateDir     string
	TemplatePath string
	EnvFile      string
}

// ProjectDir picks the project directory: the hook's cwd, then the
// configured project dir, then the process working directory.
func ProjectDir(hookCwd, configured string) string {
	if hookCwd != "" {
		return hookCwd
	}
	if configured != "" {
		return configured
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// EnvFile returns the .env file consulted for a project.
func EnvFile(projectDir string) string {
	return filepath.Join(projectDir, ".claude", "hooks", ".env")
}

// Resolve derives the run's paths. Relative overrides are taken relative to
// the project directory.
func (c Config) Resolve(hookCwd string) Paths {
	project := ProjectDir(hookCwd, c.ProjectDir)
	hooksDir := filepath.Join(project, ".claude", "hooks")

	skillsBase := firstNonEmpty(c.HubSkillsPath, c.SkillsPath)
	if skillsBase == "" {
		skillsBase = filepath.Join(project, "hub", "library", "skills")
	}

	return Paths{
		ProjectDir:   project,
		SkillsBase:   within(project, skillsBase),
		RulesPath:    within(project, orDefault(c.RulesPath, filepath.Join(hooksDir, "skill-rules.json"))),
		StateDir:     within(project, orDefault(c.StateDir, filepath.Join(hooksDir, "state"))),
		TemplatePath: within(project, orDefault(c.TemplatePath, filepath.Join(hooksDir, "config", "intent-analysis-prompt.txt"))),
		EnvFile:      EnvFile(project),
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path without overriding variables
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	return nil
}

func within(project, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(project, path)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
