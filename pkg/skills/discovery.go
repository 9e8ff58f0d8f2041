package skills

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/security"
	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// Skill is a SKILL.md file found on disk together with its frontmatter.
type Skill struct {
	Name      string
	Directory string
	Rule      Rule
	Body      string
}

// Discovery finds SKILL.md files under one or more skill base directories
// and turns their frontmatter into catalog rules.
type Discovery struct {
	skillDirs []string
	pattern   string
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithSkillDirs sets the directories to scan. Earlier directories win when
// the same skill name appears twice.
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		if len(dirs) == 0 {
			return errors.New("at least one skill directory is required")
		}
		d.skillDirs = dirs
		return nil
	}
}

// WithPattern overrides the doublestar pattern used to locate skill files
// relative to each directory.
func WithPattern(pattern string) Option {
	return func(d *Discovery) error {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid skill file pattern %q", pattern)
		}
		d.pattern = pattern
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{pattern: "*/" + SkillFileName}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	if len(d.skillDirs) == 0 {
		return nil, errors.New("no skill directories configured")
	}
	return d, nil
}

// DiscoverSkills returns the skills found on disk, sorted by name. Files with
// missing frontmatter or invalid directory names are skipped with a warning.
func (d *Discovery) DiscoverSkills(ctx context.Context) ([]*Skill, error) {
	log := logger.G(ctx)
	found := make(map[string]*Skill)

	for _, dir := range d.skillDirs {
		matches, err := doublestar.Glob(os.DirFS(dir), d.pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s", dir)
		}
		for _, match := range matches {
			name := path.Base(path.Dir(match))
			if !security.ValidateName(name) {
				log.WithField("skill", name).Warn("skipping skill directory with invalid name")
				continue
			}
			if _, exists := found[name]; exists {
				continue
			}
			skillPath := filepath.Join(dir, filepath.FromSlash(match))
			skill, err := loadSkill(skillPath)
			if err != nil {
				log.WithError(err).WithField("path", skillPath).Warn("skipping skill")
				continue
			}
			skill.Name = name
			skill.Rule.Name = name
			skill.Directory = filepath.Dir(skillPath)
			found[name] = skill
		}
	}

	out := make([]*Skill, 0, len(found))
	for _, skill := range found {
		out = append(out, skill)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GenerateRules discovers skills and returns their rules sorted by name.
func (d *Discovery) GenerateRules(ctx context.Context) ([]Rule, error) {
	found, err := d.DiscoverSkills(ctx)
	if err != nil {
		return nil, err
	}
	rules := make([]Rule, 0, len(found))
	for _, skill := range found {
		rules = append(rules, skill.Rule)
	}
	return rules, nil
}

// loadSkill parses the frontmatter of a single SKILL.md file
func loadSkill(path string) (*Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()

	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return nil, errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return nil, errors.New("missing frontmatter")
	}

	description, _ := metaData["description"].(string)
	if description == "" {
		return nil, errors.New("skill description is required in frontmatter")
	}

	rule := Rule{
		Description:  strings.TrimSpace(description),
		DependsOn:    stringList(firstOf(metaData, "dependsOn", "depends_on")),
		AffinityWith: stringList(firstOf(metaData, "affinityWith", "affinity_with")),
	}
	if kind, ok := metaData["type"].(string); ok {
		rule.Type = kind
	}
	if keywords := stringList(firstOf(metaData, "triggers", "keywords")); len(keywords) > 0 {
		rule.PromptTriggers = &PromptTriggers{Keywords: keywords}
	}
	if auto, ok := firstOf(metaData, "autoInject", "auto_inject").(bool); ok {
		rule.AutoInject = &auto
	}
	if order, ok := firstOf(metaData, "injectionOrder", "injection_order").(int); ok {
		rule.InjectionOrder = &order
	}

	return &Skill{
		Rule: rule,
		Body: extractBodyContent(string(content)),
	}, nil
}

func firstOf(m map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return nil
	}
}

// extractBodyContent removes YAML frontmatter and returns the body
func extractBodyContent(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}

	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}
