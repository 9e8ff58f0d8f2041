package intent

import (
	"fmt"
	"os"
	"strings"

	"github.com/jingkaihe/skillgate/pkg/skills"
	"github.com/pkg/errors"
)

// Placeholders substituted into the analysis template.
const (
	PromptPlaceholder = "{{USER_PROMPT}}"
	SkillsPlaceholder = "{{SKILL_DESCRIPTIONS}}"
)

// SourceDefault marks the built-in template.
const SourceDefault = "builtin"

// DefaultTemplate is used when no template file is configured or found.
const DefaultTemplate = `Analyze the following user prompt and determine which skills are most relevant.

User prompt: {{USER_PROMPT}}

Available skills:
{{SKILL_DESCRIPTIONS}}

Respond with JSON containing:
- primary_intent: Brief description of what the user wants
- required: Array of skill names that are critical (confidence >= 0.65)
- suggested: Array of skill names that may help (confidence 0.50-0.65)
- scores: Object mapping skill names to confidence scores (0.0-1.0)

Only include skills with confidence >= 0.50.`

// ErrTemplateNotFound is returned by LoadTemplate when the file is absent.
var ErrTemplateNotFound = errors.New("intent prompt template not found")

// Template is the text sent to the collaborator, with placeholders.
type Template struct {
	Text   string
	Source string
}

// Default returns the built-in template.
func Default() Template {
	return Template{Text: DefaultTemplate, Source: SourceDefault}
}

// LoadTemplate reads a template file. A missing file yields
// ErrTemplateNotFound so the caller can decide whether to fall back.
func LoadTemplate(path string) (Template, error) {
	if path == "" {
		return Template{}, ErrTemplateNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Template{}, errors.Wrapf(ErrTemplateNotFound, "%s", path)
		}
		return Template{}, errors.Wrapf(err, "failed to read intent prompt template %s", path)
	}
	if strings.TrimSpace(string(data)) == "" {
		return Template{}, errors.Errorf("intent prompt template %s is empty", path)
	}
	return Template{Text: string(data), Source: path}, nil
}

// Render substitutes the prompt and the skill listing in a single pass so
// placeholder text inside the prompt is left alone.
func (t Template) Render(prompt string, catalog *skills.Catalog) string {
	r := strings.NewReplacer(
		PromptPlaceholder, prompt,
		SkillsPlaceholder, DescribeSkills(catalog),
	)
	return r.Replace(t.Text)
}

// DescribeSkills lists every rule as "- name: description" in catalog order.
func DescribeSkills(catalog *skills.Catalog) string {
	var b strings.Builder
	for i, rule := range catalog.Rules() {
		if i > 0 {
			b.WriteByte('\n')
		}
		desc := strings.TrimSpace(rule.Description)
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(&b, "- %s: %s", rule.Name, desc)
	}
	return b.String()
}
