// Package skills models the skill catalog: the rules that describe each skill,
// the ordered catalog loaded from skill-rules.json, discovery of SKILL.md files
// used to generate that catalog, and guarded loading of skill content.
package skills

// DefaultInjectionOrder is used for rules that do not declare injectionOrder.
const DefaultInjectionOrder = 50

// SkillFileName is the content file inside each skill directory.
const SkillFileName = "SKILL.md"

// Rule describes one skill in the catalog.
type Rule struct {
	Name           string          `json:"-" yaml:"-"`
	Type           string          `json:"type,omitempty" yaml:"type,omitempty" jsonschema:"description=Skill category such as domain"`
	Description    string          `json:"description" yaml:"description" jsonschema:"description=Human description used for intent classification"`
	AutoInject     *bool           `json:"autoInject,omitempty" yaml:"autoInject,omitempty" jsonschema:"description=Whether the skill may be injected automatically (default true)"`
	InjectionOrder *int            `json:"injectionOrder,omitempty" yaml:"injectionOrder,omitempty" jsonschema:"description=Load priority; lower loads first (default 50)"`
	DependsOn      []string        `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty" jsonschema:"description=Skills that must be loaded before this one"`
	AffinityWith   []string        `json:"affinityWith,omitempty" yaml:"affinityWith,omitempty" jsonschema:"description=Skills injected for free alongside this one"`
	PromptTriggers *PromptTriggers `json:"promptTriggers,omitempty" yaml:"promptTriggers,omitempty"`
}

// PromptTriggers lists keywords used by the short-prompt heuristic.
// Keywords may contain glob wildcards such as "auth*".
type PromptTriggers struct {
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// RulesFile is the on-disk shape of skill-rules.json.
type RulesFile struct {
	Version string          `json:"version,omitempty" yaml:"version,omitempty"`
	Skills  map[string]Rule `json:"skills" yaml:"skills"`
}

// ShouldAutoInject reports whether the rule may be force-injected.
func (r *Rule) ShouldAutoInject() bool {
	return r.AutoInject == nil || *r.AutoInject
}

// Order returns the effective injectionOrder.
func (r *Rule) Order() int {
	if r.InjectionOrder == nil {
		return DefaultInjectionOrder
	}
	return *r.InjectionOrder
}

// Keywords returns the prompt trigger keywords, if any.
func (r *Rule) Keywords() []string {
	if r.PromptTriggers == nil {
		return nil
	}
	return r.PromptTriggers.Keywords
}

// DeclaresAffinity reports whether r lists other in affinityWith.
func (r *Rule) DeclaresAffinity(other string) bool {
	for _, name := range r.AffinityWith {
		if name == other {
			return true
		}
	}
	return false
}
