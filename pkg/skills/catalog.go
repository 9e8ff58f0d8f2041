package skills

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/security"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Catalog is the read-only, declaration-ordered set of skill rules for a run.
type Catalog struct {
	rules       map[string]*Rule
	order       []string
	index       map[string]int
	fingerprint string
}

// NewCatalog builds a catalog from rules in declaration order. When a name is
// declared twice the first declaration wins.
func NewCatalog(rules []Rule) *Catalog {
	c := &Catalog{
		rules: make(map[string]*Rule, len(rules)),
		index: make(map[string]int, len(rules)),
	}
	for i := range rules {
		rule := rules[i]
		if _, exists := c.rules[rule.Name]; exists {
			continue
		}
		c.index[rule.Name] = len(c.order)
		c.order = append(c.order, rule.Name)
		c.rules[rule.Name] = &rule
	}
	c.fingerprint = c.computeFingerprint()
	return c
}

// Get returns the rule for name.
func (c *Catalog) Get(name string) (*Rule, bool) {
	rule, ok := c.rules[name]
	return rule, ok
}

// Has reports whether name is in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.rules[name]
	return ok
}

// Names returns skill names in declaration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Rules returns the rules in declaration order.
func (c *Catalog) Rules() []*Rule {
	rules := make([]*Rule, 0, len(c.order))
	for _, name := range c.order {
		rules = append(rules, c.rules[name])
	}
	return rules
}

// Index returns the declaration position of name, or -1.
func (c *Catalog) Index(name string) int {
	if i, ok := c.index[name]; ok {
		return i
	}
	return -1
}

// Len returns the number of skills.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Fingerprint identifies the catalog content. Any edit to a rule, or to the
// declaration order, changes it.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

func (c *Catalog) computeFingerprint() string {
	type entry struct {
		Name string `json:"name"`
		Rule *Rule  `json:"rule"`
	}
	entries := make([]entry, 0, len(c.order))
	for _, name := range c.order {
		entries = append(entries, entry{Name: name, Rule: c.rules[name]})
	}
	data, _ := json.Marshal(entries)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LoadCatalog reads the catalog at path and removes entries whose names fail
// validation, logging a warning for each.
func LoadCatalog(ctx context.Context, path string) (*Catalog, error) {
	rules, err := ReadRules(path)
	if err != nil {
		return nil, err
	}

	log := logger.G(ctx)
	valid := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if !security.ValidateName(rule.Name) {
			log.WithField("skill", rule.Name).Warn("skipping invalid skill name in catalog")
			continue
		}
		valid = append(valid, rule)
	}

	catalog := NewCatalog(valid)
	for _, pair := range OneSidedAffinities(catalog) {
		log.WithField("from", pair[0]).WithField("to", pair[1]).Debug("one-sided affinity declaration")
	}
	return catalog, nil
}

// ReadRules reads raw rules from a JSON or YAML catalog file, preserving
// declaration order. Names are not validated.
func ReadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: errors.Wrap(err, "failed to read skill rules")}
	}

	var rules []Rule
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rules, err = ParseYAMLRules(data)
	default:
		rules, err = ParseJSONRules(data)
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return rules, nil
}

// ParseJSONRules decodes a skill-rules.json document.
func ParseJSONRules(data []byte) ([]Rule, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("malformed JSON")
	}
	skills := gjson.GetBytes(data, "skills")
	if !skills.Exists() || !skills.IsObject() {
		return nil, errors.New(`missing "skills" object`)
	}

	var rules []Rule
	var decodeErr error
	skills.ForEach(func(key, value gjson.Result) bool {
		var rule Rule
		if err := json.Unmarshal([]byte(value.Raw), &rule); err != nil {
			decodeErr = errors.Wrapf(err, "failed to decode skill %q", key.String())
			return false
		}
		rule.Name = key.String()
		rules = append(rules, rule)
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return rules, nil
}

// ParseYAMLRules decodes the YAML form of the catalog.
func ParseYAMLRules(data []byte) ([]Rule, error) {
	var doc struct {
		Version string    `yaml:"version"`
		Skills  yaml.Node `yaml:"skills"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "malformed YAML")
	}
	if doc.Skills.Kind != yaml.MappingNode {
		return nil, errors.New(`missing "skills" mapping`)
	}

	rules := make([]Rule, 0, len(doc.Skills.Content)/2)
	for i := 0; i+1 < len(doc.Skills.Content); i += 2 {
		name := doc.Skills.Content[i].Value
		var rule Rule
		if err := doc.Skills.Content[i+1].Decode(&rule); err != nil {
			return nil, errors.Wrapf(err, "failed to decode skill %q", name)
		}
		rule.Name = name
		rules = append(rules, rule)
	}
	return rules, nil
}

// EncodeRules renders rules as an indented skill-rules.json document with
// skills in the given order.
func EncodeRules(version string, rules []Rule) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteString("{")
	if version != "" {
		v, err := json.Marshal(version)
		if err != nil {
			return nil, err
		}
		compact.WriteString(`"version":`)
		compact.Write(v)
		compact.WriteString(",")
	}
	compact.WriteString(`"skills":{`)
	for i, rule := range rules {
		if i > 0 {
			compact.WriteString(",")
		}
		key, err := json.Marshal(rule.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(rule)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to encode skill %q", rule.Name)
		}
		compact.Write(key)
		compact.WriteString(":")
		compact.Write(value)
	}
	compact.WriteString("}}")

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, errors.Wrap(err, "failed to indent skill rules")
	}
	out.WriteString("\n")
	return out.Bytes(), nil
}
