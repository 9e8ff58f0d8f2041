package skills

import (
	"os"

	"github.com/jingkaihe/skillgate/pkg/security"
	"github.com/pkg/errors"
)

// ContentLoader reads SKILL.md files from a skills base directory.
type ContentLoader struct {
	base string
}

// NewContentLoader creates a loader rooted at base.
func NewContentLoader(base string) *ContentLoader {
	return &ContentLoader{base: base}
}

// Base returns the skills base directory.
func (l *ContentLoader) Base() string {
	return l.base
}

// Load returns the content of the named skill. The name and the resulting
// path are validated immediately before the file is opened; failures are
// returned as *security.Violation.
func (l *ContentLoader) Load(name string) (string, error) {
	path, err := security.SkillPath(l.base, name, SkillFileName)
	if err != nil {
		return "", err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Errorf("skill file not found: %s", path)
		}
		return "", errors.Wrapf(err, "failed to read skill %s", name)
	}
	return string(content), nil
}
