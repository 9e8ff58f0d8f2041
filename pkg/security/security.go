// Package security guards every file-system access made on behalf of a skill.
// Skill names arrive from the catalog file and from the classifier, so both
// the name and the path built from it are checked before any file is opened.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var skillNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Violation reports a skill that failed a name or containment check.
type Violation struct {
	Skill  string
	Reason string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("security violation for skill %q: %s", v.Skill, v.Reason)
}

// ValidateName reports whether name is safe to use as a skill directory name.
func ValidateName(name string) bool {
	if name == "" {
		return false
	}
	if !skillNamePattern.MatchString(name) {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// ValidateContainment reports whether target resolves to base itself or to a
// path below it. When both paths exist, symlinks are evaluated and the check
// is repeated on the real paths.
func ValidateContainment(target, base string) bool {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	if !within(absTarget, absBase) {
		return false
	}

	realBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		return true
	}
	realTarget, err := filepath.EvalSymlinks(absTarget)
	if err != nil {
		if os.IsNotExist(err) {
			return true
		}
		return false
	}
	return within(realTarget, realBase)
}

// SkillPath validates name, builds <base>/<name>/<fileName> and validates the
// result is contained in base.
func SkillPath(base, name, fileName string) (string, error) {
	if !ValidateName(name) {
		return "", &Violation{Skill: name, Reason: "invalid skill name"}
	}
	path := filepath.Join(base, name, fileName)
	if !ValidateContainment(path, base) {
		return "", &Violation{Skill: name, Reason: fmt.Sprintf("path %s escapes %s", path, base)}
	}
	return path, nil
}

func within(target, base string) bool {
	target = filepath.Clean(target)
	base = filepath.Clean(base)
	if target == base {
		return true
	}
	prefix := base
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}
