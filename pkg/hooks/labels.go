package hooks

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jingkaihe/skillgate/pkg/logger"
)

var (
	labelFlagPattern  = regexp.MustCompile(`--labels?\s+["']?([^"'\s]+)["']?`)
	labelFlagDetector = regexp.MustCompile(`--labels?`)
)

// LabelValidator removes labels that do not exist in the repository from
// `gh issue create` commands.
type LabelValidator struct {
	runner Runner
	now    func() time.Time
	ttl    time.Duration

	mu        sync.Mutex
	labels    []string
	fetchedAt time.Time
}

// LabelOption configures a LabelValidator.
type LabelOption func(*LabelValidator)

// WithRunner sets the command runner used to call gh.
func WithRunner(r Runner) LabelOption {
	return func(v *LabelValidator) {
		v.runner = r
	}
}

// WithClock sets the time source for the label cache.
func WithClock(now func() time.Time) LabelOption {
	return func(v *LabelValidator) {
		v.now = now
	}
}

// NewLabelValidator creates a validator that shells out to gh.
func NewLabelValidator(opts ...LabelOption) *LabelValidator {
	v := &LabelValidator{
		runner: ExecRunner{},
		now:    time.Now,
		ttl:    LabelCacheTTL,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks text and returns it unchanged unless it is an issue
// creation command naming unknown labels. When the repository labels cannot
// be fetched the command passes through.
func (v *LabelValidator) Validate(ctx context.Context, text string) LabelResult {
	result := LabelResult{Text: text}
	if !strings.Contains(text, "gh issue create") || !labelFlagDetector.MatchString(text) {
		return result
	}

	requested := ExtractLabels(text)
	if len(requested) == 0 {
		return result
	}

	known := v.repositoryLabels(ctx)
	if len(known) == 0 {
		return result
	}

	knownSet := make(map[string]bool, len(known))
	for _, label := range known {
		knownSet[label] = true
	}
	var valid, invalid []string
	for _, label := range requested {
		if knownSet[label] {
			valid = append(valid, label)
		} else {
			invalid = append(invalid, label)
		}
	}
	if len(invalid) == 0 {
		return result
	}

	logger.G(ctx).WithField("invalid_labels", invalid).Info("removing unknown labels from issue command")
	result.Text = ReplaceLabels(text, valid)
	result.InvalidLabels = invalid
	result.Warning = labelWarning(valid, invalid)
	return result
}

// ExtractLabels returns every label passed with --label or --labels,
// splitting comma separated values.
func ExtractLabels(command string) []string {
	var labels []string
	for _, match := range labelFlagPattern.FindAllStringSubmatch(command, -1) {
		for _, label := range strings.Split(match[1], ",") {
			if label = strings.TrimSpace(label); label != "" {
				labels = append(labels, label)
			}
		}
	}
	return labels
}

// ReplaceLabels strips all label flags from command and, when labels is
// not empty, appends a single --label flag carrying them.
func ReplaceLabels(command string, labels []string) string {
	cleaned := strings.TrimSpace(labelFlagPattern.ReplaceAllString(command, ""))
	if len(labels) == 0 {
		return cleaned
	}
	return cleaned + ` --label "` + strings.Join(labels, ",") + `"`
}

// repositoryLabels returns the cached label list, refreshing it after the
// TTL. Fetch failures are logged and yield nil.
func (v *LabelValidator) repositoryLabels(ctx context.Context) []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if v.labels != nil && now.Sub(v.fetchedAt) < v.ttl {
		return v.labels
	}

	out, err := v.runner.Run(ctx, "gh", labelListArgs...)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("could not fetch GitHub labels, skipping validation")
		return nil
	}

	var labels []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			labels = append(labels, line)
		}
	}
	v.labels = labels
	v.fetchedAt = now
	return labels
}

func labelWarning(valid, invalid []string) string {
	lines := []string{
		"GitHub Label Validation:",
		"   Invalid labels removed: " + strings.Join(invalid, ", "),
	}
	if len(valid) > 0 {
		lines = append(lines, "   Valid labels kept: "+strings.Join(valid, ", "))
	} else {
		lines = append(lines, "   No valid labels provided. Command will proceed without labels.")
	}
	lines = append(lines, "", `Tip: Use the "github-labels" skill to see all valid labels.`)
	return strings.Join(lines, "\n")
}
