package hooks

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	output []byte
	err    error
	calls  int
	args   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls++
	f.args = append([]string{name}, args...)
	return f.output, f.err
}

func repoLabels() *fakeRunner {
	return &fakeRunner{output: []byte("bug\nenhancement\npriority:high\n\n")}
}

func TestExtractLabels(t *testing.T) {
	tests := []struct {
		command  string
		expected []string
	}{
		{`gh issue create --title "x" --label bug`, []string{"bug"}},
		{`gh issue create --labels "bug,enhancement"`, []string{"bug", "enhancement"}},
		{`gh issue create --label 'bug' --label feature`, []string{"bug", "feature"}},
		{`gh issue create --title "no labels"`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractLabels(tt.command))
		})
	}
}

func TestReplaceLabels(t *testing.T) {
	cmd := `gh issue create --title "x" --label bug --label feature`
	assert.Equal(t, `gh issue create --title "x" --label "bug"`, ReplaceLabels(cmd, []string{"bug"}))
	assert.Equal(t, `gh issue create --title "x"`, ReplaceLabels(cmd, nil))
}

func TestLabelValidator_PassThrough(t *testing.T) {
	runner := repoLabels()
	v := NewLabelValidator(WithRunner(runner))
	ctx := context.Background()

	for _, text := range []string{
		"please fix the login page",
		`gh issue create --title "x"`,
		`gh pr create --label bug`,
		`gh issue create --label bug,enhancement`,
	} {
		res := v.Validate(ctx, text)
		assert.Equal(t, text, res.Text)
		assert.Empty(t, res.InvalidLabels)
		assert.Empty(t, res.Warning)
	}
	assert.Equal(t, 1, runner.calls, "labels are fetched only for issue commands and then cached")
	assert.Equal(t, []string{"gh", "label", "list", "--json", "name", "--jq", ".[].name"}, runner.args)
}

func TestLabelValidator_RemovesInvalid(t *testing.T) {
	v := NewLabelValidator(WithRunner(repoLabels()))

	res := v.Validate(context.Background(), `gh issue create --title "Crash" --label bug,urgent --label priority:high`)
	assert.Equal(t, `gh issue create --title "Crash" --label "bug,priority:high"`, res.Text)
	assert.Equal(t, []string{"urgent"}, res.InvalidLabels)
	assert.Contains(t, res.Warning, "Invalid labels removed: urgent")
	assert.Contains(t, res.Warning, "Valid labels kept: bug, priority:high")

	res = v.Validate(context.Background(), `gh issue create --title "Crash" --label urgent`)
	assert.Equal(t, `gh issue create --title "Crash"`, res.Text)
	assert.Contains(t, res.Warning, "No valid labels provided")
}

func TestLabelValidator_FetchFailureSkipsValidation(t *testing.T) {
	runner := &fakeRunner{err: errors.New("gh: not logged in")}
	v := NewLabelValidator(WithRunner(runner))

	text := `gh issue create --label made-up`
	res := v.Validate(context.Background(), text)
	assert.Equal(t, text, res.Text)
	assert.Empty(t, res.InvalidLabels)

	v.Validate(context.Background(), text)
	assert.Equal(t, 2, runner.calls, "failures are not cached")
}

func TestLabelValidator_CacheTTL(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	runner := repoLabels()
	v := NewLabelValidator(WithRunner(runner), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	v.Validate(ctx, `gh issue create --label bug`)
	now = now.Add(4 * time.Minute)
	v.Validate(ctx, `gh issue create --label bug`)
	assert.Equal(t, 1, runner.calls)

	now = now.Add(2 * time.Minute)
	v.Validate(ctx, `gh issue create --label bug`)
	assert.Equal(t, 2, runner.calls)
}

func TestLabelResult_JSON(t *testing.T) {
	data, err := json.Marshal(LabelResult{Text: "gh issue list"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text": "gh issue list"}`, string(data))

	var payload PromptPayload
	require.NoError(t, json.Unmarshal([]byte(`{"text": "t", "conversationId": "c"}`), &payload))
	assert.Equal(t, PromptPayload{Text: "t", ConversationID: "c"}, payload)
}

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "labels.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho bug\necho oops >&2\n"), 0o755))

	out, err := ExecRunner{}.Run(context.Background(), script)
	require.NoError(t, err)
	assert.Equal(t, "bug\n", string(out))

	failing := filepath.Join(dir, "fail.sh")
	require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\necho denied >&2\nexit 1\n"), 0o755))
	_, err = ExecRunner{}.Run(context.Background(), failing)
	assert.ErrorContains(t, err, "denied")

	slow := filepath.Join(dir, "slow.sh")
	require.NoError(t, os.WriteFile(slow, []byte("#!/bin/sh\nexec sleep 5\n"), 0o755))
	_, err = ExecRunner{Timeout: 50 * time.Millisecond}.Run(context.Background(), slow)
	assert.ErrorContains(t, err, "timed out")
}
