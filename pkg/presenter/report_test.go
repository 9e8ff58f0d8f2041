package presenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderActivation_Empty(t *testing.T) {
	assert.Empty(t, RenderActivation(ActivationReport{}))
}

func TestRenderActivation_FirstTurn(t *testing.T) {
	out := RenderActivation(ActivationReport{
		Matched: true,
		Loaded: []LoadedSkill{
			{Name: "error-handling", Content: "# Errors"},
			{Name: "service-layer-development", Content: "# Services"},
		},
		Required:    []string{"service-layer-development"},
		Recommended: []string{"api-design"},
		Scores:      map[string]float64{"api-design": 0.55},
	})

	skillsEnd := strings.Index(out, "SKILL ACTIVATION CHECK")
	require.Greater(t, skillsEnd, 0, "skill bodies precede the banner")

	assert.Contains(t, out, "AUTO-LOADED SKILLS")
	assert.Contains(t, out, "<skill name=\"error-handling\">\n# Errors\n</skill>")
	assert.Contains(t, out, "Loaded 2 skill(s): error-handling, service-layer-development")
	assert.Contains(t, out, "JUST LOADED:\n  -> error-handling (dependency)\n  -> service-layer-development (critical)\n")
	assert.Contains(t, out, "RECOMMENDED SKILLS (not auto-loaded):\n  -> api-design (0.55)\n")
	assert.Contains(t, out, "Optional: Use Skill tool to load if needed")
	assert.NotContains(t, out, "ALREADY LOADED")
	assert.NotContains(t, out, "MANUAL LOAD REQUIRED")
	assert.True(t, strings.HasSuffix(out, bannerRule+"\n"))
}

func TestRenderActivation_Labels(t *testing.T) {
	out := RenderActivation(ActivationReport{
		Matched: true,
		Loaded: []LoadedSkill{
			{Name: "a"}, {Name: "b"}, {Name: "c"},
		},
		Required: []string{"a", "b", "c"},
		Promoted: []string{"b", "c"},
		Affinity: []string{"c"},
	})
	assert.Contains(t, out, "  -> a (critical)\n  -> b (promoted)\n  -> c (affinity)\n")
}

func TestRenderActivation_AlreadyLoadedAndManual(t *testing.T) {
	out := RenderActivation(ActivationReport{
		Matched:       true,
		AlreadyLoaded: []string{"api-design"},
		Manual:        []string{"security-review"},
		Recommended:   []string{"unscored"},
	})
	assert.NotContains(t, out, "AUTO-LOADED SKILLS")
	assert.Contains(t, out, "ALREADY LOADED:\n  -> api-design\n")
	assert.Contains(t, out, "MANUAL LOAD REQUIRED (autoInject: false):\n  -> security-review\n")
	assert.Contains(t, out, "ACTION: Use Skill tool for these skills")
	assert.Contains(t, out, "  -> unscored\n")

	withLoaded := RenderActivation(ActivationReport{
		Matched:       true,
		Loaded:        []LoadedSkill{{Name: "x"}},
		AlreadyLoaded: []string{"api-design"},
	})
	assert.NotContains(t, withLoaded, "ALREADY LOADED")
}

func TestRenderActivation_NoticesOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteActivation(&buf, ActivationReport{
		Notices: []string{"intent classification unavailable"},
	}))
	assert.Contains(t, buf.String(), "SKILL ACTIVATION CHECK")
	assert.Contains(t, buf.String(), "NOTICES:\n  -> intent classification unavailable\n")
}

func TestLoadedNames(t *testing.T) {
	r := ActivationReport{Loaded: []LoadedSkill{{Name: "a"}, {Name: "b"}}}
	assert.Equal(t, []string{"a", "b"}, r.LoadedNames())
	assert.Empty(t, ActivationReport{}.LoadedNames())
}
