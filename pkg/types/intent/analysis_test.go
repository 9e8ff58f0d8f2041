package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysis_Clone(t *testing.T) {
	original := Analysis{
		PrimaryIntent: "fix auth",
		Required:      []string{"service-layer-development"},
		Suggested:     []string{"api-design"},
		Scores:        map[string]float64{"service-layer-development": 0.9},
	}
	clone := original.Clone()
	clone.Required[0] = "mutated"
	clone.Scores["service-layer-development"] = 0.1

	assert.Equal(t, "service-layer-development", original.Required[0])
	assert.Equal(t, 0.9, original.Score("service-layer-development"))
	assert.Equal(t, 0.0, original.Score("missing"))
}

func TestAnalysis_Empty(t *testing.T) {
	assert.True(t, Analysis{}.Empty())
	assert.False(t, Analysis{Suggested: []string{"a"}}.Empty())
}
