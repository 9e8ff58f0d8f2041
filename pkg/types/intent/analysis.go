// Package intent holds the classification result shared by the classifier,
// the response cache and the activation engine.
package intent

// Analysis is the classifier's judgement of which skills a prompt needs.
// Values are treated as immutable once produced.
type Analysis struct {
	PrimaryIntent string             `json:"primary_intent"`
	Required      []string           `json:"required"`
	Suggested     []string           `json:"suggested"`
	Scores        map[string]float64 `json:"scores"`
}

// Empty reports whether the analysis matched no skills.
func (a Analysis) Empty() bool {
	return len(a.Required) == 0 && len(a.Suggested) == 0
}

// Score returns the confidence recorded for name, or 0.
func (a Analysis) Score(name string) float64 {
	if a.Scores == nil {
		return 0
	}
	return a.Scores[name]
}

// Clone returns a deep copy so callers cannot mutate cached values.
func (a Analysis) Clone() Analysis {
	out := Analysis{PrimaryIntent: a.PrimaryIntent}
	if a.Required != nil {
		out.Required = append([]string{}, a.Required...)
	}
	if a.Suggested != nil {
		out.Suggested = append([]string{}, a.Suggested...)
	}
	if a.Scores != nil {
		out.Scores = make(map[string]float64, len(a.Scores))
		for k, v := range a.Scores {
			out.Scores[k] = v
		}
	}
	return out
}
