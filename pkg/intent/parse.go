package intent

import (
	"encoding/json"
	"strings"

	intenttypes "github.com/jingkaihe/skillgate/pkg/types/intent"
	"github.com/pkg/errors"
)

const fence = "```"

// ParseResponse extracts an Analysis from free-form collaborator output. A
// leading markdown fence line and everything from the closing fence onward
// are stripped, then the first balanced {...} object is decoded. Any shape
// mismatch is reported as a *ClassifierError.
func ParseResponse(text string) (intenttypes.Analysis, error) {
	body := strings.TrimSpace(text)
	if strings.HasPrefix(body, fence) {
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		} else {
			body = ""
		}
		if end := strings.Index(body, fence); end >= 0 {
			body = body[:end]
		}
	}

	obj, ok := firstObject(body)
	if !ok {
		return intenttypes.Analysis{}, classifierError(ReasonParse, errors.New("no JSON object in classifier response"))
	}

	var raw struct {
		PrimaryIntent string             `json:"primary_intent"`
		Required      []string           `json:"required"`
		Suggested     []string           `json:"suggested"`
		Scores        map[string]float64 `json:"scores"`
	}
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return intenttypes.Analysis{}, classifierError(ReasonParse, errors.Wrap(err, "malformed classifier response"))
	}
	for name, score := range raw.Scores {
		if score < 0 || score > 1 {
			return intenttypes.Analysis{}, classifierError(ReasonParse, errors.Errorf("score for %q out of range: %v", name, score))
		}
	}

	return intenttypes.Analysis{
		PrimaryIntent: raw.PrimaryIntent,
		Required:      raw.Required,
		Suggested:     raw.Suggested,
		Scores:        raw.Scores,
	}, nil
}

// firstObject returns the first balanced top-level JSON object in s. Braces
// inside string literals are ignored.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
