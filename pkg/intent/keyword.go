package intent

import (
	"strings"
	"unicode"

	"github.com/gobwas/glob"
	"github.com/jingkaihe/skillgate/pkg/skills"
	intenttypes "github.com/jingkaihe/skillgate/pkg/types/intent"
)

// KeywordScore is the confidence assigned to every short-prompt match. It
// sits between the default thresholds so matches are suggested, not forced.
const KeywordScore = 0.55

const minKeywordLen = 3

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "from": true, "into": true, "please": true, "can": true,
	"you": true, "are": true, "how": true, "what": true, "why": true,
}

// WordCount counts whitespace separated words.
func WordCount(prompt string) int {
	return len(strings.Fields(prompt))
}

// KeywordAnalysis classifies a short prompt without the collaborator. A skill
// matches when a prompt word occurs in its description or when one of its
// trigger keywords matches the prompt.
func KeywordAnalysis(prompt string, catalog *skills.Catalog) intenttypes.Analysis {
	lower := strings.ToLower(prompt)
	words := promptWords(lower)

	analysis := intenttypes.Analysis{
		PrimaryIntent: "short prompt keyword match",
		Scores:        map[string]float64{},
	}
	for _, rule := range catalog.Rules() {
		if matchesDescription(words, rule.Description) || matchesTriggers(lower, words, rule.Keywords()) {
			analysis.Suggested = append(analysis.Suggested, rule.Name)
			analysis.Scores[rule.Name] = KeywordScore
		}
	}
	return analysis
}

func promptWords(lower string) []string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
	})
	out := fields[:0]
	for _, w := range fields {
		if len(w) >= minKeywordLen && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

func matchesDescription(words []string, description string) bool {
	desc := strings.ToLower(description)
	if desc == "" {
		return false
	}
	for _, w := range words {
		if strings.Contains(desc, w) {
			return true
		}
	}
	return false
}

// matchesTriggers checks plain keywords as substrings of the prompt and
// glob keywords against each word and the whole prompt. Invalid patterns
// are ignored.
func matchesTriggers(lower string, words []string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if !strings.ContainsAny(kw, "*?[{") {
			if strings.Contains(lower, kw) {
				return true
			}
			continue
		}
		g, err := glob.Compile(kw)
		if err != nil {
			continue
		}
		if g.Match(lower) {
			return true
		}
		for _, w := range words {
			if g.Match(w) {
				return true
			}
		}
	}
	return false
}
