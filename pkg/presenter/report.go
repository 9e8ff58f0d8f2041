package presenter

import (
	"fmt"
	"io"
	"strings"
)

const bannerRule = "==========================================="

// LoadedSkill is a skill whose content was read successfully.
type LoadedSkill struct {
	Name    string
	Content string
}

// ActivationReport is everything the hook shows for one turn.
type ActivationReport struct {
	// Matched is false when the classifier selected nothing; the banner is
	// then omitted unless there are notices.
	Matched bool

	Loaded   []LoadedSkill
	Required []string
	Promoted []string
	Affinity []string

	AlreadyLoaded []string
	Recommended   []string
	Scores        map[string]float64
	Manual        []string

	// Notices are one-line diagnostics such as skipped skills.
	Notices []string
}

// LoadedNames returns the names of loaded skills in load order.
func (r ActivationReport) LoadedNames() []string {
	names := make([]string, 0, len(r.Loaded))
	for _, s := range r.Loaded {
		names = append(names, s.Name)
	}
	return names
}

// RenderActivation returns the text written to stdout for the turn: the
// loaded skill bodies followed by the activation banner.
func RenderActivation(r ActivationReport) string {
	var b strings.Builder
	if len(r.Loaded) > 0 {
		writeSkills(&b, r.Loaded)
	}
	if r.Matched || len(r.Notices) > 0 {
		writeBanner(&b, r)
	}
	return b.String()
}

// WriteActivation writes RenderActivation(r) to w.
func WriteActivation(w io.Writer, r ActivationReport) error {
	_, err := io.WriteString(w, RenderActivation(r))
	return err
}

func writeSkills(b *strings.Builder, loaded []LoadedSkill) {
	b.WriteString("\n")
	b.WriteString(bannerRule + "\n")
	b.WriteString("AUTO-LOADED SKILLS\n")
	b.WriteString(bannerRule + "\n\n")
	for _, s := range loaded {
		fmt.Fprintf(b, "<skill name=\"%s\">\n", s.Name)
		b.WriteString(s.Content)
		b.WriteString("\n</skill>\n\n")
	}
	b.WriteString(bannerRule + "\n")
	names := make([]string, 0, len(loaded))
	for _, s := range loaded {
		names = append(names, s.Name)
	}
	fmt.Fprintf(b, "Loaded %d skill(s): %s\n", len(loaded), strings.Join(names, ", "))
	b.WriteString(bannerRule + "\n")
}

func writeBanner(b *strings.Builder, r ActivationReport) {
	b.WriteString(bannerRule + "\n")
	b.WriteString("SKILL ACTIVATION CHECK\n")
	b.WriteString(bannerRule + "\n\n")

	if len(r.Loaded) > 0 {
		b.WriteString("\nJUST LOADED:\n")
		for _, s := range r.Loaded {
			fmt.Fprintf(b, "  -> %s%s\n", s.Name, label(s.Name, r))
		}
	}

	if len(r.AlreadyLoaded) > 0 && len(r.Loaded) == 0 {
		b.WriteString("\nALREADY LOADED:\n")
		for _, name := range r.AlreadyLoaded {
			fmt.Fprintf(b, "  -> %s\n", name)
		}
	}

	if len(r.Recommended) > 0 {
		b.WriteString("\nRECOMMENDED SKILLS (not auto-loaded):\n")
		for _, name := range r.Recommended {
			fmt.Fprintf(b, "  -> %s", name)
			if score := r.Scores[name]; score > 0 {
				fmt.Fprintf(b, " (%.2f)", score)
			}
			b.WriteString("\n")
		}
		b.WriteString("\nOptional: Use Skill tool to load if needed\n")
	}

	if len(r.Manual) > 0 {
		b.WriteString("\nMANUAL LOAD REQUIRED (autoInject: false):\n")
		for _, name := range r.Manual {
			fmt.Fprintf(b, "  -> %s\n", name)
		}
		b.WriteString("\nACTION: Use Skill tool for these skills\n")
	}

	if len(r.Notices) > 0 {
		b.WriteString("\nNOTICES:\n")
		for _, notice := range r.Notices {
			fmt.Fprintf(b, "  -> %s\n", notice)
		}
	}

	b.WriteString(bannerRule + "\n")
}

// label explains why a loaded skill was injected. Affinity wins over
// promotion, which wins over a required match; anything else came in as a
// dependency.
func label(name string, r ActivationReport) string {
	switch {
	case contains(r.Affinity, name):
		return " (affinity)"
	case contains(r.Promoted, name):
		return " (promoted)"
	case contains(r.Required, name):
		return " (critical)"
	default:
		return " (dependency)"
	}
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}
