// Package activation runs the per-turn pipeline: classify the prompt against
// the skill catalog, pick skills within the slot limits, expand affinities
// and dependencies, load the skill files and record what was injected.
//
// A run never fails. Every error degrades the result and is logged; the
// caller always receives a report it can render.
package activation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jingkaihe/skillgate/pkg/intent"
	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/presenter"
	"github.com/jingkaihe/skillgate/pkg/resolver"
	"github.com/jingkaihe/skillgate/pkg/security"
	"github.com/jingkaihe/skillgate/pkg/selection"
	"github.com/jingkaihe/skillgate/pkg/skills"
	"github.com/jingkaihe/skillgate/pkg/state"
	"github.com/jingkaihe/skillgate/pkg/telemetry"
	intenttypes "github.com/jingkaihe/skillgate/pkg/types/intent"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Options locates the run's inputs and bounds its work.
type Options struct {
	RulesPath  string
	SkillsBase string
	StateDir   string
	Limits     selection.Limits
	// Timeout bounds the classifier call. Zero means no bound beyond ctx.
	Timeout time.Duration
}

// Engine wires the pipeline stages together.
type Engine struct {
	analyzer intent.Analyzer
	content  *skills.ContentLoader
	store    *state.Store
	opts     Options
}

// NewEngine creates an Engine that classifies prompts with analyzer.
func NewEngine(analyzer intent.Analyzer, opts Options) *Engine {
	return &Engine{
		analyzer: analyzer,
		content:  skills.NewContentLoader(opts.SkillsBase),
		store:    state.NewStore(opts.StateDir),
		opts:     opts,
	}
}

// Run processes one prompt and returns what should be shown to the
// assistant.
func (e *Engine) Run(ctx context.Context, in HookInput) presenter.ActivationReport {
	stateID := in.StateID()
	ctx = logger.WithFields(ctx, logrus.Fields{"session_id": stateID})
	log := logger.G(ctx)

	var report presenter.ActivationReport
	if strings.TrimSpace(in.Prompt) == "" {
		log.Debug("empty prompt, nothing to activate")
		return report
	}

	catalog, err := e.loadCatalog(ctx)
	if err != nil {
		log.WithError(err).Warn("skill catalog unavailable, skipping activation")
		return report
	}
	if catalog.Len() == 0 {
		log.Debug("skill catalog is empty")
		return report
	}

	analysis, err := e.analyze(ctx, in.Prompt, catalog)
	if err != nil {
		if notice := classifierNotice(err); notice != "" {
			report.Notices = append(report.Notices, notice)
		}
		log.WithError(err).Warn("intent classification failed, skipping injection")
		return report
	}

	required := known(analysis.Required, catalog)
	suggested := known(analysis.Suggested, catalog)
	log.WithField("primary_intent", analysis.PrimaryIntent).
		WithField("required", required).
		WithField("suggested", suggested).
		WithField("scores", analysis.Scores).
		Debug("intent analysis")
	if len(required) == 0 && len(suggested) == 0 {
		return report
	}
	report.Matched = true
	report.Scores = analysis.Scores

	acknowledged := e.acknowledged(ctx, stateID)

	result := selection.Filter(required, suggested, acknowledged, catalog, e.opts.Limits)
	affinity := selection.FindAffinity(result.ToInject, acknowledged, catalog)
	log.WithField("to_inject", result.ToInject).
		WithField("promoted", result.Promoted).
		WithField("remaining_suggested", result.RemainingSuggested).
		WithField("affinity", affinity).
		Debug("filtration")

	requested := append(append([]string{}, result.ToInject...), affinity...)
	var order []string
	if len(requested) > 0 {
		order = e.resolve(ctx, requested, catalog, &report)
	}
	report.Loaded = e.load(ctx, order, &report)

	report.Required = result.ToInject
	report.Promoted = result.Promoted
	report.Affinity = affinity
	report.AlreadyLoaded = alreadyLoaded(required, suggested, acknowledged)
	report.Recommended = result.RemainingSuggested
	report.Manual = result.Manual

	e.record(ctx, stateID, report.LoadedNames())
	return report
}

func (e *Engine) loadCatalog(ctx context.Context) (*skills.Catalog, error) {
	var catalog *skills.Catalog
	err := telemetry.WithSpan(ctx, "activation.catalog", func(ctx context.Context) error {
		var err error
		catalog, err = skills.LoadCatalog(ctx, e.opts.RulesPath)
		if err == nil {
			telemetry.SetAttributes(ctx, attribute.Int("catalog.size", catalog.Len()))
		}
		return err
	}, attribute.String("catalog.path", e.opts.RulesPath))
	return catalog, err
}

func (e *Engine) analyze(ctx context.Context, prompt string, catalog *skills.Catalog) (intenttypes.Analysis, error) {
	if e.analyzer == nil {
		return intenttypes.Analysis{}, errors.New("no intent analyzer configured")
	}
	var analysis intenttypes.Analysis
	err := telemetry.WithSpan(ctx, "activation.classify", func(ctx context.Context) error {
		if e.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
			defer cancel()
		}
		var err error
		analysis, err = e.analyzer.Analyze(ctx, prompt, catalog)
		return err
	})
	return analysis, err
}

func (e *Engine) acknowledged(ctx context.Context, stateID string) map[string]bool {
	log := logger.G(ctx)
	if stateID == "" {
		log.Debug("no session id, treating acknowledged skills as empty")
		return map[string]bool{}
	}
	st, err := e.store.Read(stateID)
	if err != nil {
		log.WithError(err).Warn("failed to read session state, treating acknowledged skills as empty")
		return map[string]bool{}
	}
	log.WithField("acknowledged", st.Acknowledged).Debug("session state")
	return st.AcknowledgedSet()
}

func (e *Engine) resolve(ctx context.Context, requested []string, catalog *skills.Catalog, report *presenter.ActivationReport) []string {
	var outcome resolver.Outcome
	telemetry.WithSpanFunc(ctx, "activation.resolve", func(ctx context.Context) {
		outcome = resolver.ResolveAcyclic(requested, catalog)
		for _, cycle := range outcome.Cycles {
			telemetry.RecordError(ctx, cycle)
		}
	}, attribute.Int("requested", len(requested)))

	log := logger.G(ctx)
	for _, cycle := range outcome.Cycles {
		log.WithError(cycle).Warn("dependency cycle in skill catalog")
	}
	if len(outcome.Dropped) > 0 {
		log.WithField("dropped", outcome.Dropped).Warn("skipping skills that depend on a cycle")
		report.Notices = append(report.Notices, fmt.Sprintf(
			"skipped %s: %s", strings.Join(outcome.Dropped, ", "), outcome.Cycles[0].Error()))
	}
	log.WithField("order", outcome.Order).Debug("dependency resolution")
	return outcome.Order
}

// load reads each skill in order, dropping any that fail the name or path
// checks or cannot be read.
func (e *Engine) load(ctx context.Context, order []string, report *presenter.ActivationReport) []presenter.LoadedSkill {
	log := logger.G(ctx)
	var loaded []presenter.LoadedSkill
	for _, name := range order {
		var content string
		err := telemetry.WithSpan(ctx, "activation.load", func(context.Context) error {
			var err error
			content, err = e.content.Load(name)
			return err
		}, attribute.String("skill", name))
		if err != nil {
			var violation *security.Violation
			if errors.As(err, &violation) {
				log.WithError(err).WithField("skill", name).Warn("security check rejected skill")
			} else {
				log.WithError(err).WithField("skill", name).Warn("failed to load skill")
			}
			report.Notices = append(report.Notices, fmt.Sprintf("skipped %s: %v", name, err))
			continue
		}
		log.WithField("skill", name).WithField("chars", len(content)).Debug("injecting skill")
		loaded = append(loaded, presenter.LoadedSkill{Name: name, Content: content})
	}
	return loaded
}

func (e *Engine) record(ctx context.Context, stateID string, injected []string) {
	if len(injected) == 0 {
		return
	}
	log := logger.G(ctx)
	if stateID == "" {
		log.Debug("no session id, injected skills not recorded")
		return
	}
	if _, err := e.store.Record(stateID, injected); err != nil {
		log.WithError(err).Warn("failed to record injected skills")
	}
}

// known keeps names that are in the catalog and pass name validation.
func known(names []string, catalog *skills.Catalog) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if catalog.Has(name) && security.ValidateName(name) {
			out = append(out, name)
		}
	}
	return out
}

func alreadyLoaded(required, suggested []string, acknowledged map[string]bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, name := range append(append([]string{}, required...), suggested...) {
		if acknowledged[name] && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// classifierNotice returns the banner line for a classification failure.
// A missing credential is an expected setup state and stays in the log.
func classifierNotice(err error) string {
	var ce *intent.ClassifierError
	if !errors.As(err, &ce) {
		return "intent classification unavailable"
	}
	switch ce.Reason {
	case intent.ReasonCredential:
		return ""
	case intent.ReasonParse:
		return "intent classification returned an unreadable response"
	default:
		return "intent classification unavailable"
	}
}
