// Package standardize orchestrates model standardization: loading a model,
// translating it into the ModelSEED namespace, applying the translation and
// reporting coverage. Business rules live in the domain layer; this layer
// wires them together.
package standardize

import (
	"context"
	"sort"

	"github.com/modelseed/kbutil/internal/config"
	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/internal/infrastructure/logging"
	"github.com/modelseed/kbutil/internal/infrastructure/metrics"
	"github.com/modelseed/kbutil/pkg/errors"
)

// MatchStats summarizes one standardization run for reporting.
type MatchStats struct {
	CompoundsWithCandidates int                `json:"compounds_with_candidates"`
	CompoundsCommitted      int                `json:"compounds_committed"`
	ReactionsCommitted      int                `json:"reactions_committed"`
	MatchTypes              map[string]int     `json:"match_types"`
	CompoundFraction        float64            `json:"compound_fraction"`
	ReactionFraction        float64            `json:"reaction_fraction"`
	UntranslatedCompounds   []string           `json:"untranslated_compounds,omitempty"`
	UntranslatedReactions   []string           `json:"untranslated_reactions,omitempty"`
}

// Result bundles everything a standardization run produced.
type Result struct {
	Translation *biochem.Translation
	Report      *biochem.ApplyReport
	Stats       MatchStats
}

// Service runs the standardization pipeline over models. All collaborators
// are injected at construction.
type Service struct {
	db       *biochem.Database
	template *biochem.Template
	cfg      config.BiochemConfig
	metrics  *metrics.Metrics
	log      logging.Logger
}

// NewService builds a standardization Service. template and metrics may be
// nil.
func NewService(db *biochem.Database, template *biochem.Template, cfg config.BiochemConfig, m *metrics.Metrics, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{db: db, template: template, cfg: cfg, metrics: m, log: log}
}

// Standardize translates the model into the database namespace, rewrites its
// identifiers in place and returns the translation with coverage statistics.
func (s *Service) Standardize(ctx context.Context, model *biochem.Model) (*Result, error) {
	if model == nil {
		return nil, errors.New(errors.ErrCodeModelInvalid, "no model supplied")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTranslationFailed, "standardization cancelled")
	}
	log := s.log.With(logging.String("model", model.ID))

	matcherOpts := []biochem.MatcherOption{biochem.WithTemplate(s.template)}
	if s.cfg.AnnotateModel {
		matcherOpts = append(matcherOpts, biochem.WithModelAnnotation())
	}
	matcher := biochem.NewMatcher(s.db, log, matcherOpts...)
	opts := []biochem.TranslatorOption{biochem.WithMaxIterations(s.cfg.MaxIterations)}
	if s.cfg.RemovePeriplasm {
		opts = append(opts, biochem.WithPeriplasmRemoval())
	}
	translator := biochem.NewTranslator(matcher, log, opts...)

	tr, err := translator.Translate(model)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeTranslationFailed, "translating model %s", model.ID)
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTranslationFailed, "standardization cancelled")
	}

	applier := biochem.NewApplier(log, biochem.WithOrganismIndices(s.cfg.OrganismIndices))
	report := applier.Apply(model, tr)

	result := &Result{Translation: tr, Report: report, Stats: buildStats(tr, report)}
	if s.metrics != nil {
		s.metrics.ObserveStandardization(model.ID, report)
	}
	log.Info("model standardized",
		logging.Int("compounds_committed", result.Stats.CompoundsCommitted),
		logging.Int("reactions_committed", result.Stats.ReactionsCommitted),
		logging.Float64("reaction_fraction", result.Stats.ReactionFraction))
	return result, nil
}

// Compare matches the (typically already standardized) model against a
// reference model in the same namespace.
func (s *Service) Compare(ctx context.Context, model, reference *biochem.Model) (*biochem.ModelComparison, error) {
	if model == nil || reference == nil {
		return nil, errors.New(errors.ErrCodeModelInvalid, "both model and reference are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTranslationFailed, "comparison cancelled")
	}
	matcher := biochem.NewMatcher(s.db, s.log, biochem.WithTemplate(s.template))
	return biochem.NewComparator(matcher, s.log).Compare(model, reference), nil
}

func buildStats(tr *biochem.Translation, report *biochem.ApplyReport) MatchStats {
	stats := MatchStats{
		ReactionsCommitted:    len(tr.Reactions),
		MatchTypes:            map[string]int{},
		CompoundFraction:      report.CompoundFraction(),
		ReactionFraction:      report.ReactionFraction(),
		UntranslatedCompounds: report.UntranslatedCompounds,
		UntranslatedReactions: report.UntranslatedReactions,
	}
	for base, matches := range tr.CompoundCandidates {
		if len(matches) > 0 {
			stats.CompoundsWithCandidates++
		}
		if _, ok := tr.Compounds[base]; ok {
			stats.CompoundsCommitted++
		}
	}
	for _, matchType := range tr.ReactionMatchTypes {
		stats.MatchTypes[matchType]++
	}
	sort.Strings(stats.UntranslatedCompounds)
	sort.Strings(stats.UntranslatedReactions)
	return stats
}
