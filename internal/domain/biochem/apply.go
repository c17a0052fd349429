package biochem

import (
	"regexp"
	"sort"
	"strings"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

// Base IDs already in the target namespace translate to themselves, so
// applying a translation twice is a no-op.
var (
	msCompoundIDPattern = regexp.MustCompile(`^cpd\d{5}$`)
	msReactionIDPattern = regexp.MustCompile(`^rxn\d{5}$`)
)

// DefaultOrganismIndices maps model-reaction ID prefixes to the compartment
// index used in rewritten reaction IDs. Community models tag each member's
// reactions with a prefix; the index keeps the members apart after both are
// translated into the shared namespace.
var DefaultOrganismIndices = map[string]string{
	"ANME": "1",
	"SRB":  "2",
}

// ApplyReport summarizes what an Apply pass changed.
type ApplyReport struct {
	CompoundsTranslated   int
	CompoundsTotal        int
	ReactionsTranslated   int
	ReactionsTotal        int
	UntranslatedCompounds []string
	UntranslatedReactions []string
	SkippedCompounds      []string
	SkippedReactions      []string
}

// CompoundFraction is the share of metabolites renamed.
func (r *ApplyReport) CompoundFraction() float64 {
	if r.CompoundsTotal == 0 {
		return 0
	}
	return float64(r.CompoundsTranslated) / float64(r.CompoundsTotal)
}

// ReactionFraction is the share of non-utility reactions renamed.
func (r *ApplyReport) ReactionFraction() float64 {
	if r.ReactionsTotal == 0 {
		return 0
	}
	return float64(r.ReactionsTranslated) / float64(r.ReactionsTotal)
}

// Applier rewrites a model's identifiers from a committed Translation. It
// renames only; stoichiometry, bounds and gene rules are never touched.
type Applier struct {
	log             logging.Logger
	organismIndices map[string]string
}

// ApplierOption configures an Applier.
type ApplierOption func(*Applier)

// WithOrganismIndices overrides the prefix-to-index table.
func WithOrganismIndices(indices map[string]string) ApplierOption {
	return func(a *Applier) { a.organismIndices = indices }
}

// NewApplier builds an Applier.
func NewApplier(log logging.Logger, opts ...ApplierOption) *Applier {
	if log == nil {
		log = logging.NewNop()
	}
	a := &Applier{log: log, organismIndices: DefaultOrganismIndices}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// compoundTargetID derives the rewritten metabolite ID: the database
// compound plus the compartment in ModelSEED underscore form. ParseID has
// already normalized the compartment to its single-letter code.
func compoundTargetID(msID string, parsed ParsedID) string {
	return msID + "_" + parsed.Compartment + "0"
}

// Apply renames every translated metabolite and reaction in place and
// reports coverage. Renames that would collide, either with an existing ID
// or with another rename targeting the same ID, are skipped with a warning
// rather than guessed at.
func (a *Applier) Apply(model *Model, tr *Translation) *ApplyReport {
	report := &ApplyReport{}
	a.applyCompounds(model, tr, report)
	a.applyReactions(model, tr, report)
	sort.Strings(report.UntranslatedCompounds)
	sort.Strings(report.UntranslatedReactions)
	a.log.Info("translation applied",
		logging.Int("compounds_renamed", report.CompoundsTranslated),
		logging.Int("compounds_total", report.CompoundsTotal),
		logging.Int("reactions_renamed", report.ReactionsTranslated),
		logging.Int("reactions_total", report.ReactionsTotal))
	return report
}

func (a *Applier) applyCompounds(model *Model, tr *Translation, report *ApplyReport) {
	report.CompoundsTotal = len(model.Metabolites())

	// First pass: detect renames landing on the same target, which would
	// silently merge two distinct metabolites.
	targets := map[string][]*Metabolite{}
	translated := map[*Metabolite]string{}
	for _, met := range model.Metabolites() {
		parsed := ParseID(met.ID, a.log)
		msID, ok := tr.Compounds[met.ID]
		if !ok {
			msID, ok = tr.Compounds[parsed.Base]
		}
		if !ok && msCompoundIDPattern.MatchString(parsed.Base) {
			msID, ok = parsed.Base, true
		}
		if !ok {
			report.UntranslatedCompounds = append(report.UntranslatedCompounds, met.ID)
			continue
		}
		target := compoundTargetID(msID, parsed)
		targets[target] = append(targets[target], met)
		translated[met] = target
	}

	for _, met := range model.Metabolites() {
		target, ok := translated[met]
		if !ok {
			continue
		}
		comp := ParseID(met.ID, a.log).Compartment
		if met.ID == target {
			met.Compartment = comp
			report.CompoundsTranslated++
			continue
		}
		// When several metabolites map to one target, the first claimant
		// wins the rename and the rest are skipped.
		if len(targets[target]) > 1 && met != targets[target][0] {
			a.log.Warn("compound rename skipped, target already claimed by another metabolite",
				logging.String("id", met.ID), logging.String("target", target))
			report.SkippedCompounds = append(report.SkippedCompounds, met.ID)
			continue
		}
		if model.HasMetabolite(target) {
			a.log.Warn("compound rename skipped, target ID already in model",
				logging.String("id", met.ID), logging.String("target", target))
			report.SkippedCompounds = append(report.SkippedCompounds, met.ID)
			continue
		}
		if err := model.RenameMetabolite(met, target); err != nil {
			a.log.Warn("compound rename failed",
				logging.String("id", met.ID), logging.Error(err))
			report.SkippedCompounds = append(report.SkippedCompounds, met.ID)
			continue
		}
		met.Compartment = comp
		report.CompoundsTranslated++
	}
}

// organismIndex resolves the compartment index from the reaction's original
// ID prefix, defaulting to "0" for single-organism models.
func (a *Applier) organismIndex(rxnID string) string {
	for prefix, idx := range a.organismIndices {
		if strings.HasPrefix(rxnID, prefix) {
			return idx
		}
	}
	return "0"
}

// primaryCompartment picks the compartment for a rewritten reaction ID:
// cytosol when the reaction touches it, otherwise the reaction's only
// compartment. Multi-compartment reactions away from cytosol fall back to
// cytosol as well.
func primaryCompartment(rxn *Reaction, log logging.Logger) string {
	comps := map[string]bool{}
	for _, met := range rxn.SortedMetabolites() {
		comps[ParseID(met.ID, log).Compartment] = true
	}
	if len(comps) == 1 && !comps["c"] {
		for comp := range comps {
			return comp
		}
	}
	return "c"
}

func (a *Applier) applyReactions(model *Model, tr *Translation, report *ApplyReport) {
	for _, rxn := range model.Reactions() {
		if IsUtilityReaction(rxn.ID) {
			continue
		}
		report.ReactionsTotal++
		msID, ok := tr.Reactions[rxn.ID]
		if !ok {
			if base := ParseID(rxn.ID, logging.NewNop()).Base; msReactionIDPattern.MatchString(base) {
				msID, ok = base, true
			}
		}
		if !ok {
			report.UntranslatedReactions = append(report.UntranslatedReactions, rxn.ID)
			continue
		}
		target := msID + "_" + primaryCompartment(rxn, a.log) + a.organismIndex(rxn.ID)
		if rxn.ID == target {
			report.ReactionsTranslated++
			continue
		}
		if model.HasReaction(target) {
			a.log.Warn("reaction rename skipped, target ID already in model",
				logging.String("id", rxn.ID), logging.String("target", target))
			report.SkippedReactions = append(report.SkippedReactions, rxn.ID)
			continue
		}
		if err := model.RenameReaction(rxn, target); err != nil {
			a.log.Warn("reaction rename failed",
				logging.String("id", rxn.ID), logging.Error(err))
			report.SkippedReactions = append(report.SkippedReactions, rxn.ID)
			continue
		}
		report.ReactionsTranslated++
	}
}
