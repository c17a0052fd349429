package biochem

import (
	"sort"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

// defaultMaxIterations bounds the translation fixed-point loop. Each
// iteration commits at least one new translation or the loop stops, so the
// cap only guards against pathological inputs.
const defaultMaxIterations = 10

// Translation is the two-phase result of namespace translation: candidate
// evidence on one side, committed decisions on the other. Committed entries
// are write-once; a later iteration can add decisions but never overturn
// one.
type Translation struct {
	// CompoundCandidates holds the surviving candidates per base compound.
	CompoundCandidates map[string]CompoundMatches
	// ReactionCandidates holds the last-computed candidates per model
	// reaction, committed or not, for reporting.
	ReactionCandidates map[string]ReactionMatches

	// Compounds maps model compound IDs to database compounds. Both the
	// full metabolite ID and its compartment-free base appear as keys so
	// callers can resolve either form.
	Compounds map[string]string
	// Reactions maps model reaction IDs to database reactions.
	Reactions map[string]string
	// ReactionMatchTypes records how each committed reaction was selected.
	ReactionMatchTypes map[string]string
}

func newTranslation() *Translation {
	return &Translation{
		CompoundCandidates: map[string]CompoundMatches{},
		ReactionCandidates: map[string]ReactionMatches{},
		Compounds:          map[string]string{},
		Reactions:          map[string]string{},
		ReactionMatchTypes: map[string]string{},
	}
}

// CommitCompound records a compound decision. The first decision for a key
// wins; a conflicting later one is rejected.
func (t *Translation) CommitCompound(key, cpdID string) bool {
	if prior, ok := t.Compounds[key]; ok {
		return prior == cpdID
	}
	t.Compounds[key] = cpdID
	return true
}

// CommitReaction records a reaction decision, first writer wins.
func (t *Translation) CommitReaction(rxnID, msID, matchType string) bool {
	if prior, ok := t.Reactions[rxnID]; ok {
		return prior == msID
	}
	t.Reactions[rxnID] = msID
	t.ReactionMatchTypes[rxnID] = matchType
	return true
}

// Translator runs the iterative namespace-translation loop over a model.
// All collaborators are injected; the Translator itself holds no state
// between calls.
type Translator struct {
	matcher         *Matcher
	log             logging.Logger
	maxIterations   int
	removePeriplasm bool
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

// WithMaxIterations overrides the iteration cap.
func WithMaxIterations(n int) TranslatorOption {
	return func(t *Translator) {
		if n > 0 {
			t.maxIterations = n
		}
	}
}

// WithPeriplasmRemoval merges periplasmic compounds into the extracellular
// compartment before matching. Models from two-compartment pipelines often
// have a spurious periplasm that blocks transport matching.
func WithPeriplasmRemoval() TranslatorOption {
	return func(t *Translator) { t.removePeriplasm = true }
}

// NewTranslator builds a Translator using matcher for candidate generation.
func NewTranslator(matcher *Matcher, log logging.Logger, opts ...TranslatorOption) *Translator {
	if log == nil {
		log = logging.NewNop()
	}
	t := &Translator{matcher: matcher, log: log, maxIterations: defaultMaxIterations}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate matches the model's compounds once, then alternates between
// committing unambiguous compound translations and resolving perfect
// reaction matches until a pass commits nothing new. Reaction commits feed
// their implied compound translations back into the next pass, which is what
// lets an ambiguous compound be settled by the company it keeps.
func (t *Translator) Translate(model *Model) (*Translation, error) {
	if t.removePeriplasm {
		RemovePeriplasm(model, t.log)
	}

	tr := newTranslation()
	tr.CompoundCandidates = t.matcher.MatchCompounds(model)
	for _, matches := range tr.CompoundCandidates {
		matches.PruneFormulaOnly()
	}

	for iter := 1; iter <= t.maxIterations; iter++ {
		committed := t.commitUniqueCompounds(model, tr)
		tr.ReactionCandidates = t.matcher.MatchReactions(model, t.effectiveCandidates(tr))
		committed += t.resolveReactions(model, tr)

		t.log.Info("translation pass complete",
			logging.Int("iteration", iter),
			logging.Int("new_commits", committed),
			logging.Int("compounds_committed", len(tr.Compounds)),
			logging.Int("reactions_committed", len(tr.Reactions)))
		if committed == 0 {
			break
		}
	}
	return tr, nil
}

// effectiveCandidates narrows each committed compound's candidate set to its
// committed translation so reaction matching stops considering alternatives.
func (t *Translator) effectiveCandidates(tr *Translation) map[string]CompoundMatches {
	out := make(map[string]CompoundMatches, len(tr.CompoundCandidates))
	for base, matches := range tr.CompoundCandidates {
		if cpdID, ok := tr.Compounds[base]; ok {
			cand, present := matches[cpdID]
			if !present {
				cand = &CompoundCandidate{ID: cpdID}
			}
			out[base] = CompoundMatches{cpdID: cand}
			continue
		}
		out[base] = matches
	}
	return out
}

// commitUniqueCompounds commits every base compound whose candidates reduce
// to a single strong (identifier- or structure-backed) option. Formula-only
// candidates never commit on their own.
func (t *Translator) commitUniqueCompounds(model *Model, tr *Translation) int {
	bases := make([]string, 0, len(tr.CompoundCandidates))
	for base := range tr.CompoundCandidates {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	committed := 0
	for _, base := range bases {
		if _, done := tr.Compounds[base]; done {
			continue
		}
		strong := tr.CompoundCandidates[base].StrongCandidates()
		if len(strong) != 1 {
			continue
		}
		t.commitCompound(model, tr, base, strong[0].ID)
		committed++
	}
	return committed
}

// commitCompound records a base-compound decision under both the base key
// and every metabolite ID sharing that base.
func (t *Translator) commitCompound(model *Model, tr *Translation, base, cpdID string) {
	if !tr.CommitCompound(base, cpdID) {
		t.log.Warn("conflicting compound translation rejected",
			logging.String("compound", base),
			logging.String("existing", tr.Compounds[base]),
			logging.String("rejected", cpdID))
		return
	}
	for _, met := range model.Metabolites() {
		if ParseID(met.ID, t.log).Base == base {
			tr.CommitCompound(met.ID, cpdID)
		}
	}
	t.log.Debug("compound translation committed",
		logging.String("compound", base), logging.String("ms_id", cpdID))
}

// resolveReactions commits perfect reaction matches and the compound
// translations they imply.
func (t *Translator) resolveReactions(model *Model, tr *Translation) int {
	rxnIDs := make([]string, 0, len(tr.ReactionCandidates))
	for rxnID := range tr.ReactionCandidates {
		rxnIDs = append(rxnIDs, rxnID)
	}
	sort.Strings(rxnIDs)

	committed := 0
	for _, rxnID := range rxnIDs {
		if _, done := tr.Reactions[rxnID]; done {
			continue
		}
		pm := CheckForPerfectMatches(tr.ReactionCandidates[rxnID], tr.Compounds, t.matcher.template)
		if pm == nil {
			continue
		}
		tr.CommitReaction(rxnID, pm.ReactionID, pm.Type)
		committed++
		t.log.Debug("reaction translation committed",
			logging.String("reaction", rxnID),
			logging.String("ms_id", pm.ReactionID),
			logging.String("match_type", pm.Type))

		if pm.Candidate.Equation == nil {
			continue
		}
		for base, cpdID := range pm.Candidate.Equation.ImpliedTranslations {
			if prior, ok := tr.Compounds[base]; ok {
				if prior != cpdID {
					t.log.Warn("implied compound translation conflicts with committed one",
						logging.String("compound", base),
						logging.String("committed", prior),
						logging.String("implied", cpdID),
						logging.String("reaction", rxnID))
				}
				continue
			}
			t.commitCompound(model, tr, base, cpdID)
			committed++
			// Narrow the candidate set to the committed translation.
			if matches, ok := tr.CompoundCandidates[base]; ok {
				for id := range matches {
					if id != cpdID {
						delete(matches, id)
					}
				}
				if _, present := matches[cpdID]; !present {
					matches[cpdID] = &CompoundCandidate{ID: cpdID}
				}
			}
		}
	}
	return committed
}

// RemovePeriplasm folds periplasmic metabolites into the extracellular
// compartment. When an extracellular counterpart exists the periplasmic
// copy is merged into it, otherwise the metabolite itself is moved. Pure
// periplasm-to-extracellular shuttles collapse to nothing and are removed.
func RemovePeriplasm(model *Model, log logging.Logger) {
	if log == nil {
		log = logging.NewNop()
	}
	var doomed []*Metabolite
	for _, met := range model.Metabolites() {
		parsed := ParseID(met.ID, log)
		if parsed.Compartment != "p" {
			continue
		}
		targetID := ParsedID{Base: parsed.Base, Compartment: "e", Index: parsed.Index}.Underscore()
		bracketID := ParsedID{Base: parsed.Base, Compartment: "e", Index: parsed.Index}.Bracket()
		target, ok := model.Metabolite(targetID)
		if !ok {
			target, ok = model.Metabolite(bracketID)
		}
		if !ok {
			// No extracellular counterpart: move the metabolite itself.
			newID := targetID
			if err := model.RenameMetabolite(met, newID); err != nil {
				log.Warn("could not move periplasmic metabolite",
					logging.String("id", met.ID), logging.Error(err))
				continue
			}
			met.Compartment = "e"
			continue
		}
		for _, rxn := range model.ReactionsFor(met) {
			coef := rxn.Metabolites[met]
			delete(rxn.Metabolites, met)
			rxn.AddMetabolite(target, coef)
		}
		doomed = append(doomed, met)
	}
	if len(doomed) > 0 {
		model.RemoveMetabolites(doomed)
	}

	var emptied []*Reaction
	for _, rxn := range model.Reactions() {
		if len(rxn.Metabolites) == 0 && !IsUtilityReaction(rxn.ID) {
			emptied = append(emptied, rxn)
		}
	}
	if len(emptied) > 0 {
		ids := make([]string, 0, len(emptied))
		for _, rxn := range emptied {
			ids = append(ids, rxn.ID)
		}
		log.Info("removing reactions emptied by periplasm merge",
			logging.Int("count", len(emptied)), logging.Strings("reactions", ids))
		model.RemoveReactions(emptied)
	}
}
