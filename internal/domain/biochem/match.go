package biochem

import (
	"sort"
	"strings"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

// ecAnnotationKeys are the annotation namespaces carrying EC numbers rather
// than identifiers.
var ecAnnotationKeys = map[string]bool{"ec-code": true, "ec": true, "ec_number": true}

// Matcher matches one model's compounds and reactions against a
// biochemistry database. The database handle, the optional template filter
// and the optional gene-assignment context are injected at construction; a
// Matcher holds no mutable state and is safe for concurrent use.
type Matcher struct {
	db       *Database
	template *Template
	// reactionGenes maps database reaction IDs to the genes functionally
	// assigned to them in the organism's annotation, when available.
	reactionGenes map[string][]string
	annotateModel bool
	log           logging.Logger
}

// MatcherOption configures optional Matcher context.
type MatcherOption func(*Matcher)

// WithTemplate narrows candidates to template members whenever doing so
// leaves at least one candidate.
func WithTemplate(tpl *Template) MatcherOption {
	return func(m *Matcher) { m.template = tpl }
}

// WithReactionGenes supplies per-reaction gene assignments for
// annotation-overlap scoring.
func WithReactionGenes(genes map[string][]string) MatcherOption {
	return func(m *Matcher) { m.reactionGenes = genes }
}

// WithModelAnnotation makes MatchCompounds record each metabolite's candidate
// database IDs in its annotation map under the "ModelSEED" namespace.
func WithModelAnnotation() MatcherOption {
	return func(m *Matcher) { m.annotateModel = true }
}

// NewMatcher builds a Matcher over db.
func NewMatcher(db *Database, log logging.Logger, opts ...MatcherOption) *Matcher {
	if log == nil {
		log = logging.NewNop()
	}
	m := &Matcher{db: db, log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// compoundQuery collects the alias, structure and formula evidence for one
// base compound across all its compartment copies.
type compoundQuery struct {
	identifiers []string
	structures  []string
	formula     string
	seen        map[string]bool
}

func (q *compoundQuery) addIdentifier(v string) {
	if v == "" || q.seen["i:"+v] {
		return
	}
	q.seen["i:"+v] = true
	q.identifiers = append(q.identifiers, v)
}

func (q *compoundQuery) addStructure(v string) {
	if v == "" || q.seen["s:"+v] {
		return
	}
	q.seen["s:"+v] = true
	q.structures = append(q.structures, v)
}

// MatchCompounds searches the database for every metabolite in the model
// and returns candidates keyed by base compound ID. Compartment copies of
// the same compound pool their evidence and share one candidate set.
func (m *Matcher) MatchCompounds(model *Model) map[string]CompoundMatches {
	queries := map[string]*compoundQuery{}
	var order []string
	for _, met := range model.Metabolites() {
		base := ParseID(met.ID, m.log).Base
		q, ok := queries[base]
		if !ok {
			q = &compoundQuery{seen: map[string]bool{}}
			queries[base] = q
			order = append(order, base)
		}
		q.addIdentifier(base)
		q.addIdentifier(met.Name)
		for ns, values := range met.Annotation {
			structural := structureNamespaces[strings.ToLower(ns)]
			for _, v := range values {
				if structural {
					q.addStructure(v)
				} else {
					q.addIdentifier(v)
				}
			}
		}
		if q.formula == "" {
			q.formula = met.Formula
		}
	}

	results := make(map[string]CompoundMatches, len(queries))
	for _, base := range order {
		q := queries[base]
		matches := m.db.SearchCompounds(q.identifiers, q.structures, q.formula)
		m.applyCompoundTemplate(base, matches)
		results[base] = matches
	}
	if m.annotateModel {
		m.annotateMetabolites(model, results)
	}
	m.log.Info("compound matching complete",
		logging.Int("compounds", len(results)),
		logging.Int("matched", countNonEmptyCompounds(results)))
	return results
}

// annotateMetabolites writes each metabolite's candidate database IDs back
// into the model under the "ModelSEED" annotation namespace, in descending
// score order.
func (m *Matcher) annotateMetabolites(model *Model, results map[string]CompoundMatches) {
	for _, met := range model.Metabolites() {
		matches := results[ParseID(met.ID, m.log).Base]
		if len(matches) == 0 {
			continue
		}
		ids := make([]string, 0, len(matches))
		for id := range matches {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if matches[ids[i]].Score != matches[ids[j]].Score {
				return matches[ids[i]].Score > matches[ids[j]].Score
			}
			return ids[i] < ids[j]
		})
		if met.Annotation == nil {
			met.Annotation = map[string][]string{}
		}
		met.Annotation["ModelSEED"] = ids
	}
}

func countNonEmptyCompounds(results map[string]CompoundMatches) int {
	n := 0
	for _, matches := range results {
		if len(matches) > 0 {
			n++
		}
	}
	return n
}

// applyCompoundTemplate drops candidates outside the template, unless that
// would leave the compound with no candidates at all. A wrong-but-present
// candidate list beats an empty one for downstream equation matching.
func (m *Matcher) applyCompoundTemplate(base string, matches CompoundMatches) {
	if m.template == nil || len(matches) == 0 {
		return
	}
	inTemplate := 0
	for id := range matches {
		if m.template.HasCompound(id) {
			inTemplate++
		}
	}
	if inTemplate == 0 || inTemplate == len(matches) {
		return
	}
	for id := range matches {
		if !m.template.HasCompound(id) {
			delete(matches, id)
		}
	}
	m.log.Debug("template filter applied to compound candidates",
		logging.String("compound", base), logging.Int("kept", inTemplate))
}

// MatchReactions searches the database for every non-utility reaction in
// the model, using cpdCandidates (typically the output of MatchCompounds,
// refined by any committed translations) as the equation context. Results
// are keyed by the model reaction ID.
func (m *Matcher) MatchReactions(model *Model, cpdCandidates map[string]CompoundMatches) map[string]ReactionMatches {
	results := map[string]ReactionMatches{}
	for _, rxn := range model.Reactions() {
		if IsUtilityReaction(rxn.ID) {
			continue
		}
		results[rxn.ID] = m.matchReaction(rxn, cpdCandidates)
	}
	m.log.Info("reaction matching complete",
		logging.Int("reactions", len(results)),
		logging.Int("matched", countNonEmptyReactions(results)))
	return results
}

func countNonEmptyReactions(results map[string]ReactionMatches) int {
	n := 0
	for _, matches := range results {
		if len(matches) > 0 {
			n++
		}
	}
	return n
}

func (m *Matcher) matchReaction(rxn *Reaction, cpdCandidates map[string]CompoundMatches) ReactionMatches {
	var identifiers, ecNumbers []string
	seen := map[string]bool{}
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		if _, ok := NormalizeEC(v); ok {
			ecNumbers = append(ecNumbers, v)
			return
		}
		identifiers = append(identifiers, v)
	}
	add(ParseID(rxn.ID, m.log).Base)
	add(rxn.Name)
	for ns, values := range rxn.Annotation {
		if ecAnnotationKeys[strings.ToLower(ns)] {
			for _, v := range values {
				if _, ok := NormalizeEC(v); ok && !seen[v] {
					seen[v] = true
					ecNumbers = append(ecNumbers, v)
				}
			}
			continue
		}
		for _, v := range values {
			add(v)
		}
	}

	matches := m.db.SearchReactions(ReactionQuery{
		Identifiers: identifiers,
		ECNumbers:   ecNumbers,
		Stoich:      ParseStoichiometry(rxn),
		Candidates:  cpdCandidates,
	})
	m.scoreGenes(rxn, matches)
	m.applyReactionTemplate(rxn.ID, matches)
	return matches
}

// scoreGenes folds annotation gene overlap into each candidate's score.
func (m *Matcher) scoreGenes(rxn *Reaction, matches ReactionMatches) {
	if m.reactionGenes == nil || len(rxn.Genes) == 0 {
		return
	}
	modelGenes := make([]string, 0, len(rxn.Genes))
	for _, g := range rxn.Genes {
		modelGenes = append(modelGenes, g.ID)
	}
	for id, cand := range matches {
		target, ok := m.reactionGenes[id]
		if !ok {
			continue
		}
		cand.GeneScore = ScoreGeneOverlap(modelGenes, target)
		cand.Score += cand.GeneScore
	}
}

func (m *Matcher) applyReactionTemplate(rxnID string, matches ReactionMatches) {
	if m.template == nil || len(matches) == 0 {
		return
	}
	inTemplate := 0
	for id := range matches {
		if m.template.HasReaction(id) {
			inTemplate++
		}
	}
	if inTemplate == 0 || inTemplate == len(matches) {
		return
	}
	for id := range matches {
		if !m.template.HasReaction(id) {
			delete(matches, id)
		}
	}
	m.log.Debug("template filter applied to reaction candidates",
		logging.String("reaction", rxnID), logging.Int("kept", inTemplate))
}

// RankedReactionCandidates returns a reaction's candidates ordered by
// descending score with ID tie-break, for reporting.
func RankedReactionCandidates(matches ReactionMatches) []*ReactionCandidate {
	out := make([]*ReactionCandidate, 0, len(matches))
	for _, cand := range matches {
		out = append(out, cand)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}
