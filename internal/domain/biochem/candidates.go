package biochem

import "sort"

// Scoring weights for match evidence. One identifier alias in common is
// worth more than a formula coincidence; a structure hit sits in between
// because structure strings are exact but not curated as aggressively as
// ModelSEED aliases.
const (
	scoreIdentifierHit    = 10.0
	scoreStructureHit     = 8.0
	scoreFormulaHeavy     = 2.0
	scoreFormulaHydrogen  = 2.0
	scoreECHit            = 12.0
	scoreEquationCompound = 3.0
	scoreTransportMax     = 10.0
	scoreGeneShared       = 10.0
	scoreGeneModelOnly    = -5.0
	scoreGeneTargetOnly   = -5.0
)

// CompoundCandidate is one database compound proposed for a model
// metabolite, with the evidence channels that produced it.
type CompoundCandidate struct {
	ID    string
	Score float64
	// IdentifierHits maps the alias namespace to the query values that hit.
	IdentifierHits map[string][]string
	// StructureHits maps the structure namespace to the query values that hit.
	StructureHits map[string][]string
	FormulaMatch  bool
	HydrogenMatch bool
}

// HasStrongEvidence reports whether the candidate is backed by identifier
// or structure evidence rather than formula coincidence alone.
func (c *CompoundCandidate) HasStrongEvidence() bool {
	return len(c.IdentifierHits) > 0 || len(c.StructureHits) > 0
}

func (c *CompoundCandidate) addIdentifierHit(hitType, value string) {
	if c.IdentifierHits == nil {
		c.IdentifierHits = map[string][]string{}
	}
	c.IdentifierHits[hitType] = append(c.IdentifierHits[hitType], value)
	c.Score += scoreIdentifierHit
}

func (c *CompoundCandidate) addStructureHit(hitType, value string) {
	if c.StructureHits == nil {
		c.StructureHits = map[string][]string{}
	}
	c.StructureHits[hitType] = append(c.StructureHits[hitType], value)
	c.Score += scoreStructureHit
}

// CompoundMatches maps candidate database compound IDs to their evidence for
// a single model metabolite (keyed by base ID, so compartment copies share
// one entry).
type CompoundMatches map[string]*CompoundCandidate

// Best returns the highest-scoring candidate, with lexicographic ID order
// breaking exact ties so results are deterministic.
func (m CompoundMatches) Best() *CompoundCandidate {
	var best *CompoundCandidate
	for _, cand := range m {
		if best == nil || cand.Score > best.Score ||
			(cand.Score == best.Score && cand.ID < best.ID) {
			best = cand
		}
	}
	return best
}

// StrongCandidates returns the candidates backed by identifier or structure
// evidence, sorted by descending score.
func (m CompoundMatches) StrongCandidates() []*CompoundCandidate {
	var strong []*CompoundCandidate
	for _, cand := range m {
		if cand.HasStrongEvidence() {
			strong = append(strong, cand)
		}
	}
	sort.Slice(strong, func(i, j int) bool {
		if strong[i].Score != strong[j].Score {
			return strong[i].Score > strong[j].Score
		}
		return strong[i].ID < strong[j].ID
	})
	return strong
}

// PruneFormulaOnly removes formula-only candidates whenever at least one
// candidate carries identifier or structure evidence. A formula hit alone is
// too weak to compete once anything better exists, and dropping it early
// keeps the equation matcher from chasing coincidences.
func (m CompoundMatches) PruneFormulaOnly() {
	hasStrong := false
	for _, cand := range m {
		if cand.HasStrongEvidence() {
			hasStrong = true
			break
		}
	}
	if !hasStrong {
		return
	}
	for id, cand := range m {
		if !cand.HasStrongEvidence() {
			delete(m, id)
		}
	}
}

// EquationScore records how well a database reaction's participants line up
// with a model reaction's compounds under the current compound candidates.
type EquationScore struct {
	// Matched counts model base compounds with a candidate present in the
	// database reaction.
	Matched int
	// Total counts the model reaction's base compounds.
	Total int
	// UnmatchedModel lists model base compounds with no counterpart.
	UnmatchedModel []string
	// UnmatchedDB lists database compounds no model compound accounts for.
	UnmatchedDB []string
	// ImpliedTranslations maps model base compounds to the database
	// compound that matched them within this reaction. Committing a
	// reaction match commits these.
	ImpliedTranslations map[string]string
}

// UnmatchedCount is the combined number of uncovered compounds on both sides.
func (e *EquationScore) UnmatchedCount() int {
	return len(e.UnmatchedModel) + len(e.UnmatchedDB)
}

// TransportScore records how well the transported compounds of a model
// reaction line up with a transport database reaction.
type TransportScore struct {
	// Fraction of transported model compounds matched, in [0, 1].
	Fraction float64
	// Count of transported model compounds matched.
	Count int
	// Direction is "same" or "reversed" relative to the database reaction,
	// judged from the sign of the transported coefficients.
	Direction string
	// Unmatched transported model compounds, split by which side of the
	// equation they sit on.
	UnmatchedSubstrates []string
	UnmatchedProducts   []string
}

// Perfect reports a transport alignment with full coverage.
func (t *TransportScore) Perfect() bool {
	return t != nil && t.Fraction >= 1.0 &&
		len(t.UnmatchedSubstrates) == 0 && len(t.UnmatchedProducts) == 0
}

// ReactionCandidate is one database reaction proposed for a model reaction.
type ReactionCandidate struct {
	ID             string
	Score          float64
	IdentifierHits map[string][]string
	ECHits         []string
	Equation       *EquationScore
	Transport      *TransportScore
	// GeneScore is the functional-annotation overlap contribution, filled
	// in by the matcher when gene context is available.
	GeneScore float64
	// ProtonMatch marks equations whose only uncovered compound is a
	// proton, which equation matching forgives.
	ProtonMatch bool
}

func (c *ReactionCandidate) addIdentifierHit(hitType, value string) {
	if c.IdentifierHits == nil {
		c.IdentifierHits = map[string][]string{}
	}
	c.IdentifierHits[hitType] = append(c.IdentifierHits[hitType], value)
	c.Score += scoreIdentifierHit
}

// ReactionMatches maps candidate database reaction IDs to their evidence for
// a single model reaction.
type ReactionMatches map[string]*ReactionCandidate

// ScoreGeneOverlap scores the agreement between a model reaction's genes and
// the genes functionally assigned to a database reaction. Genes with an
// "mRNA" prefix are bookkeeping artifacts of some genome annotations and are
// excluded from both sides.
func ScoreGeneOverlap(modelGenes, targetGenes []string) float64 {
	filter := func(genes []string) map[string]bool {
		out := map[string]bool{}
		for _, g := range genes {
			if len(g) >= 4 && g[0:4] == "mRNA" {
				continue
			}
			out[g] = true
		}
		return out
	}
	model := filter(modelGenes)
	target := filter(targetGenes)
	score := 0.0
	for g := range model {
		if target[g] {
			score += scoreGeneShared
		} else {
			score += scoreGeneModelOnly
		}
	}
	for g := range target {
		if !model[g] {
			score += scoreGeneTargetOnly
		}
	}
	return score
}
