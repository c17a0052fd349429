package biochem

import (
	"sort"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

// Gene agreement classifications for a reaction pair.
const (
	GeneStatusMatch      = "Match"
	GeneStatusExtraModel = "ExtraModel"
	GeneStatusExtraMS    = "ExtraMS"
	GeneStatusExtraBoth  = "ExtraBoth"
	GeneStatusModelOnly  = "ModelOnly"
	GeneStatusMSOnly     = "MSOnly"
	GeneStatusNoGene     = "NoGene"
)

// directionSymbols render a directionality class as the single character
// used in comparison tables.
var directionSymbols = map[string]string{
	"":           "-",
	"forward":    ">",
	"reverse":    "<",
	"reversible": "=",
	"uncertain":  "?",
	"blocked":    "B",
}

// DirectionSymbol returns the table glyph for a directionality class.
func DirectionSymbol(direction string) string {
	if sym, ok := directionSymbols[direction]; ok {
		return sym
	}
	return "?"
}

// ReactionComparison is the verdict for one model reaction against the
// reference model.
type ReactionComparison struct {
	ModelID string
	// BestHit is the selected reference or database reaction, empty when
	// nothing matched.
	BestHit string
	// Tier records which evidence selected the hit: "gene" for annotation
	// overlap, "model" for reference-model membership, "score" for raw
	// match score.
	Tier       string
	Score      float64
	GeneStatus string
	// Direction glyphs for the model reaction and the hit.
	ModelDirection string
	HitDirection   string
}

// ComparisonCounts is a [model, reference, shared] triple.
type ComparisonCounts [3]int

// ModelComparison summarizes how a translated model lines up against a
// reference model in the same namespace.
type ModelComparison struct {
	// Counts holds [model, reference, shared] triples keyed by
	// "compounds", "reactions", "genes", "reaction_genes" and "transport".
	Counts    map[string]ComparisonCounts
	Reactions []ReactionComparison
}

// Comparator compares a model against a reference model, using a Matcher
// for reactions that do not share identifiers outright.
type Comparator struct {
	matcher *Matcher
	log     logging.Logger
}

// NewComparator builds a Comparator around an existing Matcher.
func NewComparator(matcher *Matcher, log logging.Logger) *Comparator {
	if log == nil {
		log = logging.NewNop()
	}
	return &Comparator{matcher: matcher, log: log}
}

// Compare matches every non-utility model reaction against the database and
// selects a best hit per reaction in three tiers: a hit sharing genes with
// the reference beats a hit merely present in the reference, which beats
// the best-scoring hit overall. Alongside the per-reaction verdicts it
// tallies shared compounds, reactions, genes, gene-bearing reactions and
// transporters.
func (c *Comparator) Compare(model, reference *Model) *ModelComparison {
	cmp := &ModelComparison{Counts: map[string]ComparisonCounts{}}

	refBases := map[string]*Reaction{}
	for _, rxn := range reference.Reactions() {
		refBases[ParseID(rxn.ID, c.log).Base] = rxn
	}

	cpdCandidates := c.matcher.MatchCompounds(model)
	rxnMatches := c.matcher.MatchReactions(model, cpdCandidates)

	ids := make([]string, 0, len(rxnMatches))
	for id := range rxnMatches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rxn, ok := model.Reaction(id)
		if !ok {
			continue
		}
		cmp.Reactions = append(cmp.Reactions, c.compareReaction(rxn, rxnMatches[id], refBases))
	}

	c.countCompounds(model, reference, cmp)
	c.countReactions(model, reference, refBases, cmp)
	c.countGenes(model, reference, cmp)
	c.log.Info("model comparison complete",
		logging.Int("reactions_compared", len(cmp.Reactions)),
		logging.Int("shared_reactions", cmp.Counts["reactions"][2]))
	return cmp
}

// compareReaction picks the best hit for one reaction and classifies gene
// agreement against the reference copy of that hit.
func (c *Comparator) compareReaction(rxn *Reaction, matches ReactionMatches, refBases map[string]*Reaction) ReactionComparison {
	out := ReactionComparison{
		ModelID:        rxn.ID,
		GeneStatus:     GeneStatusNoGene,
		ModelDirection: DirectionSymbol(rxn.Directionality()),
		HitDirection:   DirectionSymbol(""),
	}

	modelGenes := make([]string, 0, len(rxn.Genes))
	for _, g := range rxn.Genes {
		modelGenes = append(modelGenes, g.ID)
	}

	var geneHit, modelHit, scoreHit *ReactionCandidate
	var geneHitScore float64
	for _, cand := range RankedReactionCandidates(matches) {
		if scoreHit == nil {
			scoreHit = cand
		}
		refRxn, inRef := refBases[cand.ID]
		if !inRef {
			continue
		}
		if modelHit == nil {
			modelHit = cand
		}
		if len(modelGenes) == 0 || len(refRxn.Genes) == 0 {
			continue
		}
		refGenes := make([]string, 0, len(refRxn.Genes))
		for _, g := range refRxn.Genes {
			refGenes = append(refGenes, g.ID)
		}
		if overlap := ScoreGeneOverlap(modelGenes, refGenes); overlap > 0 {
			if geneHit == nil || overlap > geneHitScore {
				geneHit, geneHitScore = cand, overlap
			}
		}
	}

	switch {
	case geneHit != nil:
		out.BestHit, out.Tier, out.Score = geneHit.ID, "gene", geneHit.Score
	case modelHit != nil:
		out.BestHit, out.Tier, out.Score = modelHit.ID, "model", modelHit.Score
	case scoreHit != nil:
		out.BestHit, out.Tier, out.Score = scoreHit.ID, "score", scoreHit.Score
	default:
		out.Tier = "none"
		return out
	}

	if refRxn, ok := refBases[out.BestHit]; ok {
		out.HitDirection = DirectionSymbol(refRxn.Directionality())
		refGenes := make([]string, 0, len(refRxn.Genes))
		for _, g := range refRxn.Genes {
			refGenes = append(refGenes, g.ID)
		}
		out.GeneStatus = classifyGenes(modelGenes, refGenes)
	} else if len(modelGenes) > 0 {
		out.GeneStatus = GeneStatusModelOnly
	}
	return out
}

// classifyGenes describes the set relation between the gene complements of
// a matched reaction pair.
func classifyGenes(modelGenes, refGenes []string) string {
	model := map[string]bool{}
	for _, g := range modelGenes {
		model[g] = true
	}
	ref := map[string]bool{}
	for _, g := range refGenes {
		ref[g] = true
	}
	switch {
	case len(model) == 0 && len(ref) == 0:
		return GeneStatusNoGene
	case len(model) == 0:
		return GeneStatusMSOnly
	case len(ref) == 0:
		return GeneStatusModelOnly
	}
	shared, extraModel, extraRef := 0, 0, 0
	for g := range model {
		if ref[g] {
			shared++
		} else {
			extraModel++
		}
	}
	for g := range ref {
		if !model[g] {
			extraRef++
		}
	}
	switch {
	case extraModel == 0 && extraRef == 0:
		return GeneStatusMatch
	case shared > 0 && extraModel > 0 && extraRef > 0:
		return GeneStatusExtraBoth
	case shared > 0 && extraModel > 0:
		return GeneStatusExtraModel
	case shared > 0:
		return GeneStatusExtraMS
	default:
		return GeneStatusExtraBoth
	}
}

func (c *Comparator) countCompounds(model, reference *Model, cmp *ModelComparison) {
	modelBases := map[string]bool{}
	for _, met := range model.Metabolites() {
		modelBases[ParseID(met.ID, c.log).Base] = true
	}
	refBases := map[string]bool{}
	for _, met := range reference.Metabolites() {
		refBases[ParseID(met.ID, c.log).Base] = true
	}
	shared := 0
	for base := range modelBases {
		if refBases[base] {
			shared++
		}
	}
	cmp.Counts["compounds"] = ComparisonCounts{len(modelBases), len(refBases), shared}
}

func (c *Comparator) countReactions(model, reference *Model, refBases map[string]*Reaction, cmp *ModelComparison) {
	var rxns, rxnGenes, transport ComparisonCounts
	sharedGenesOfShared := func(modelRxn, refRxn *Reaction) bool {
		return len(modelRxn.Genes) > 0 && len(refRxn.Genes) > 0
	}
	for _, rxn := range model.Reactions() {
		if IsUtilityReaction(rxn.ID) {
			continue
		}
		rxns[0]++
		if len(rxn.Genes) > 0 {
			rxnGenes[0]++
		}
		if ParseStoichiometry(rxn).IsTransport() {
			transport[0]++
		}
		if refRxn, ok := refBases[ParseID(rxn.ID, c.log).Base]; ok {
			rxns[2]++
			if sharedGenesOfShared(rxn, refRxn) {
				rxnGenes[2]++
			}
			if ParseStoichiometry(refRxn).IsTransport() && ParseStoichiometry(rxn).IsTransport() {
				transport[2]++
			}
		}
	}
	for _, rxn := range reference.Reactions() {
		if IsUtilityReaction(rxn.ID) {
			continue
		}
		rxns[1]++
		if len(rxn.Genes) > 0 {
			rxnGenes[1]++
		}
		if ParseStoichiometry(rxn).IsTransport() {
			transport[1]++
		}
	}
	cmp.Counts["reactions"] = rxns
	cmp.Counts["reaction_genes"] = rxnGenes
	cmp.Counts["transport"] = transport
}

func (c *Comparator) countGenes(model, reference *Model, cmp *ModelComparison) {
	refGenes := map[string]bool{}
	for _, g := range reference.Genes() {
		refGenes[g.ID] = true
	}
	shared := 0
	for _, g := range model.Genes() {
		if refGenes[g.ID] {
			shared++
		}
	}
	cmp.Counts["genes"] = ComparisonCounts{len(model.Genes()), len(reference.Genes()), shared}
}
