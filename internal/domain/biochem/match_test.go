package biochem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

func TestMatchCompoundsPoolsCompartmentCopies(t *testing.T) {
	db := newTestDatabase(t)
	matcher := NewMatcher(db, logging.NewNop())
	model := newGlycolysisModel(t)

	results := matcher.MatchCompounds(model)
	require.Contains(t, results, "glc__D")
	assert.Contains(t, results["glc__D"], "cpd00027")
	// Both compartment copies fold into one base entry.
	assert.NotContains(t, results, "glc__D[c]")
	assert.NotContains(t, results, "glc__D[e]")
}

func TestMatchCompoundsTemplateFilter(t *testing.T) {
	db := newTestDatabase(t)
	model := NewModel("tpl")
	met := &Metabolite{ID: "sugar[c]", Name: "D-Glucose", Formula: "C6H12O6", Compartment: "c"}
	require.NoError(t, model.AddMetabolite(met))

	// Without a template the formula channel also proposes fructose.
	open := NewMatcher(db, logging.NewNop()).MatchCompounds(model)
	require.Contains(t, open["sugar"], "cpd00027")
	require.Contains(t, open["sugar"], "cpd00082")

	tpl := &Template{Name: "gramneg", Compounds: map[string]bool{"cpd00027": true}}
	filtered := NewMatcher(db, logging.NewNop(), WithTemplate(tpl)).MatchCompounds(model)
	assert.Equal(t, []string{"cpd00027"}, candidateIDs(filtered["sugar"]))
}

func TestMatchCompoundsAnnotatesModel(t *testing.T) {
	db := newTestDatabase(t)
	model := newGlycolysisModel(t)

	results := NewMatcher(db, logging.NewNop(), WithModelAnnotation()).MatchCompounds(model)
	require.Contains(t, results["glc__D"], "cpd00027")

	for _, id := range []string{"glc__D[c]", "glc__D[e]"} {
		met, ok := model.Metabolite(id)
		require.True(t, ok)
		require.Contains(t, met.Annotation, "ModelSEED", "every compartment copy is annotated")
		assert.Contains(t, met.Annotation["ModelSEED"], "cpd00027")
	}
}

func TestMatchCompoundsLeavesModelUntouchedByDefault(t *testing.T) {
	db := newTestDatabase(t)
	model := NewModel("plain")
	met := &Metabolite{ID: "glc__D[c]", Name: "D-Glucose", Compartment: "c"}
	require.NoError(t, model.AddMetabolite(met))

	NewMatcher(db, logging.NewNop()).MatchCompounds(model)
	assert.NotContains(t, met.Annotation, "ModelSEED")
}

func TestMatchCompoundsTemplateNeverEmpties(t *testing.T) {
	db := newTestDatabase(t)
	model := NewModel("tpl")
	met := &Metabolite{ID: "gly[c]", Name: "Glycerol", Compartment: "c"}
	require.NoError(t, model.AddMetabolite(met))

	// Glycerol is not in the template, but filtering down to nothing would
	// be worse than keeping the off-template candidate.
	tpl := &Template{Name: "gramneg", Compounds: map[string]bool{"cpd00027": true}}
	results := NewMatcher(db, logging.NewNop(), WithTemplate(tpl)).MatchCompounds(model)
	assert.Contains(t, results["gly"], "cpd00100")
}

func TestMatchReactionsGeneScoring(t *testing.T) {
	db := newTestDatabase(t)
	model := newGlycolysisModel(t)
	hex, ok := model.Reaction("HEX1")
	require.True(t, ok)
	hex.Genes = []*Gene{{ID: "b2388"}, {ID: "mRNA.b2388"}}

	genes := map[string][]string{"rxn00216": {"b2388"}}
	matcher := NewMatcher(db, logging.NewNop(), WithReactionGenes(genes))
	results := matcher.MatchReactions(model, matcher.MatchCompounds(model))

	cand := results["HEX1"]["rxn00216"]
	require.NotNil(t, cand)
	assert.Equal(t, scoreGeneShared, cand.GeneScore, "mRNA entries excluded from overlap")
}

func TestMatchReactionsSkipsUtilityReactions(t *testing.T) {
	db := newTestDatabase(t)
	matcher := NewMatcher(db, logging.NewNop())
	model := newGlycolysisModel(t)

	results := matcher.MatchReactions(model, matcher.MatchCompounds(model))
	assert.NotContains(t, results, "EX_glc__D_e")
	assert.Contains(t, results, "HEX1")
	assert.Contains(t, results, "GLCt")
}

func TestRankedReactionCandidates(t *testing.T) {
	matches := ReactionMatches{
		"rxn00002": {ID: "rxn00002", Score: 5},
		"rxn00001": {ID: "rxn00001", Score: 15},
		"rxn00003": {ID: "rxn00003", Score: 5},
	}
	ranked := RankedReactionCandidates(matches)
	require.Len(t, ranked, 3)
	assert.Equal(t, "rxn00001", ranked[0].ID)
	assert.Equal(t, "rxn00002", ranked[1].ID)
	assert.Equal(t, "rxn00003", ranked[2].ID)
}

func candidateIDs(m CompoundMatches) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}
