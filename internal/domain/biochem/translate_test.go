package biochem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

// newGlycolysisModel builds a small model whose compounds and reactions all
// have counterparts in newTestDatabase. The g6p metabolite deliberately
// carries no aliases, so it can only be settled through the glucokinase
// reaction match.
func newGlycolysisModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel("iTest")
	mets := []*Metabolite{
		{ID: "atp[c]", Name: "ATP", Formula: "C10H13N5O13P3", Compartment: "c",
			Annotation: map[string][]string{"BiGG": {"atp"}}},
		{ID: "adp[c]", Name: "ADP", Formula: "C10H13N5O10P2", Compartment: "c",
			Annotation: map[string][]string{"BiGG": {"adp"}}},
		{ID: "glc__D[c]", Name: "D-Glucose", Formula: "C6H12O6", Compartment: "c",
			Annotation: map[string][]string{"BiGG": {"glc__D"}}},
		{ID: "glc__D[e]", Name: "D-Glucose", Formula: "C6H12O6", Compartment: "e",
			Annotation: map[string][]string{"BiGG": {"glc__D"}}},
		{ID: "g6p[c]", Name: "", Formula: "C6H11O9P", Compartment: "c"},
		{ID: "h[c]", Name: "H+", Formula: "H", Compartment: "c",
			Annotation: map[string][]string{"BiGG": {"h"}}},
	}
	for _, met := range mets {
		require.NoError(t, m.AddMetabolite(met))
	}
	met := func(id string) *Metabolite {
		got, ok := m.Metabolite(id)
		require.True(t, ok, id)
		return got
	}
	require.NoError(t, m.AddReaction(&Reaction{
		ID: "HEX1", Name: "Hexokinase", LowerBound: 0, UpperBound: 1000,
		Metabolites: map[*Metabolite]float64{
			met("atp[c]"): -1, met("glc__D[c]"): -1,
			met("adp[c]"): 1, met("g6p[c]"): 1, met("h[c]"): 1,
		},
	}))
	require.NoError(t, m.AddReaction(&Reaction{
		ID: "GLCt", Name: "Glucose transport", LowerBound: -1000, UpperBound: 1000,
		Metabolites: map[*Metabolite]float64{
			met("glc__D[e]"): -1, met("glc__D[c]"): 1,
		},
	}))
	require.NoError(t, m.AddReaction(&Reaction{
		ID: "EX_glc__D_e", Name: "Glucose exchange", LowerBound: -1000, UpperBound: 1000,
		Metabolites: map[*Metabolite]float64{met("glc__D[e]"): -1},
	}))
	return m
}

func TestTranslateCommitsCompoundsAndReactions(t *testing.T) {
	db := newTestDatabase(t)
	matcher := NewMatcher(db, logging.NewNop())
	translator := NewTranslator(matcher, logging.NewNop())

	model := newGlycolysisModel(t)
	tr, err := translator.Translate(model)
	require.NoError(t, err)

	assert.Equal(t, "cpd00027", tr.Compounds["glc__D"])
	assert.Equal(t, "cpd00027", tr.Compounds["glc__D[c]"], "full metabolite IDs alias their base")
	assert.Equal(t, "cpd00027", tr.Compounds["glc__D[e]"])
	assert.Equal(t, "cpd00002", tr.Compounds["atp"])

	assert.Equal(t, "rxn00216", tr.Reactions["HEX1"])
	assert.Equal(t, "rxn05573", tr.Reactions["GLCt"])
	_, hasExchange := tr.Reactions["EX_glc__D_e"]
	assert.False(t, hasExchange, "utility reactions are never translated")
}

func TestTranslateSettlesCompoundThroughReaction(t *testing.T) {
	db := newTestDatabase(t)
	matcher := NewMatcher(db, logging.NewNop())
	translator := NewTranslator(matcher, logging.NewNop())

	model := newGlycolysisModel(t)
	tr, err := translator.Translate(model)
	require.NoError(t, err)

	// g6p has no aliases, so only the glucokinase match can settle it.
	assert.Equal(t, "cpd00079", tr.Compounds["g6p"])
	assert.Equal(t, "cpd00079", tr.Compounds["g6p[c]"])
	assert.Len(t, tr.CompoundCandidates["g6p"], 1, "other candidates pruned after commit")
}

func TestTranslateCommitsAreWriteOnce(t *testing.T) {
	tr := newTranslation()
	require.True(t, tr.CommitCompound("glc", "cpd00027"))
	assert.False(t, tr.CommitCompound("glc", "cpd00154"))
	assert.Equal(t, "cpd00027", tr.Compounds["glc"])

	require.True(t, tr.CommitReaction("HEX1", "rxn00216", "only_match"))
	assert.False(t, tr.CommitReaction("HEX1", "rxn00001", "only_match"))
	assert.Equal(t, "rxn00216", tr.Reactions["HEX1"])
}

func TestTranslateTerminates(t *testing.T) {
	db := newTestDatabase(t)
	log := logging.NewRecorder()
	matcher := NewMatcher(db, log)
	translator := NewTranslator(matcher, log, WithMaxIterations(3))

	model := newGlycolysisModel(t)
	_, err := translator.Translate(model)
	require.NoError(t, err)

	passes := 0
	for _, e := range log.Entries() {
		if e.Message == "translation pass complete" {
			passes++
		}
	}
	assert.LessOrEqual(t, passes, 3)
	assert.GreaterOrEqual(t, passes, 2, "loop runs one confirming pass after the last commit")
}

func TestRemovePeriplasmMergesIntoExtracellular(t *testing.T) {
	m := NewModel("peri")
	ext := &Metabolite{ID: "glc__D[e]", Compartment: "e"}
	per := &Metabolite{ID: "glc__D[p]", Compartment: "p"}
	cyt := &Metabolite{ID: "glc__D[c]", Compartment: "c"}
	for _, met := range []*Metabolite{ext, per, cyt} {
		require.NoError(t, m.AddMetabolite(met))
	}
	require.NoError(t, m.AddReaction(&Reaction{
		ID: "GLCtex", LowerBound: -1000, UpperBound: 1000,
		Metabolites: map[*Metabolite]float64{ext: -1, per: 1},
	}))
	require.NoError(t, m.AddReaction(&Reaction{
		ID: "GLCtpp", LowerBound: -1000, UpperBound: 1000,
		Metabolites: map[*Metabolite]float64{per: -1, cyt: 1},
	}))

	RemovePeriplasm(m, logging.NewNop())

	_, ok := m.Metabolite("glc__D[p]")
	assert.False(t, ok, "periplasmic metabolite removed")
	_, ok = m.Reaction("GLCtex")
	assert.False(t, ok, "shuttle reaction collapses to nothing and is removed")
	tpp, ok := m.Reaction("GLCtpp")
	require.True(t, ok)
	assert.InDelta(t, -1, tpp.Metabolites[ext], 1e-12, "periplasmic term now reads from the extracellular pool")
}

func TestRemovePeriplasmMovesOrphans(t *testing.T) {
	m := NewModel("peri")
	per := &Metabolite{ID: "murein[p]", Compartment: "p"}
	require.NoError(t, m.AddMetabolite(per))

	RemovePeriplasm(m, logging.NewNop())

	moved, ok := m.Metabolite("murein_e")
	require.True(t, ok)
	assert.Equal(t, "e", moved.Compartment)
}
