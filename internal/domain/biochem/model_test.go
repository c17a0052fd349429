package biochem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (*Model, *Metabolite, *Metabolite, *Reaction) {
	t.Helper()
	m := NewModel("test")
	a := &Metabolite{ID: "atp[c]", Name: "ATP", Formula: "C10H12N5O13P3", Compartment: "c"}
	b := &Metabolite{ID: "adp[c]", Name: "ADP", Formula: "C10H12N5O10P2", Compartment: "c"}
	require.NoError(t, m.AddMetabolite(a))
	require.NoError(t, m.AddMetabolite(b))
	rxn := &Reaction{
		ID:          "ATPASE",
		Name:        "ATPase",
		LowerBound:  -1000,
		UpperBound:  1000,
		Metabolites: map[*Metabolite]float64{a: -1, b: 1},
		Genes:       []*Gene{{ID: "g1"}},
	}
	require.NoError(t, m.AddReaction(rxn))
	return m, a, b, rxn
}

func TestReactionDirectionality(t *testing.T) {
	tests := []struct {
		name   string
		lb, ub float64
		want   string
	}{
		{"reversible", -1000, 1000, "reversible"},
		{"forward", 0, 1000, "forward"},
		{"reverse", -1000, 0, "reverse"},
		{"blocked", 0, 0, "blocked"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reaction{LowerBound: tt.lb, UpperBound: tt.ub}
			assert.Equal(t, tt.want, r.Directionality())
		})
	}
}

func TestBuildReactionString(t *testing.T) {
	_, _, _, rxn := newTestModel(t)
	assert.Equal(t, "atp[c] <=> adp[c]", rxn.BuildReactionString(false))
	assert.Equal(t, "ATP <=> ADP", rxn.BuildReactionString(true))

	rxn.LowerBound = 0
	assert.Equal(t, "atp[c] --> adp[c]", rxn.BuildReactionString(false))
	rxn.LowerBound, rxn.UpperBound = -1000, 0
	assert.Equal(t, "atp[c] <-- adp[c]", rxn.BuildReactionString(false))
}

func TestAddMetaboliteAccumulates(t *testing.T) {
	_, a, _, rxn := newTestModel(t)
	rxn.AddMetabolite(a, 0.5)
	assert.InDelta(t, -0.5, rxn.Metabolites[a], 1e-12)

	rxn.AddMetabolite(a, 0.5)
	_, present := rxn.Metabolites[a]
	assert.False(t, present, "metabolite at zero coefficient should be dropped")
}

func TestRenameMetabolite(t *testing.T) {
	m, a, _, _ := newTestModel(t)
	require.NoError(t, m.RenameMetabolite(a, "cpd00002_c0"))
	assert.Equal(t, "cpd00002_c0", a.ID)
	_, ok := m.Metabolite("atp[c]")
	assert.False(t, ok)
	got, ok := m.Metabolite("cpd00002_c0")
	require.True(t, ok)
	assert.Same(t, a, got)

	b, ok := m.Metabolite("adp[c]")
	require.True(t, ok)
	err := m.RenameMetabolite(b, "cpd00002_c0")
	assert.Error(t, err, "renaming onto an existing ID must fail")
}

func TestRemoveReactions(t *testing.T) {
	m, _, _, rxn := newTestModel(t)
	m.RemoveReactions([]*Reaction{rxn})
	assert.Empty(t, m.Reactions())
	_, ok := m.Reaction(rxn.ID)
	assert.False(t, ok)
}

func TestReactionsForGene(t *testing.T) {
	m, _, _, rxn := newTestModel(t)
	hits := m.ReactionsForGene("g1")
	require.Len(t, hits, 1)
	assert.Same(t, rxn, hits[0])
	assert.Empty(t, m.ReactionsForGene("g2"))
}
