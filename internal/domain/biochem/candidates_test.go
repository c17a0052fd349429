package biochem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPruneFormulaOnly(t *testing.T) {
	matches := CompoundMatches{
		"cpd00027": {ID: "cpd00027", Score: 10, IdentifierHits: map[string][]string{"BiGG": {"glc__D"}}},
		"cpd00159": {ID: "cpd00159", Score: 4, FormulaMatch: true, HydrogenMatch: true},
	}
	matches.PruneFormulaOnly()
	assert.Contains(t, matches, "cpd00027")
	assert.NotContains(t, matches, "cpd00159", "formula-only candidate pruned when strong evidence exists")
}

func TestPruneFormulaOnlyKeepsAllWithoutStrongEvidence(t *testing.T) {
	matches := CompoundMatches{
		"cpd00027": {ID: "cpd00027", Score: 4, FormulaMatch: true, HydrogenMatch: true},
		"cpd00159": {ID: "cpd00159", Score: 2, FormulaMatch: true},
	}
	matches.PruneFormulaOnly()
	assert.Len(t, matches, 2)
}

func TestBestBreaksTiesByID(t *testing.T) {
	matches := CompoundMatches{
		"cpd00200": {ID: "cpd00200", Score: 10},
		"cpd00100": {ID: "cpd00100", Score: 10},
	}
	best := matches.Best()
	require.NotNil(t, best)
	assert.Equal(t, "cpd00100", best.ID)
}

func TestStrongCandidatesSorted(t *testing.T) {
	matches := CompoundMatches{
		"cpd00001": {ID: "cpd00001", Score: 8, StructureHits: map[string][]string{"InChIKey": {"x"}}},
		"cpd00002": {ID: "cpd00002", Score: 20, IdentifierHits: map[string][]string{"BiGG": {"atp"}}},
		"cpd00003": {ID: "cpd00003", Score: 4, FormulaMatch: true},
	}
	strong := matches.StrongCandidates()
	require.Len(t, strong, 2)
	assert.Equal(t, "cpd00002", strong[0].ID)
	assert.Equal(t, "cpd00001", strong[1].ID)
}

func TestScoreGeneOverlap(t *testing.T) {
	tests := []struct {
		name   string
		model  []string
		target []string
		want   float64
	}{
		{"all shared", []string{"g1", "g2"}, []string{"g1", "g2"}, 20},
		{"disjoint", []string{"g1"}, []string{"g2"}, -10},
		{"partial", []string{"g1", "g2"}, []string{"g1", "g3"}, 10 - 5 - 5},
		{"mRNA excluded", []string{"mRNA.1", "g1"}, []string{"g1", "mRNA.2"}, 10},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreGeneOverlap(tt.model, tt.target))
		})
	}
}
