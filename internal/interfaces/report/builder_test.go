package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelseed/kbutil/internal/application/standardize"
	"github.com/modelseed/kbutil/internal/domain/biochem"
)

func frozenBuilder() *Builder {
	b := NewBuilder()
	b.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return b
}

func TestRenderStandardization(t *testing.T) {
	result := &standardize.Result{
		Report: &biochem.ApplyReport{
			CompoundsTranslated:   4,
			CompoundsTotal:        5,
			ReactionsTranslated:   2,
			ReactionsTotal:        3,
			UntranslatedCompounds: []string{"x_c"},
			UntranslatedReactions: []string{"XDH"},
		},
		Stats: standardize.MatchStats{
			MatchTypes:            map[string]int{"only_match": 2},
			UntranslatedCompounds: []string{"x_c"},
			UntranslatedReactions: []string{"XDH"},
		},
	}

	html, err := frozenBuilder().RenderStandardization("iTiny", result)
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "Standardization report: iTiny")
	assert.Contains(t, page, "80.0%")
	assert.Contains(t, page, "66.7%")
	assert.Contains(t, page, "only_match")
	assert.Contains(t, page, "<li>x_c</li>")
	assert.Contains(t, page, "<li>XDH</li>")
}

func TestRenderStandardizationRejectsNil(t *testing.T) {
	_, err := frozenBuilder().RenderStandardization("iTiny", nil)
	require.Error(t, err)
	_, err = frozenBuilder().RenderStandardization("iTiny", &standardize.Result{})
	require.Error(t, err)
}

func TestRenderComparison(t *testing.T) {
	cmp := &biochem.ModelComparison{
		Counts: map[string]biochem.ComparisonCounts{
			"compounds": {5, 6, 4},
			"reactions": {3, 3, 2},
		},
		Reactions: []biochem.ReactionComparison{
			{
				ModelID:        "rxn00216_c0",
				BestHit:        "rxn00216_c0",
				Tier:           "gene",
				GeneStatus:     "2 genes match",
				ModelDirection: ">",
				HitDirection:   "=",
			},
		},
	}

	html, err := frozenBuilder().RenderComparison("iTiny", "iRef", cmp)
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "iTiny vs iRef")
	assert.Contains(t, page, "<td>compounds</td><td>5</td><td>6</td><td>4</td>")
	assert.Contains(t, page, "rxn00216_c0")
	assert.Contains(t, page, "<td>gene</td>")
}
