package biochem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perfectEquationCandidate(id string, matched int) *ReactionCandidate {
	return &ReactionCandidate{
		ID:    id,
		Score: float64(matched) * scoreEquationCompound,
		Equation: &EquationScore{
			Matched: matched, Total: matched,
			ImpliedTranslations: map[string]string{},
		},
	}
}

func TestCheckForPerfectMatchesOnlyMatch(t *testing.T) {
	matches := ReactionMatches{
		"rxn00216": perfectEquationCandidate("rxn00216", 5),
		"rxn00001": {
			ID: "rxn00001",
			Equation: &EquationScore{
				Matched: 2, Total: 5,
				UnmatchedModel:      []string{"a", "b", "c"},
				ImpliedTranslations: map[string]string{},
			},
		},
	}
	pm := CheckForPerfectMatches(matches, nil, nil)
	require.NotNil(t, pm)
	assert.Equal(t, "rxn00216", pm.ReactionID)
	assert.Equal(t, "only_match", pm.Type)
}

func TestCheckForPerfectMatchesNone(t *testing.T) {
	matches := ReactionMatches{
		"rxn00001": {
			ID: "rxn00001",
			Equation: &EquationScore{
				Matched: 1, Total: 3,
				UnmatchedModel:      []string{"a", "b"},
				ImpliedTranslations: map[string]string{},
			},
		},
	}
	assert.Nil(t, CheckForPerfectMatches(matches, nil, nil))
}

func TestProtonGapCountsAsPerfect(t *testing.T) {
	cand := &ReactionCandidate{
		ID: "rxn00216",
		Equation: &EquationScore{
			Matched: 4, Total: 4,
			UnmatchedDB:         []string{"cpd00067"},
			ImpliedTranslations: map[string]string{},
		},
		ProtonMatch: true,
	}
	matches := ReactionMatches{"rxn00216": cand}
	pm := CheckForPerfectMatches(matches, nil, nil)
	require.NotNil(t, pm)
	assert.Equal(t, "only_match", pm.Type)
}

func TestPerfectTransportMatch(t *testing.T) {
	cand := &ReactionCandidate{
		ID:        "rxn05573",
		Transport: &TransportScore{Fraction: 1.0, Count: 1, Direction: "same"},
	}
	matches := ReactionMatches{"rxn05573": cand}
	pm := CheckForPerfectMatches(matches, nil, nil)
	require.NotNil(t, pm)
	assert.Equal(t, "rxn05573", pm.ReactionID)
}

func TestTieBreakPrefersFewestMismatches(t *testing.T) {
	a := perfectEquationCandidate("rxn00001", 3)
	a.Equation.ImpliedTranslations = map[string]string{"glc": "cpd00027"}
	b := perfectEquationCandidate("rxn00002", 3)
	b.Equation.ImpliedTranslations = map[string]string{"glc": "cpd00154"}

	committed := map[string]string{"glc": "cpd00027"}
	pm := CheckForPerfectMatches(ReactionMatches{a.ID: a, b.ID: b}, committed, nil)
	require.NotNil(t, pm)
	assert.Equal(t, "rxn00001", pm.ReactionID)
	assert.Equal(t, "3 matches/0 mismatches", pm.Type)
}

func TestTieBreakPrefersMoreMatchesThenScoreThenTemplate(t *testing.T) {
	a := perfectEquationCandidate("rxn00001", 3)
	b := perfectEquationCandidate("rxn00002", 5)
	pm := CheckForPerfectMatches(ReactionMatches{a.ID: a, b.ID: b}, nil, nil)
	require.NotNil(t, pm)
	assert.Equal(t, "rxn00002", pm.ReactionID)

	c := perfectEquationCandidate("rxn00003", 5)
	c.Score += scoreECHit
	pm = CheckForPerfectMatches(ReactionMatches{b.ID: b, c.ID: c}, nil, nil)
	require.NotNil(t, pm)
	assert.Equal(t, "rxn00003", pm.ReactionID)

	d := perfectEquationCandidate("rxn00004", 5)
	tpl := &Template{Name: "core", Reactions: map[string]bool{"rxn00004_c": true}}
	pm = CheckForPerfectMatches(ReactionMatches{b.ID: b, d.ID: d}, nil, tpl)
	require.NotNil(t, pm)
	assert.Equal(t, "rxn00004", pm.ReactionID)
}
