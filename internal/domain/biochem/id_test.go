package biochem

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

func TestParseIDBracketNotation(t *testing.T) {
	cases := []struct {
		id   string
		want ParsedID
	}{
		{"adp[c]", ParsedID{Base: "adp", Compartment: "c"}},
		{"h[e]", ParsedID{Base: "h", Compartment: "e"}},
		{"nadh[periplasm]", ParsedID{Base: "nadh", Compartment: "p"}},
		{"akg[env]", ParsedID{Base: "akg", Compartment: "e"}},
		{"glc__D[Extracellular]", ParsedID{Base: "glc__D", Compartment: "e"}},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			got := ParseID(tc.id, logging.NewNop())
			assert.Equal(t, tc.want, got)
		})
	}
}

// Reforming base[comp] from the parsed parts must reproduce the input for
// identifiers whose compartment token is already a recognized code.
func TestParseIDBracketRoundTrip(t *testing.T) {
	for _, id := range []string{"adp[c]", "h[e]", "succ[p]", "atp[m]"} {
		got := ParseID(id, logging.NewNop())
		assert.Equal(t, id, got.Bracket())
	}
}

func TestParseIDUnderscoreNotation(t *testing.T) {
	cases := []struct {
		id   string
		want ParsedID
	}{
		{"cpd01024_c0", ParsedID{Base: "cpd01024", Compartment: "c", Index: "0"}},
		{"rxn00001_c", ParsedID{Base: "rxn00001", Compartment: "c"}},
		{"base_c0", ParsedID{Base: "base", Compartment: "c", Index: "0"}},
		{"cpd00067_e10", ParsedID{Base: "cpd00067", Compartment: "e", Index: "10"}},
		{"glc__D_e0", ParsedID{Base: "glc__D", Compartment: "e", Index: "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			got := ParseID(tc.id, logging.NewNop())
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseIDUnrecognizedCompartmentBracket(t *testing.T) {
	rec := logging.NewRecorder()
	got := ParseID("atp[vac]", rec)
	// Token dropped, compartment defaults to cytosol.
	assert.Equal(t, ParsedID{Base: "atp", Compartment: "c"}, got)
	assert.Len(t, rec.Warnings(), 1)
}

func TestParseIDUnrecognizedCompartmentUnderscore(t *testing.T) {
	rec := logging.NewRecorder()
	got := ParseID("malate_dh2", rec)
	// Token folded back into the base ID; it was probably part of the name.
	assert.Equal(t, ParsedID{Base: "malate_dh", Compartment: "c", Index: "2"}, got)
	assert.Len(t, rec.Warnings(), 1)
}

func TestParseIDNoCompartmentMarker(t *testing.T) {
	rec := logging.NewRecorder()
	got := ParseID("ATPSYNTHASE", rec)
	assert.Equal(t, ParsedID{Base: "ATPSYNTHASE", Compartment: "c"}, got)
	assert.Len(t, rec.Warnings(), 1)
}

func TestIsUtilityReaction(t *testing.T) {
	assert.True(t, IsUtilityReaction("EX_glc__D_e"))
	assert.True(t, IsUtilityReaction("SK_cpd00001_c0"))
	assert.True(t, IsUtilityReaction("DM_akg_c"))
	assert.True(t, IsUtilityReaction("bio1"))
	assert.True(t, IsUtilityReaction("EXF_h2o"))
	assert.False(t, IsUtilityReaction("rxn00001_c0"))
	assert.False(t, IsUtilityReaction("PGK"))
	assert.False(t, IsUtilityReaction("EX"))
}

func TestMoreExternal(t *testing.T) {
	assert.True(t, MoreExternal("e", "c"))
	assert.True(t, MoreExternal("env", "e"))
	assert.True(t, MoreExternal("p", "m"))
	assert.False(t, MoreExternal("c", "e"))
	// Unknown compartments are most internal.
	assert.True(t, MoreExternal("e", "vac"))
}
