package biochem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStoichiometryNet(t *testing.T) {
	a := &Metabolite{ID: "glc[c]", Compartment: "c"}
	b := &Metabolite{ID: "g6p[c]", Compartment: "c"}
	h := &Metabolite{ID: "h[c]", Compartment: "c"}
	rxn := &Reaction{
		ID:          "HEX1",
		Metabolites: map[*Metabolite]float64{a: -1, b: 1, h: 1},
	}

	s := ParseStoichiometry(rxn)
	assert.InDelta(t, -1, s.Net["glc"], 1e-12)
	assert.InDelta(t, 1, s.Net["g6p"], 1e-12)
	assert.InDelta(t, 1, s.Proton, 1e-12)
	assert.False(t, s.IsTransport())
}

func TestParseStoichiometryTransport(t *testing.T) {
	ext := &Metabolite{ID: "glc[e]", Compartment: "e"}
	cyt := &Metabolite{ID: "glc[c]", Compartment: "c"}
	rxn := &Reaction{
		ID:          "GLCt",
		Metabolites: map[*Metabolite]float64{ext: -1, cyt: 1},
	}

	s := ParseStoichiometry(rxn)
	require.True(t, s.IsTransport())
	assert.InDelta(t, -1, s.Transport["glc"], 1e-12, "transport coefficient comes from the external side")
	assert.InDelta(t, 0, s.Net["glc"], 1e-12)
	assert.True(t, s.IsPureTransport())
}

func TestProtonCoupledTransportIsPure(t *testing.T) {
	ext := &Metabolite{ID: "lac[e]", Compartment: "e"}
	cyt := &Metabolite{ID: "lac[c]", Compartment: "c"}
	hExt := &Metabolite{ID: "h[e]", Compartment: "e"}
	hCyt := &Metabolite{ID: "h[c]", Compartment: "c"}
	rxn := &Reaction{
		ID:          "LACt2",
		Metabolites: map[*Metabolite]float64{ext: -1, cyt: 1, hExt: -1, hCyt: 1},
	}

	s := ParseStoichiometry(rxn)
	assert.True(t, s.IsPureTransport())
}

func TestTransportWithConversionIsNotPure(t *testing.T) {
	pepC := &Metabolite{ID: "pep[c]", Compartment: "c"}
	pyrC := &Metabolite{ID: "pyr[c]", Compartment: "c"}
	glcE := &Metabolite{ID: "glc[e]", Compartment: "e"}
	g6pC := &Metabolite{ID: "g6p[c]", Compartment: "c"}
	rxn := &Reaction{
		ID:          "GLCpts",
		Metabolites: map[*Metabolite]float64{glcE: -1, pepC: -1, g6pC: 1, pyrC: 1},
	}

	s := ParseStoichiometry(rxn)
	assert.True(t, s.IsTransport())
	assert.False(t, s.IsPureTransport())
}

func TestParseDBStoichiometry(t *testing.T) {
	rxn := &DBReaction{
		ID: "rxn05573",
		Stoichiometry: []Participant{
			{CompoundID: "cpd00027", Compartment: "e", Coefficient: -1},
			{CompoundID: "cpd00027", Compartment: "c", Coefficient: 1},
		},
	}

	s := ParseDBStoichiometry(rxn)
	require.True(t, s.IsTransport())
	assert.InDelta(t, -1, s.Transport["cpd00027"], 1e-12)
	assert.True(t, s.IsPureTransport())
}
