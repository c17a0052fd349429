package biochem

import "math"

// Stoichiometry summarizes a model reaction in compartment-free terms so it
// can be compared against database reactions.
type Stoichiometry struct {
	// Net maps each base compound ID to its net coefficient across all
	// compartments. Compounds that cancel exactly (pure transport) keep a
	// zero entry so the transport analysis still sees them.
	Net map[string]float64
	// Transport maps base compound IDs moved across the membrane to the
	// coefficient they carry in the most external compartment involved.
	Transport map[string]float64
	// Proton is the net proton coefficient, keyed off the parsed base ID.
	Proton float64
	// Compartments holds every compartment code the reaction touches.
	Compartments map[string]bool
}

// IsTransport reports whether any compound crosses compartments.
func (s *Stoichiometry) IsTransport() bool {
	return len(s.Transport) > 0
}

// IsPureTransport reports whether every transported compound has zero net
// stoichiometry, ignoring protons (proton-coupled transporters still count
// as pure transport).
func (s *Stoichiometry) IsPureTransport() bool {
	if len(s.Transport) == 0 {
		return false
	}
	for base := range s.Net {
		if _, moved := s.Transport[base]; moved {
			continue
		}
		if isProtonBase(base) {
			continue
		}
		if math.Abs(s.Net[base]) > coefEpsilon {
			return false
		}
	}
	for base := range s.Transport {
		if math.Abs(s.Net[base]) > coefEpsilon {
			return false
		}
	}
	return true
}

func isProtonBase(base string) bool {
	return base == ProtonID || base == "h" || base == "H"
}

// ParseStoichiometry folds a model reaction's compartmentized metabolites
// into base-compound terms. Base IDs come from ParseID on each metabolite;
// a compound appearing in several compartments contributes to Transport
// with the coefficient it carries in the most external one.
func ParseStoichiometry(rxn *Reaction) *Stoichiometry {
	s := &Stoichiometry{
		Net:          map[string]float64{},
		Transport:    map[string]float64{},
		Compartments: map[string]bool{},
	}
	// Per-base bookkeeping of which compartments the compound occupies and
	// its coefficient in each.
	perBase := map[string]map[string]float64{}
	for _, met := range rxn.SortedMetabolites() {
		coef := rxn.Metabolites[met]
		parsed := ParseID(met.ID, nil)
		base := parsed.Base
		comp := parsed.Compartment
		if met.Compartment != "" {
			if code, ok := NormalizeCompartment(met.Compartment); ok {
				comp = code
			}
		}
		s.Compartments[comp] = true
		s.Net[base] += coef
		byComp, ok := perBase[base]
		if !ok {
			byComp = map[string]float64{}
			perBase[base] = byComp
		}
		byComp[comp] += coef
		if isProtonBase(base) {
			s.Proton += coef
		}
	}
	for base, byComp := range perBase {
		if len(byComp) < 2 {
			continue
		}
		outer := ""
		for comp := range byComp {
			if outer == "" || MoreExternal(comp, outer) {
				outer = comp
			}
		}
		s.Transport[base] = byComp[outer]
	}
	// Snap vanishing net coefficients to exact zero.
	for base, coef := range s.Net {
		if math.Abs(coef) <= coefEpsilon {
			s.Net[base] = 0
		}
	}
	return s
}

// ParseDBStoichiometry builds the same summary for a database reaction.
func ParseDBStoichiometry(rxn *DBReaction) *Stoichiometry {
	s := &Stoichiometry{
		Net:          map[string]float64{},
		Transport:    map[string]float64{},
		Compartments: map[string]bool{},
	}
	perBase := map[string]map[string]float64{}
	for _, p := range rxn.Stoichiometry {
		comp := p.Compartment
		if code, ok := NormalizeCompartment(p.Compartment); ok {
			comp = code
		}
		s.Compartments[comp] = true
		s.Net[p.CompoundID] += p.Coefficient
		byComp, ok := perBase[p.CompoundID]
		if !ok {
			byComp = map[string]float64{}
			perBase[p.CompoundID] = byComp
		}
		byComp[comp] += p.Coefficient
		if isProtonBase(p.CompoundID) {
			s.Proton += p.Coefficient
		}
	}
	for base, byComp := range perBase {
		if len(byComp) < 2 {
			continue
		}
		outer := ""
		for comp := range byComp {
			if outer == "" || MoreExternal(comp, outer) {
				outer = comp
			}
		}
		s.Transport[base] = byComp[outer]
	}
	for base, coef := range s.Net {
		if math.Abs(coef) <= coefEpsilon {
			s.Net[base] = 0
		}
	}
	return s
}
