// Package biochem implements the model-to-ModelSEED matching and
// namespace-translation engine: identifier parsing, multi-channel compound and
// reaction matching against a biochemistry database, iterative resolution of
// ambiguous matches into a one-to-one translation, in-place application of the
// translation to a model, and comparison of a model against a reference
// ModelSEED model.
//
// All state is per-invocation and in-memory. Nothing in this package performs
// I/O; the Database and Model values are constructed by the caller (see
// internal/infrastructure/modelio) and passed in explicitly.
package biochem

// compartmentCodes maps every recognized compartment spelling to its
// single-letter code. Unrecognized spellings fall back to cytosol with a
// warning; see ParseID.
var compartmentCodes = map[string]string{
	"cytosol":       "c",
	"extracellar":   "e",
	"extracellular": "e",
	"extraorganism": "e",
	"environment":   "e",
	"env":           "e",
	"periplasm":     "p",
	"membrane":      "m",
	"mitochondria":  "m",
	"c":             "c",
	"e":             "e",
	"p":             "p",
	"m":             "m",
}

// externalityRank orders compartments from most external to most internal.
// Transport stoichiometry treats the metabolite instance in the more external
// compartment as the transported species.
var externalityRank = map[string]int{
	"env": 0,
	"e":   1,
	"p":   2,
	"m":   3,
	"c":   4,
}

// ProtonID is the ModelSEED identifier for H+. Proton imbalances are
// tolerated in several places: a single unmatched proton does not spoil an
// otherwise perfect equation match, and pure-transport detection ignores
// protons entirely.
const ProtonID = "cpd00067"

// utilityReactionPrefixes are the 3-character ID prefixes of synthetic
// bookkeeping reactions (exchanges, sinks, demands, biomass). Reactions with
// these prefixes are never matched against the biochemistry database.
var utilityReactionPrefixes = map[string]bool{
	"EXF": true,
	"EX_": true,
	"SK_": true,
	"DM_": true,
	"bio": true,
}

// IsUtilityReaction reports whether a reaction ID names a synthetic
// bookkeeping reaction rather than biochemistry.
func IsUtilityReaction(id string) bool {
	if len(id) < 3 {
		return false
	}
	return utilityReactionPrefixes[id[0:3]]
}

// NormalizeCompartment resolves a compartment spelling to its single-letter
// code, returning ok=false when the spelling is not in the vocabulary.
func NormalizeCompartment(name string) (string, bool) {
	code, ok := compartmentCodes[name]
	return code, ok
}

// MoreExternal reports whether compartment a is more external than b.
// Compartments outside the ranking are treated as most internal.
func MoreExternal(a, b string) bool {
	ra, ok := externalityRank[a]
	if !ok {
		ra = len(externalityRank)
	}
	rb, ok := externalityRank[b]
	if !ok {
		rb = len(externalityRank)
	}
	return ra < rb
}
