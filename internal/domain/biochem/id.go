package biochem

import (
	"regexp"
	"strings"

	"github.com/modelseed/kbutil/internal/infrastructure/logging"
)

// ParsedID is the decomposition of a compound or reaction identifier into its
// base ID, single-letter compartment code, and optional numeric index.
// Rejoining the parts reproduces a valid identifier in either notation; see
// Underscore and Bracket.
type ParsedID struct {
	Base        string
	Compartment string
	Index       string
}

// Underscore renders the parsed ID in underscore notation ("cpd00002_c0").
// When Index is empty the compartment is emitted bare ("cpd00002_c").
func (p ParsedID) Underscore() string {
	return p.Base + "_" + p.Compartment + p.Index
}

// Bracket renders the parsed ID in bracket notation ("adp[c]"), discarding
// the index, which bracket notation cannot carry.
func (p ParsedID) Bracket() string {
	return p.Base + "[" + p.Compartment + "]"
}

var (
	bracketIDPattern    = regexp.MustCompile(`^(.+)\[([a-zA-Z]+)\]$`)
	underscoreIDPattern = regexp.MustCompile(`^(.+)_([a-zA-Z]+)(\d*)$`)
)

// ParseID decomposes an entity identifier, trying bracket notation
// ("adp[c]") first, then underscore notation ("cpd01024_c0"). Compartment
// tokens outside the recognized vocabulary degrade to cytosol: for bracket
// notation the token is dropped, for underscore notation it is folded back
// into the base ID on the assumption it was part of the name. An identifier
// with no compartment marker at all is returned whole with compartment "c".
//
// Every degradation path is surfaced as a warning on log, never as an error;
// unknown compartments are a data-quality signal, not a failure.
func ParseID(id string, log logging.Logger) ParsedID {
	if log == nil {
		log = logging.NewNop()
	}
	if m := bracketIDPattern.FindStringSubmatch(id); m != nil {
		base, comp := m[1], m[2]
		code, ok := NormalizeCompartment(strings.ToLower(comp))
		if !ok {
			log.Warn("compartment token not recognized in bracket notation, defaulting to cytosol",
				logging.String("id", id), logging.String("compartment", comp))
			code = "c"
		}
		return ParsedID{Base: base, Compartment: code}
	}

	if m := underscoreIDPattern.FindStringSubmatch(id); m != nil {
		base, comp, index := m[1], m[2], m[3]
		code, ok := NormalizeCompartment(strings.ToLower(comp))
		if !ok {
			log.Warn("compartment token not recognized, folding back into base ID",
				logging.String("id", id), logging.String("compartment", comp))
			return ParsedID{Base: base + "_" + comp, Compartment: "c", Index: index}
		}
		return ParsedID{Base: base, Compartment: code, Index: index}
	}

	log.Warn("identifier has no compartment marker, defaulting to cytosol",
		logging.String("id", id))
	return ParsedID{Base: id, Compartment: "c"}
}
