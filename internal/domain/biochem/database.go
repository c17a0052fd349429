package biochem

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/modelseed/kbutil/pkg/errors"
)

// Compound is one biochemistry-database compound (compartment-free).
type Compound struct {
	ID      string
	Name    string
	Names   []string
	Formula string
	Charge  int
	// Annotation maps cross-reference namespaces to values, including the
	// structure namespaces "InChI", "SMILE" and "InChIKey".
	Annotation map[string][]string
	Obsolete   bool
}

// Participant is one compound slot of a database reaction.
type Participant struct {
	CompoundID  string
	Compartment string
	Coefficient float64
}

// DBReaction is one biochemistry-database reaction.
type DBReaction struct {
	ID            string
	Name          string
	Names         []string
	ECNumbers     []string
	Stoichiometry []Participant
	LowerBound    float64
	UpperBound    float64
	Annotation    map[string][]string
	Obsolete      bool
}

// Directionality classifies a database reaction by its bounds.
func (r *DBReaction) Directionality() string {
	switch {
	case r.LowerBound < 0 && r.UpperBound > 0:
		return "reversible"
	case r.UpperBound > 0:
		return "forward"
	case r.LowerBound < 0:
		return "reverse"
	default:
		return "blocked"
	}
}

// IsTransport reports whether the reaction spans more than one compartment.
func (r *DBReaction) IsTransport() bool {
	comps := map[string]bool{}
	for _, p := range r.Stoichiometry {
		comps[p.Compartment] = true
	}
	return len(comps) > 1
}

// indexEntry records which entity IDs share one standardized identifier and
// which namespace the identifier came from.
type indexEntry struct {
	Type string
	IDs  []string
}

// Database is an in-memory snapshot of a ModelSEED-style biochemistry
// database with the derived indexes the matchers query. It is constructed
// once by the caller and treated as read-only afterwards; there is no global
// instance.
type Database struct {
	compounds  []*Compound
	reactions  []*DBReaction
	cpdByID    map[string]*Compound
	rxnByID    map[string]*DBReaction

	// cpdIdentifiers: standardized identifier -> compound IDs.
	cpdIdentifiers map[string]*indexEntry
	// structures: structure string (and InChIKey prefixes) -> compound IDs.
	structures map[string]*indexEntry
	// elementIndex: element -> count -> compound IDs with exactly that count.
	elementIndex map[string]map[int][]string
	// heavyElementCount: compound -> number of distinct non-H elements.
	heavyElementCount map[string]int
	// cpdElements: compound -> parsed formula.
	cpdElements map[string]map[string]int

	// rxnIdentifiers: standardized identifier -> reaction IDs.
	rxnIdentifiers map[string]*indexEntry
	// ecIndex: EC number -> reaction IDs.
	ecIndex map[string][]string
	// participation: compound ID -> reaction IDs containing it.
	participation map[string][]string
}

// structureNamespaces are the compound annotation namespaces carrying
// structure strings rather than identifiers.
var structureNamespaces = map[string]bool{
	"smiles": true, "smile": true, "inchi": true, "inchikey": true, "structure": true,
}

var punctStripper = strings.NewReplacer(
	" ", "", "\t", "", "\n", "", "-", "", "_", "", ",", "", ";", "", ":", "",
	"'", "", "\"", "", "(", "", ")", "", "[", "", "]", "", "{", "", "}", "",
	"+", "", ".", "", "/", "", "\\", "",
)

// standardizeString folds an identifier for index lookup: punctuation and
// whitespace removed, lowercased. Matches the normalization applied when the
// indexes were built, so lookups are insensitive to the usual alias noise.
func standardizeString(s string) string {
	return strings.ToLower(punctStripper.Replace(s))
}

var formulaTokenPattern = regexp.MustCompile(`([A-Z][a-z]*)(\d*)`)

// parseFormula decomposes a molecular formula into element counts.
func parseFormula(formula string) map[string]int {
	counts := map[string]int{}
	for _, m := range formulaTokenPattern.FindAllStringSubmatch(formula, -1) {
		if m[1] == "" {
			continue
		}
		n := 1
		if m[2] != "" {
			parsed, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			n = parsed
		}
		counts[m[1]] += n
	}
	return counts
}

// NewDatabase builds a Database and all derived indexes from compound and
// reaction collections. Obsolete entries are retained for by-ID lookup but
// excluded from every search index.
func NewDatabase(compounds []*Compound, reactions []*DBReaction) (*Database, error) {
	db := &Database{
		compounds:         compounds,
		reactions:         reactions,
		cpdByID:           make(map[string]*Compound, len(compounds)),
		rxnByID:           make(map[string]*DBReaction, len(reactions)),
		cpdIdentifiers:    map[string]*indexEntry{},
		structures:        map[string]*indexEntry{},
		elementIndex:      map[string]map[int][]string{},
		heavyElementCount: map[string]int{},
		cpdElements:       map[string]map[string]int{},
		rxnIdentifiers:    map[string]*indexEntry{},
		ecIndex:           map[string][]string{},
		participation:     map[string][]string{},
	}

	for _, cpd := range compounds {
		if _, dup := db.cpdByID[cpd.ID]; dup {
			return nil, errors.Newf(errors.ErrCodeDatabaseLoad, "duplicate compound ID %q", cpd.ID)
		}
		db.cpdByID[cpd.ID] = cpd
		if cpd.Obsolete {
			continue
		}
		db.indexCompound(cpd)
	}

	for _, rxn := range reactions {
		if _, dup := db.rxnByID[rxn.ID]; dup {
			return nil, errors.Newf(errors.ErrCodeDatabaseLoad, "duplicate reaction ID %q", rxn.ID)
		}
		db.rxnByID[rxn.ID] = rxn
		if rxn.Obsolete {
			continue
		}
		db.indexReaction(rxn)
	}
	return db, nil
}

func (db *Database) addCpdIdentifier(key, hitType, cpdID string) {
	if key == "" {
		return
	}
	entry, ok := db.cpdIdentifiers[key]
	if !ok {
		entry = &indexEntry{Type: hitType}
		db.cpdIdentifiers[key] = entry
	}
	entry.IDs = append(entry.IDs, cpdID)
}

func (db *Database) addStructure(key, hitType, cpdID string) {
	if key == "" {
		return
	}
	entry, ok := db.structures[key]
	if !ok {
		entry = &indexEntry{Type: hitType}
		db.structures[key] = entry
	}
	entry.IDs = append(entry.IDs, cpdID)
}

func (db *Database) indexCompound(cpd *Compound) {
	db.addCpdIdentifier(standardizeString(cpd.ID), "msid", cpd.ID)
	db.addCpdIdentifier(standardizeString(cpd.Name), "name", cpd.ID)
	for _, name := range cpd.Names {
		db.addCpdIdentifier(standardizeString(name), "synonym", cpd.ID)
	}
	for ns, values := range cpd.Annotation {
		if structureNamespaces[strings.ToLower(ns)] {
			for _, v := range values {
				db.addStructure(v, ns, cpd.ID)
				// InChIKeys additionally index under their connectivity
				// block and connectivity+proton blocks so near-identical
				// structures still hit.
				if strings.ToLower(ns) == "inchikey" {
					parts := strings.Split(v, "-")
					if len(parts) >= 2 {
						db.addStructure(parts[0], "inchikey_block1", cpd.ID)
						db.addStructure(parts[0]+"-"+parts[1], "inchikey_block2", cpd.ID)
					}
				}
			}
			continue
		}
		for _, v := range values {
			db.addCpdIdentifier(standardizeString(v), ns, cpd.ID)
		}
	}

	if cpd.Formula != "" {
		elements := parseFormula(cpd.Formula)
		db.cpdElements[cpd.ID] = elements
		heavy := len(elements)
		if _, hasH := elements["H"]; hasH {
			heavy--
		}
		db.heavyElementCount[cpd.ID] = heavy
		for element, count := range elements {
			byCount, ok := db.elementIndex[element]
			if !ok {
				byCount = map[int][]string{}
				db.elementIndex[element] = byCount
			}
			byCount[count] = append(byCount[count], cpd.ID)
		}
	}
}

func (db *Database) addRxnIdentifier(key, hitType, rxnID string) {
	if key == "" {
		return
	}
	entry, ok := db.rxnIdentifiers[key]
	if !ok {
		entry = &indexEntry{Type: hitType}
		db.rxnIdentifiers[key] = entry
	}
	entry.IDs = append(entry.IDs, rxnID)
}

func (db *Database) indexReaction(rxn *DBReaction) {
	db.addRxnIdentifier(standardizeString(rxn.ID), "msid", rxn.ID)
	db.addRxnIdentifier(standardizeString(rxn.Name), "name", rxn.ID)
	for _, name := range rxn.Names {
		db.addRxnIdentifier(standardizeString(name), "synonym", rxn.ID)
	}
	for ns, values := range rxn.Annotation {
		for _, v := range values {
			db.addRxnIdentifier(standardizeString(v), ns, rxn.ID)
		}
	}
	for _, ec := range rxn.ECNumbers {
		ec = strings.TrimSpace(ec)
		db.ecIndex[ec] = append(db.ecIndex[ec], rxn.ID)
	}
	seen := map[string]bool{}
	for _, p := range rxn.Stoichiometry {
		if seen[p.CompoundID] {
			continue
		}
		seen[p.CompoundID] = true
		db.participation[p.CompoundID] = append(db.participation[p.CompoundID], rxn.ID)
	}
}

// Compound looks a compound up by ID.
func (db *Database) Compound(id string) (*Compound, bool) {
	cpd, ok := db.cpdByID[id]
	return cpd, ok
}

// Reaction looks a reaction up by ID.
func (db *Database) Reaction(id string) (*DBReaction, bool) {
	rxn, ok := db.rxnByID[id]
	return rxn, ok
}

// Compounds returns the compound collection.
func (db *Database) Compounds() []*Compound { return db.compounds }

// Reactions returns the reaction collection.
func (db *Database) Reactions() []*DBReaction { return db.reactions }

// ReactionString renders a database reaction equation, optionally with
// compound names.
func (db *Database) ReactionString(rxn *DBReaction, useNames bool) string {
	var lhs, rhs []string
	for _, p := range rxn.Stoichiometry {
		label := p.CompoundID
		if useNames {
			if cpd, ok := db.cpdByID[p.CompoundID]; ok && cpd.Name != "" {
				label = cpd.Name
			}
		}
		label += "[" + p.Compartment + "]"
		term := label
		if abs := math.Abs(p.Coefficient); math.Abs(abs-1) > coefEpsilon {
			term = strconv.FormatFloat(abs, 'g', -1, 64) + " " + label
		}
		if p.Coefficient < 0 {
			lhs = append(lhs, term)
		} else {
			rhs = append(rhs, term)
		}
	}
	arrow := "-->"
	switch rxn.Directionality() {
	case "reversible":
		arrow = "<=>"
	case "reverse":
		arrow = "<--"
	}
	return strings.Join(lhs, " + ") + " " + arrow + " " + strings.Join(rhs, " + ")
}

// Template is a model template used purely as a membership filter during
// matching: candidates outside the template are dropped unless that would
// leave an entity with no candidates at all.
type Template struct {
	Name      string
	Compounds map[string]bool
	Reactions map[string]bool
}

// HasCompound reports template membership for a compound ID.
func (t *Template) HasCompound(id string) bool {
	if t == nil {
		return true
	}
	return t.Compounds[id]
}

// HasReaction reports template membership for a reaction ID. Template
// reaction entries are compartmentized ("rxn00001_c"), so the bare database
// ID is suffixed with "_c" before the test, matching how templates are keyed.
func (t *Template) HasReaction(id string) bool {
	if t == nil {
		return true
	}
	return t.Reactions[id+"_c"]
}
