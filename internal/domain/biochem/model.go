package biochem

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/modelseed/kbutil/pkg/errors"
)

// coefEpsilon is the tolerance below which a stoichiometric coefficient is
// treated as zero.
const coefEpsilon = 1e-9

// Metabolite is one species instance in one compartment of a model.
type Metabolite struct {
	ID          string
	Name        string
	Formula     string
	Charge      int
	Compartment string
	// Annotation maps a cross-reference namespace (e.g. "kegg.compound",
	// "inchikey") to its values. Multi-valued namespaces carry aliases;
	// single-valued structure namespaces carry SMILES/InChI strings.
	Annotation map[string][]string
}

// Gene is a gene participating in one or more gene-reaction rules.
type Gene struct {
	ID   string
	Name string
}

// Reaction is a model reaction with pointer-keyed stoichiometry so that
// metabolite renames never orphan coefficients.
type Reaction struct {
	ID               string
	Name             string
	LowerBound       float64
	UpperBound       float64
	Metabolites      map[*Metabolite]float64
	Genes            []*Gene
	GeneReactionRule string
	Annotation       map[string][]string
}

// Directionality classifies a reaction by its flux bounds.
func (r *Reaction) Directionality() string {
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

// SortedMetabolites returns the reaction's metabolites ordered by ID, for
// deterministic iteration over the pointer-keyed stoichiometry map.
func (r *Reaction) SortedMetabolites() []*Metabolite {
	mets := make([]*Metabolite, 0, len(r.Metabolites))
	for met := range r.Metabolites {
		mets = append(mets, met)
	}
	sort.Slice(mets, func(i, j int) bool { return mets[i].ID < mets[j].ID })
	return mets
}

// AddMetabolite accumulates coef onto the metabolite's coefficient, removing
// the entry when the result is zero. Used when merging compartments.
func (r *Reaction) AddMetabolite(met *Metabolite, coef float64) {
	next := r.Metabolites[met] + coef
	if math.Abs(next) < coefEpsilon {
		delete(r.Metabolites, met)
		return
	}
	r.Metabolites[met] = next
}

// BuildReactionString renders the reaction equation in the familiar
// "a + 2 b <=> c" form, optionally using metabolite names instead of IDs.
func (r *Reaction) BuildReactionString(useNames bool) string {
	var lhs, rhs []string
	for _, met := range r.SortedMetabolites() {
		coef := r.Metabolites[met]
		label := met.ID
		if useNames && met.Name != "" {
			label = met.Name
		}
		term := label
		if abs := math.Abs(coef); math.Abs(abs-1) > coefEpsilon {
			term = strconv.FormatFloat(abs, 'g', -1, 64) + " " + label
		}
		if coef < 0 {
			lhs = append(lhs, term)
		} else {
			rhs = append(rhs, term)
		}
	}
	arrow := "-->"
	switch r.Directionality() {
	case "reversible":
		arrow = "<=>"
	case "reverse":
		arrow = "<--"
	}
	return strings.Join(lhs, " + ") + " " + arrow + " " + strings.Join(rhs, " + ")
}

// Model is an in-memory metabolic model: ordered entity lists with by-ID
// lookup, in the shape exposed by COBRA-style model files.
type Model struct {
	ID   string
	Name string

	metabolites []*Metabolite
	reactions   []*Reaction
	genes       []*Gene
	metByID     map[string]*Metabolite
	rxnByID     map[string]*Reaction
	geneByID    map[string]*Gene
}

// NewModel constructs an empty model.
func NewModel(id string) *Model {
	return &Model{
		ID:       id,
		metByID:  map[string]*Metabolite{},
		rxnByID:  map[string]*Reaction{},
		geneByID: map[string]*Gene{},
	}
}

// AddMetabolite registers a metabolite. Duplicate IDs are rejected.
func (m *Model) AddMetabolite(met *Metabolite) error {
	if _, ok := m.metByID[met.ID]; ok {
		return errors.Newf(errors.ErrCodeConflict, "metabolite %q already in model", met.ID)
	}
	m.metabolites = append(m.metabolites, met)
	m.metByID[met.ID] = met
	return nil
}

// AddReaction registers a reaction, registering any genes not yet seen.
func (m *Model) AddReaction(rxn *Reaction) error {
	if _, ok := m.rxnByID[rxn.ID]; ok {
		return errors.Newf(errors.ErrCodeConflict, "reaction %q already in model", rxn.ID)
	}
	if rxn.Metabolites == nil {
		return errors.Newf(errors.ErrCodeModelInvalid, "reaction %q has no stoichiometry map", rxn.ID)
	}
	for i, gene := range rxn.Genes {
		if existing, ok := m.geneByID[gene.ID]; ok {
			rxn.Genes[i] = existing
			continue
		}
		m.genes = append(m.genes, gene)
		m.geneByID[gene.ID] = gene
	}
	m.reactions = append(m.reactions, rxn)
	m.rxnByID[rxn.ID] = rxn
	return nil
}

// Metabolites returns the ordered metabolite list. Callers must not reorder.
func (m *Model) Metabolites() []*Metabolite { return m.metabolites }

// Reactions returns the ordered reaction list. Callers must not reorder.
func (m *Model) Reactions() []*Reaction { return m.reactions }

// Genes returns the ordered gene list.
func (m *Model) Genes() []*Gene { return m.genes }

// Metabolite looks a metabolite up by ID.
func (m *Model) Metabolite(id string) (*Metabolite, bool) {
	met, ok := m.metByID[id]
	return met, ok
}

// Reaction looks a reaction up by ID.
func (m *Model) Reaction(id string) (*Reaction, bool) {
	rxn, ok := m.rxnByID[id]
	return rxn, ok
}

// Gene looks a gene up by ID.
func (m *Model) Gene(id string) (*Gene, bool) {
	g, ok := m.geneByID[id]
	return g, ok
}

// HasMetabolite reports whether a metabolite ID exists in the model.
func (m *Model) HasMetabolite(id string) bool { _, ok := m.metByID[id]; return ok }

// HasReaction reports whether a reaction ID exists in the model.
func (m *Model) HasReaction(id string) bool { _, ok := m.rxnByID[id]; return ok }

// RenameMetabolite changes a metabolite's ID, keeping the lookup index
// consistent. Stoichiometry is untouched because it is pointer-keyed.
func (m *Model) RenameMetabolite(met *Metabolite, newID string) error {
	if existing, ok := m.metByID[newID]; ok && existing != met {
		return errors.Newf(errors.ErrCodeConflict, "metabolite ID %q already in model", newID)
	}
	delete(m.metByID, met.ID)
	met.ID = newID
	m.metByID[newID] = met
	return nil
}

// RenameReaction changes a reaction's ID, keeping the lookup index consistent.
func (m *Model) RenameReaction(rxn *Reaction, newID string) error {
	if existing, ok := m.rxnByID[newID]; ok && existing != rxn {
		return errors.Newf(errors.ErrCodeConflict, "reaction ID %q already in model", newID)
	}
	delete(m.rxnByID, rxn.ID)
	rxn.ID = newID
	m.rxnByID[newID] = rxn
	return nil
}

// RemoveReactions deletes the given reactions from the model.
func (m *Model) RemoveReactions(rxns []*Reaction) {
	doomed := make(map[*Reaction]bool, len(rxns))
	for _, rxn := range rxns {
		doomed[rxn] = true
		delete(m.rxnByID, rxn.ID)
	}
	kept := m.reactions[:0]
	for _, rxn := range m.reactions {
		if !doomed[rxn] {
			kept = append(kept, rxn)
		}
	}
	m.reactions = kept
}

// RemoveMetabolites deletes the given metabolites from the model and from
// every reaction that references them.
func (m *Model) RemoveMetabolites(mets []*Metabolite) {
	doomed := make(map[*Metabolite]bool, len(mets))
	for _, met := range mets {
		doomed[met] = true
		delete(m.metByID, met.ID)
	}
	kept := m.metabolites[:0]
	for _, met := range m.metabolites {
		if !doomed[met] {
			kept = append(kept, met)
		}
	}
	m.metabolites = kept
	for _, rxn := range m.reactions {
		for met := range rxn.Metabolites {
			if doomed[met] {
				delete(rxn.Metabolites, met)
			}
		}
	}
}

// ReactionsFor returns every reaction in which the metabolite participates.
func (m *Model) ReactionsFor(met *Metabolite) []*Reaction {
	var out []*Reaction
	for _, rxn := range m.reactions {
		if _, ok := rxn.Metabolites[met]; ok {
			out = append(out, rxn)
		}
	}
	return out
}

// ReactionsForGene returns every reaction whose gene rule includes the gene.
func (m *Model) ReactionsForGene(geneID string) []*Reaction {
	var out []*Reaction
	for _, rxn := range m.reactions {
		for _, g := range rxn.Genes {
			if g.ID == geneID {
				out = append(out, rxn)
				break
			}
		}
	}
	return out
}

// Validate checks structural sanity: every reaction has a stoichiometry map
// and references only registered metabolites.
func (m *Model) Validate() error {
	for _, rxn := range m.reactions {
		if rxn.Metabolites == nil {
			return errors.Newf(errors.ErrCodeModelInvalid, "reaction %q has no stoichiometry map", rxn.ID)
		}
		for met := range rxn.Metabolites {
			if registered, ok := m.metByID[met.ID]; !ok || registered != met {
				return errors.Newf(errors.ErrCodeModelInvalid,
					"reaction %q references unregistered metabolite %q", rxn.ID, met.ID)
			}
		}
	}
	return nil
}

// String implements fmt.Stringer for diagnostics.
func (m *Model) String() string {
	return fmt.Sprintf("Model(%s: %d metabolites, %d reactions, %d genes)",
		m.ID, len(m.metabolites), len(m.reactions), len(m.genes))
}
