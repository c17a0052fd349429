// Package modelio reads and writes metabolic models in COBRApy JSON form
// and loads biochemistry-database snapshots.
package modelio

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/pkg/errors"
)

// Annotation tolerates the two shapes COBRApy emits for annotation values:
// a bare string or a list of strings.
type Annotation map[string][]string

// UnmarshalJSON accepts {"ns": "v"} and {"ns": ["v1", "v2"]} alike.
func (a *Annotation) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Annotation, len(raw))
	for ns, msg := range raw {
		var single string
		if err := json.Unmarshal(msg, &single); err == nil {
			out[ns] = []string{single}
			continue
		}
		var many []string
		if err := json.Unmarshal(msg, &many); err != nil {
			return err
		}
		out[ns] = many
	}
	*a = out
	return nil
}

type jsonMetabolite struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Compartment string     `json:"compartment,omitempty"`
	Formula     string     `json:"formula,omitempty"`
	Charge      int        `json:"charge,omitempty"`
	Annotation  Annotation `json:"annotation,omitempty"`
}

type jsonGene struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type jsonReaction struct {
	ID               string             `json:"id"`
	Name             string             `json:"name,omitempty"`
	Metabolites      map[string]float64 `json:"metabolites"`
	LowerBound       float64            `json:"lower_bound"`
	UpperBound       float64            `json:"upper_bound"`
	GeneReactionRule string             `json:"gene_reaction_rule,omitempty"`
	Annotation       Annotation         `json:"annotation,omitempty"`
}

type jsonModel struct {
	ID          string           `json:"id"`
	Metabolites []jsonMetabolite `json:"metabolites"`
	Reactions   []jsonReaction   `json:"reactions"`
	Genes       []jsonGene       `json:"genes"`
}

// ReadModel loads a COBRApy JSON model from path.
func ReadModel(path string) (*biochem.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeModelInvalid, "reading model file %s", path)
	}
	return ParseModel(data)
}

// ParseModel decodes a COBRApy JSON model.
func ParseModel(data []byte) (*biochem.Model, error) {
	var jm jsonModel
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelInvalid, "decoding model JSON")
	}

	model := biochem.NewModel(jm.ID)
	for _, m := range jm.Metabolites {
		met := &biochem.Metabolite{
			ID:          m.ID,
			Name:        m.Name,
			Compartment: m.Compartment,
			Formula:     m.Formula,
			Charge:      m.Charge,
			Annotation:  m.Annotation,
		}
		if err := model.AddMetabolite(met); err != nil {
			return nil, err
		}
	}

	genes := map[string]*biochem.Gene{}
	for _, g := range jm.Genes {
		genes[g.ID] = &biochem.Gene{ID: g.ID, Name: g.Name}
	}

	for _, r := range jm.Reactions {
		rxn := &biochem.Reaction{
			ID:               r.ID,
			Name:             r.Name,
			LowerBound:       r.LowerBound,
			UpperBound:       r.UpperBound,
			GeneReactionRule: r.GeneReactionRule,
			Annotation:       r.Annotation,
			Metabolites:      map[*biochem.Metabolite]float64{},
		}
		for metID, coef := range r.Metabolites {
			met, ok := model.Metabolite(metID)
			if !ok {
				return nil, errors.Newf(errors.ErrCodeModelInvalid,
					"reaction %s references unknown metabolite %s", r.ID, metID)
			}
			rxn.Metabolites[met] = coef
		}
		for _, geneID := range parseGeneRule(r.GeneReactionRule) {
			gene, ok := genes[geneID]
			if !ok {
				gene = &biochem.Gene{ID: geneID}
				genes[geneID] = gene
			}
			rxn.Genes = append(rxn.Genes, gene)
		}
		if err := model.AddReaction(rxn); err != nil {
			return nil, err
		}
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// parseGeneRule extracts the gene IDs from a boolean gene-reaction rule,
// discarding the and/or structure, which ID translation never needs.
func parseGeneRule(rule string) []string {
	if rule == "" {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	token := []rune{}
	flush := func() {
		if len(token) == 0 {
			return
		}
		word := string(token)
		token = token[:0]
		if word == "and" || word == "or" || word == "AND" || word == "OR" {
			return
		}
		if !seen[word] {
			seen[word] = true
			out = append(out, word)
		}
	}
	for _, r := range rule {
		switch r {
		case ' ', '(', ')', '\t':
			flush()
		default:
			token = append(token, r)
		}
	}
	flush()
	return out
}

// WriteModel saves a model as COBRApy JSON at path.
func WriteModel(model *biochem.Model, path string) error {
	data, err := MarshalModel(model)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrCodeModelInvalid, "writing model file %s", path)
	}
	return nil
}

// MarshalModel encodes a model as COBRApy JSON.
func MarshalModel(model *biochem.Model) ([]byte, error) {
	jm := jsonModel{ID: model.ID}
	for _, met := range model.Metabolites() {
		jm.Metabolites = append(jm.Metabolites, jsonMetabolite{
			ID:          met.ID,
			Name:        met.Name,
			Compartment: met.Compartment,
			Formula:     met.Formula,
			Charge:      met.Charge,
			Annotation:  met.Annotation,
		})
	}
	for _, gene := range model.Genes() {
		jm.Genes = append(jm.Genes, jsonGene{ID: gene.ID, Name: gene.Name})
	}
	for _, rxn := range model.Reactions() {
		jr := jsonReaction{
			ID:               rxn.ID,
			Name:             rxn.Name,
			LowerBound:       rxn.LowerBound,
			UpperBound:       rxn.UpperBound,
			GeneReactionRule: rxn.GeneReactionRule,
			Annotation:       rxn.Annotation,
			Metabolites:      map[string]float64{},
		}
		for met, coef := range rxn.Metabolites {
			jr.Metabolites[met.ID] = coef
		}
		jm.Reactions = append(jm.Reactions, jr)
	}
	sort.Slice(jm.Reactions, func(i, j int) bool { return jm.Reactions[i].ID < jm.Reactions[j].ID })
	data, err := json.MarshalIndent(jm, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeModelInvalid, "encoding model JSON")
	}
	return data, nil
}
