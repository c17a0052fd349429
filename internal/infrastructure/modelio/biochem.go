package modelio

import (
	"encoding/json"
	"os"

	"github.com/modelseed/kbutil/internal/domain/biochem"
	"github.com/modelseed/kbutil/pkg/errors"
)

type jsonCompound struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	Names      []string   `json:"names,omitempty"`
	Formula    string     `json:"formula,omitempty"`
	Charge     int        `json:"charge,omitempty"`
	Annotation Annotation `json:"annotation,omitempty"`
	Obsolete   bool       `json:"is_obsolete,omitempty"`
}

type jsonParticipant struct {
	Compound    string  `json:"compound"`
	Compartment string  `json:"compartment"`
	Coefficient float64 `json:"coefficient"`
}

type jsonDBReaction struct {
	ID            string            `json:"id"`
	Name          string            `json:"name,omitempty"`
	Names         []string          `json:"names,omitempty"`
	ECNumbers     []string          `json:"ec_numbers,omitempty"`
	Stoichiometry []jsonParticipant `json:"stoichiometry"`
	// Reversibility carries the ModelSEED direction flag: "=" reversible,
	// ">" forward, "<" reverse. Bounds are derived from it.
	Reversibility string     `json:"reversibility,omitempty"`
	Annotation    Annotation `json:"annotation,omitempty"`
	Obsolete      bool       `json:"is_obsolete,omitempty"`
}

// boundsFromReversibility maps a ModelSEED direction flag onto flux bounds.
func boundsFromReversibility(flag string) (float64, float64) {
	switch flag {
	case ">":
		return 0, 1000
	case "<":
		return -1000, 0
	default:
		return -1000, 1000
	}
}

// ReadDatabase loads a biochemistry snapshot from separate compound and
// reaction JSON files and builds the search indexes.
func ReadDatabase(compoundsPath, reactionsPath string) (*biochem.Database, error) {
	cpdData, err := os.ReadFile(compoundsPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeDatabaseLoad, "reading compounds file %s", compoundsPath)
	}
	rxnData, err := os.ReadFile(reactionsPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeDatabaseLoad, "reading reactions file %s", reactionsPath)
	}
	return ParseDatabase(cpdData, rxnData)
}

// ParseDatabase decodes compound and reaction JSON collections into an
// indexed Database.
func ParseDatabase(cpdData, rxnData []byte) (*biochem.Database, error) {
	var jsonCpds []jsonCompound
	if err := json.Unmarshal(cpdData, &jsonCpds); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseLoad, "decoding compounds JSON")
	}
	var jsonRxns []jsonDBReaction
	if err := json.Unmarshal(rxnData, &jsonRxns); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseLoad, "decoding reactions JSON")
	}

	compounds := make([]*biochem.Compound, 0, len(jsonCpds))
	for _, jc := range jsonCpds {
		compounds = append(compounds, &biochem.Compound{
			ID:         jc.ID,
			Name:       jc.Name,
			Names:      jc.Names,
			Formula:    jc.Formula,
			Charge:     jc.Charge,
			Annotation: jc.Annotation,
			Obsolete:   jc.Obsolete,
		})
	}

	reactions := make([]*biochem.DBReaction, 0, len(jsonRxns))
	for _, jr := range jsonRxns {
		lb, ub := boundsFromReversibility(jr.Reversibility)
		rxn := &biochem.DBReaction{
			ID:         jr.ID,
			Name:       jr.Name,
			Names:      jr.Names,
			ECNumbers:  jr.ECNumbers,
			LowerBound: lb,
			UpperBound: ub,
			Annotation: jr.Annotation,
			Obsolete:   jr.Obsolete,
		}
		for _, p := range jr.Stoichiometry {
			rxn.Stoichiometry = append(rxn.Stoichiometry, biochem.Participant{
				CompoundID:  p.Compound,
				Compartment: p.Compartment,
				Coefficient: p.Coefficient,
			})
		}
		reactions = append(reactions, rxn)
	}
	return biochem.NewDatabase(compounds, reactions)
}

type jsonTemplate struct {
	Name      string   `json:"name"`
	Compounds []string `json:"compounds"`
	Reactions []string `json:"reactions"`
}

// ReadTemplate loads a model template used as a candidate membership filter.
func ReadTemplate(path string) (*biochem.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeTemplateNotFound, "reading template file %s", path)
	}
	var jt jsonTemplate
	if err := json.Unmarshal(data, &jt); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTemplateNotFound, "decoding template JSON")
	}
	tpl := &biochem.Template{
		Name:      jt.Name,
		Compounds: make(map[string]bool, len(jt.Compounds)),
		Reactions: make(map[string]bool, len(jt.Reactions)),
	}
	for _, id := range jt.Compounds {
		tpl.Compounds[id] = true
	}
	for _, id := range jt.Reactions {
		tpl.Reactions[id] = true
	}
	return tpl, nil
}
