package biochem

import (
	"regexp"
	"sort"
	"strings"
)

var ecPattern = regexp.MustCompile(`(?i)^(?:EC\s*)?([1-7])\.(\d+|-)\.(\d+|-)\.(\d+|-)$`)

// NormalizeEC validates an EC number, tolerating an "EC" prefix and dash
// wildcards, and returns it in bare dotted form.
func NormalizeEC(s string) (string, bool) {
	m := ecPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[1] + "." + m[2] + "." + m[3] + "." + m[4], true
}

// SearchCompounds scores database compounds against everything known about
// one model metabolite: its identifier aliases, structure strings, and
// molecular formula. Evidence channels accumulate, so a compound hit by an
// alias and a structure outranks one hit by either alone.
func (db *Database) SearchCompounds(identifiers []string, structures []string, formula string) CompoundMatches {
	matches := CompoundMatches{}
	candidate := func(id string) *CompoundCandidate {
		cand, ok := matches[id]
		if !ok {
			cand = &CompoundCandidate{ID: id}
			matches[id] = cand
		}
		return cand
	}

	seen := map[string]bool{}
	for _, query := range identifiers {
		key := standardizeString(query)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if entry, ok := db.cpdIdentifiers[key]; ok {
			for _, id := range entry.IDs {
				candidate(id).addIdentifierHit(entry.Type, query)
			}
		}
	}

	for _, query := range structures {
		keys := []string{query}
		// InChIKey queries also probe the connectivity-block prefixes.
		if parts := strings.Split(query, "-"); len(parts) == 3 {
			keys = append(keys, parts[0]+"-"+parts[1], parts[0])
		}
		matchedIDs := map[string]bool{}
		for _, key := range keys {
			entry, ok := db.structures[key]
			if !ok {
				continue
			}
			for _, id := range entry.IDs {
				if matchedIDs[id] {
					continue
				}
				matchedIDs[id] = true
				candidate(id).addStructureHit(entry.Type, query)
			}
		}
	}

	if formula != "" {
		db.searchByFormula(formula, matches, candidate)
	}
	return matches
}

// searchByFormula finds compounds whose heavy-atom composition matches the
// query formula exactly, scoring an extra point when hydrogen counts also
// agree. Hydrogen is scored separately because protonation-state differences
// between namespaces are routine.
func (db *Database) searchByFormula(formula string, matches CompoundMatches, candidate func(string) *CompoundCandidate) {
	elements := parseFormula(formula)
	queryH := elements["H"]
	delete(elements, "H")
	if len(elements) == 0 {
		return
	}

	// Intersect the per-element indexes, seeding from the rarest bucket.
	var pool []string
	first := true
	for element, count := range elements {
		byCount, ok := db.elementIndex[element]
		if !ok {
			return
		}
		ids, ok := byCount[count]
		if !ok {
			return
		}
		if first {
			pool = ids
			first = false
			continue
		}
		keep := map[string]bool{}
		for _, id := range ids {
			keep[id] = true
		}
		var next []string
		for _, id := range pool {
			if keep[id] {
				next = append(next, id)
			}
		}
		pool = next
		if len(pool) == 0 {
			return
		}
	}

	for _, id := range pool {
		if db.heavyElementCount[id] != len(elements) {
			continue
		}
		cand := candidate(id)
		if cand.FormulaMatch {
			continue
		}
		cand.FormulaMatch = true
		cand.Score += scoreFormulaHeavy
		if db.cpdElements[id]["H"] == queryH {
			cand.HydrogenMatch = true
			cand.Score += scoreFormulaHydrogen
		}
	}
}

// ReactionQuery carries everything known about one model reaction when
// searching the database: aliases, EC numbers, the compartment-folded
// stoichiometry, and the compound candidates already in play. Candidates is
// keyed by base compound ID; compounds already translated should appear as
// single-entry candidate sets.
type ReactionQuery struct {
	Identifiers []string
	ECNumbers   []string
	Stoich      *Stoichiometry
	Candidates  map[string]CompoundMatches
}

// cpdCandidateIDs resolves the database compounds a model base compound may
// stand for, including the literal ID when it already names a database
// compound.
func (db *Database) cpdCandidateIDs(base string, candidates map[string]CompoundMatches) map[string]bool {
	out := map[string]bool{}
	for id := range candidates[base] {
		out[id] = true
	}
	if _, ok := db.cpdByID[base]; ok {
		out[base] = true
	}
	return out
}

// SearchReactions scores database reactions against one model reaction. The
// evidence channels are identifier aliases, EC numbers, per-compound
// equation coverage under the current compound candidates, and transport
// topology for cross-compartment reactions.
func (db *Database) SearchReactions(q ReactionQuery) ReactionMatches {
	matches := ReactionMatches{}
	candidate := func(id string) *ReactionCandidate {
		cand, ok := matches[id]
		if !ok {
			cand = &ReactionCandidate{ID: id}
			matches[id] = cand
		}
		return cand
	}

	seen := map[string]bool{}
	for _, query := range q.Identifiers {
		key := standardizeString(query)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if entry, ok := db.rxnIdentifiers[key]; ok {
			for _, id := range entry.IDs {
				candidate(id).addIdentifierHit(entry.Type, query)
			}
		}
	}

	for _, raw := range q.ECNumbers {
		ec, ok := NormalizeEC(raw)
		if !ok {
			continue
		}
		for _, id := range db.ecIndex[ec] {
			cand := candidate(id)
			cand.ECHits = append(cand.ECHits, ec)
			cand.Score += scoreECHit
		}
	}

	if q.Stoich == nil {
		return matches
	}

	// Every database reaction containing a candidate of any model compound
	// is a potential equation match.
	perBase := map[string]map[string]bool{}
	rxnPool := map[string]bool{}
	for base := range q.Stoich.Net {
		ids := db.cpdCandidateIDs(base, q.Candidates)
		perBase[base] = ids
		for cpdID := range ids {
			for _, rxnID := range db.participation[cpdID] {
				rxnPool[rxnID] = true
			}
		}
	}
	for rxnID := range matches {
		rxnPool[rxnID] = true
	}

	for rxnID := range rxnPool {
		rxn, ok := db.rxnByID[rxnID]
		if !ok || rxn.Obsolete {
			continue
		}
		eq := db.scoreEquation(rxn, q.Stoich, perBase)
		if eq.Matched == 0 {
			continue
		}
		cand := candidate(rxnID)
		cand.Equation = eq
		cand.Score += float64(eq.Matched) * scoreEquationCompound
		cand.ProtonMatch = eq.UnmatchedCount() == 1 && db.unmatchedIsProton(eq, q.Candidates)

		if q.Stoich.IsTransport() && rxn.IsTransport() {
			ts := db.scoreTransport(rxn, q.Stoich, perBase)
			cand.Transport = ts
			cand.Score += ts.Fraction * scoreTransportMax
		}
	}
	return matches
}

// scoreEquation aligns the model reaction's base compounds against one
// database reaction. Each model compound may claim at most one database
// compound and vice versa; claims are resolved greedily in sorted order so
// the outcome is deterministic.
func (db *Database) scoreEquation(rxn *DBReaction, stoich *Stoichiometry, perBase map[string]map[string]bool) *EquationScore {
	dbCpds := map[string]bool{}
	for _, p := range rxn.Stoichiometry {
		dbCpds[p.CompoundID] = true
	}

	eq := &EquationScore{
		Total:               len(stoich.Net),
		ImpliedTranslations: map[string]string{},
	}

	bases := make([]string, 0, len(stoich.Net))
	for base := range stoich.Net {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	claimed := map[string]bool{}
	for _, base := range bases {
		var hit string
		cpdIDs := make([]string, 0, len(perBase[base]))
		for id := range perBase[base] {
			cpdIDs = append(cpdIDs, id)
		}
		sort.Strings(cpdIDs)
		for _, cpdID := range cpdIDs {
			if dbCpds[cpdID] && !claimed[cpdID] {
				hit = cpdID
				break
			}
		}
		if hit == "" {
			eq.UnmatchedModel = append(eq.UnmatchedModel, base)
			continue
		}
		claimed[hit] = true
		eq.Matched++
		eq.ImpliedTranslations[base] = hit
	}

	dbIDs := make([]string, 0, len(dbCpds))
	for id := range dbCpds {
		dbIDs = append(dbIDs, id)
	}
	sort.Strings(dbIDs)
	for _, id := range dbIDs {
		if !claimed[id] {
			eq.UnmatchedDB = append(eq.UnmatchedDB, id)
		}
	}
	return eq
}

// unmatchedIsProton reports whether the single uncovered compound of an
// equation alignment is a proton, either literally or through its candidate
// translations.
func (db *Database) unmatchedIsProton(eq *EquationScore, candidates map[string]CompoundMatches) bool {
	if len(eq.UnmatchedDB) == 1 {
		return eq.UnmatchedDB[0] == ProtonID
	}
	if len(eq.UnmatchedModel) != 1 {
		return false
	}
	base := eq.UnmatchedModel[0]
	if isProtonBase(base) {
		return true
	}
	for id := range candidates[base] {
		if id == ProtonID {
			return true
		}
	}
	return false
}

// scoreTransport aligns the transported compounds of the model reaction
// against the transported compounds of a database transport reaction.
// Protons are excluded from coverage because proton coupling varies freely
// between namespaces.
func (db *Database) scoreTransport(rxn *DBReaction, stoich *Stoichiometry, perBase map[string]map[string]bool) *TransportScore {
	dbStoich := ParseDBStoichiometry(rxn)
	ts := &TransportScore{}

	bases := make([]string, 0, len(stoich.Transport))
	for base := range stoich.Transport {
		if isProtonBase(base) {
			continue
		}
		bases = append(bases, base)
	}
	sort.Strings(bases)
	if len(bases) == 0 {
		return ts
	}

	sameSign, oppositeSign := 0, 0
	claimed := map[string]bool{}
	for _, base := range bases {
		var hit string
		cpdIDs := make([]string, 0, len(perBase[base]))
		for id := range perBase[base] {
			cpdIDs = append(cpdIDs, id)
		}
		sort.Strings(cpdIDs)
		for _, cpdID := range cpdIDs {
			if _, moved := dbStoich.Transport[cpdID]; moved && !claimed[cpdID] {
				hit = cpdID
				break
			}
		}
		if hit == "" {
			if stoich.Transport[base] < 0 {
				ts.UnmatchedSubstrates = append(ts.UnmatchedSubstrates, base)
			} else {
				ts.UnmatchedProducts = append(ts.UnmatchedProducts, base)
			}
			continue
		}
		claimed[hit] = true
		ts.Count++
		if (stoich.Transport[base] < 0) == (dbStoich.Transport[hit] < 0) {
			sameSign++
		} else {
			oppositeSign++
		}
	}

	ts.Fraction = float64(ts.Count) / float64(len(bases))
	switch {
	case ts.Count == 0:
	case oppositeSign > sameSign:
		ts.Direction = "reversed"
	default:
		ts.Direction = "same"
	}
	return ts
}
