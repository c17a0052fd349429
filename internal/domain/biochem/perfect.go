package biochem

import (
	"fmt"
	"sort"
)

// PerfectMatch is a database reaction selected as the definitive match for
// one model reaction.
type PerfectMatch struct {
	ReactionID string
	// Type records how the selection was made: "only_match" when a single
	// candidate was perfect, or "<n> matches/<m> mismatches" when a
	// tie-break between several perfect candidates was needed.
	Type      string
	Candidate *ReactionCandidate
}

// IsPerfectCandidate reports whether a candidate fully accounts for the
// model reaction: either its equation alignment covers every compound
// (forgiving a single proton gap), or it is a fully covered transport
// alignment.
func IsPerfectCandidate(c *ReactionCandidate) bool {
	if c.Equation != nil && c.Equation.Matched > 0 {
		if c.Equation.UnmatchedCount() == 0 || c.ProtonMatch {
			return true
		}
	}
	return c.Transport.Perfect()
}

// CheckForPerfectMatches selects at most one perfect match from a model
// reaction's candidates. committed holds the compound translations already
// decided, used to count how many of a candidate's implied translations
// would contradict them; tpl, when non-nil, is the final tie-break.
//
// Ties resolve by fewest committed-translation mismatches, then most
// matched compounds, then highest score, then template membership, then
// lexicographic ID so the result is deterministic.
func CheckForPerfectMatches(matches ReactionMatches, committed map[string]string, tpl *Template) *PerfectMatch {
	var perfect []*ReactionCandidate
	for _, cand := range matches {
		if IsPerfectCandidate(cand) {
			perfect = append(perfect, cand)
		}
	}
	if len(perfect) == 0 {
		return nil
	}
	if len(perfect) == 1 {
		return &PerfectMatch{ReactionID: perfect[0].ID, Type: "only_match", Candidate: perfect[0]}
	}

	mismatches := func(c *ReactionCandidate) int {
		if c.Equation == nil {
			return 0
		}
		n := 0
		for base, cpd := range c.Equation.ImpliedTranslations {
			if prior, ok := committed[base]; ok && prior != cpd {
				n++
			}
		}
		return n
	}
	matched := func(c *ReactionCandidate) int {
		if c.Equation == nil {
			return 0
		}
		return c.Equation.Matched
	}

	sort.Slice(perfect, func(i, j int) bool {
		a, b := perfect[i], perfect[j]
		if ma, mb := mismatches(a), mismatches(b); ma != mb {
			return ma < mb
		}
		if na, nb := matched(a), matched(b); na != nb {
			return na > nb
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if tpl != nil {
			ta, tb := tpl.HasReaction(a.ID), tpl.HasReaction(b.ID)
			if ta != tb {
				return ta
			}
		}
		return a.ID < b.ID
	})

	best := perfect[0]
	return &PerfectMatch{
		ReactionID: best.ID,
		Type:       fmt.Sprintf("%d matches/%d mismatches", matched(best), mismatches(best)),
		Candidate:  best,
	}
}
