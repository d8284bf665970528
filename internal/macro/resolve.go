package macro

import "github.com/agnivade/levenshtein"

// Threshold is the exclusive upper bound on edit distance for a macro name
// to be accepted as a match.
const Threshold = 4

// Resolve maps a free-text utterance to a macro. Candidates are tried in
// table order and the first one within Threshold wins, even if a later
// candidate is closer. Comparison is case-sensitive.
func Resolve(utterance string, t *Table) (Macro, bool) {
	for _, m := range t.All() {
		if levenshtein.ComputeDistance(utterance, m.Name) < Threshold {
			return m, true
		}
	}
	return Macro{}, false
}
