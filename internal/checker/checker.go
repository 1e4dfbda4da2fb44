// Package checker groups recorded tapes into fuzzy-equivalence classes and
// reports, for every pair of classes, the first tape index at which their
// representatives diverge. Grounded on
// original_source/.../tape-determinism-checker/main.rs's
// add_tape_to_set/make_differences_matrix fold-based algorithm.
package checker

import "github.com/pendulm/tapetrace/internal/tape"

// TapeFile pairs a loaded tape with the path it was read from.
type TapeFile struct {
	Path string
	Tape tape.Tape
}

// Group is one equivalence class: every tape in it is fuzzy-equal to the
// first (its representative).
type Group []TapeFile

// GroupTapes folds a list of loaded tapes into disjoint equivalence
// classes by mutual fuzzy-equality, mirroring add_tape_to_set's left fold
// over the input list.
func GroupTapes(files []TapeFile) []Group {
	var groups []Group
	for _, f := range files {
		groups = addToGroup(groups, f)
	}
	return groups
}

func addToGroup(groups []Group, f TapeFile) []Group {
	for i, g := range groups {
		if g[0].Tape.FuzzyEq(f.Tape) {
			groups[i] = append(g, f)
			return groups
		}
	}
	return append(groups, Group{f})
}

// FindDifference compares two tapes entry-by-entry over their common
// prefix, skipping any index present in ignoreIndexes, and returns the
// first index at which they genuinely differ, or -1 if none. Unlike
// tape.Tape.FuzzyEq (used for grouping above), a length mismatch alone is
// not itself a difference here: only a disagreeing entry within the
// shared prefix counts, mirroring find_tape_differences exactly — the
// original applies a stricter whole-tape comparison for grouping and this
// looser, ignore-aware one for reporting where two non-equal tapes
// actually part ways.
func FindDifference(left, right tape.Tape, ignoreIndexes map[int]bool) int {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		if ignoreIndexes[i] {
			continue
		}
		if !left[i].FuzzyEq(right[i]) {
			return i
		}
	}
	return -1
}

// DifferencesMatrix builds the symmetric NxN matrix of first-difference
// indexes between every pair of groups' representative tapes, mirroring
// make_differences_matrix. Entry [i][j] is nil when the two groups'
// representatives don't differ within ignoreIndexes.
func DifferencesMatrix(groups []Group, ignoreIndexes map[int]bool) [][]*int {
	n := len(groups)
	m := make([][]*int, n)
	for i := range m {
		m[i] = make([]*int, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if diff := FindDifference(groups[i][0].Tape, groups[j][0].Tape, ignoreIndexes); diff >= 0 {
				d := diff
				m[i][j] = &d
				m[j][i] = &d
			}
		}
	}
	return m
}

// Differences is the determinism-check report document, mirroring
// DifferencesOutput: a partition of the input tapes into equivalence
// classes (by path) plus the pairwise first-difference matrix between
// them.
type Differences struct {
	Groups      [][]string `json:"groups"`
	Differences [][]*int   `json:"differences"`
}

// Compare groups a list of loaded tapes and reports their pairwise
// differences, skipping the indexes in ignoreIndexes.
func Compare(files []TapeFile, ignoreIndexes map[int]bool) Differences {
	groups := GroupTapes(files)

	paths := make([][]string, len(groups))
	for i, g := range groups {
		p := make([]string, len(g))
		for j, f := range g {
			p[j] = f.Path
		}
		paths[i] = p
	}

	return Differences{
		Groups:      paths,
		Differences: DifferencesMatrix(groups, ignoreIndexes),
	}
}
