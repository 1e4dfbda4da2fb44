package checker

import (
	"testing"

	"github.com/pendulm/tapetrace/internal/tape"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestGroupTapesSplitsByFuzzyEquality(t *testing.T) {
	files := []TapeFile{
		{Path: "a.json", Tape: tape.Tape{tape.BasicBlockStart{ID: 1}, tape.Ret{}}},
		{Path: "b.json", Tape: tape.Tape{tape.BasicBlockStart{ID: 1}, tape.Ret{}}},
		{Path: "c.json", Tape: tape.Tape{tape.BasicBlockStart{ID: 2}, tape.Ret{}}},
	}
	groups := GroupTapes(files)
	assert(t, len(groups) == 2, "expected 2 groups, got %d", len(groups))
	assert(t, len(groups[0]) == 2, "expected a.json and b.json grouped together, got %d entries", len(groups[0]))
	assert(t, len(groups[1]) == 1, "expected c.json alone, got %d entries", len(groups[1]))
}

func TestFindDifferenceSkipsIgnoredIndexes(t *testing.T) {
	left := tape.Tape{tape.BasicBlockStart{ID: 1}, tape.BasicBlockStart{ID: 2}, tape.Ret{}}
	right := tape.Tape{tape.BasicBlockStart{ID: 1}, tape.BasicBlockStart{ID: 99}, tape.Ret{}}

	assert(t, FindDifference(left, right, nil) == 1, "expected first difference at index 1")
	assert(t, FindDifference(left, right, map[int]bool{1: true}) == -1, "ignored index should suppress the difference")
}

func TestFindDifferenceIgnoresLengthMismatchAlone(t *testing.T) {
	left := tape.Tape{tape.BasicBlockStart{ID: 1}, tape.Ret{}}
	right := tape.Tape{tape.BasicBlockStart{ID: 1}}
	assert(t, FindDifference(left, right, nil) == -1, "a length mismatch with an agreeing shared prefix should not count as a difference")
}

func TestDifferencesMatrixIsSymmetric(t *testing.T) {
	groups := []Group{
		{{Path: "a.json", Tape: tape.Tape{tape.BasicBlockStart{ID: 1}}}},
		{{Path: "b.json", Tape: tape.Tape{tape.BasicBlockStart{ID: 2}}}},
	}
	m := DifferencesMatrix(groups, nil)
	assert(t, m[0][1] != nil && *m[0][1] == 0, "expected a difference at index 0 between the two groups")
	assert(t, m[1][0] != nil && *m[1][0] == 0, "matrix should be symmetric")
	assert(t, m[0][0] == nil, "a group never differs from itself")
}

func TestCompareBuildsGroupsAndDifferences(t *testing.T) {
	files := []TapeFile{
		{Path: "a.json", Tape: tape.Tape{tape.Ret{}}},
		{Path: "b.json", Tape: tape.Tape{tape.Ret{}}},
		{Path: "c.json", Tape: tape.Tape{tape.CondBr{Taken: true}}},
	}
	report := Compare(files, nil)
	assert(t, len(report.Groups) == 2, "expected 2 groups, got %d", len(report.Groups))
	assert(t, len(report.Differences) == 2, "expected a 2x2 differences matrix, got %dx%d", len(report.Differences), len(report.Differences[0]))
}
