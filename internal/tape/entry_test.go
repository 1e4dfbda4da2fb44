package tape

import (
	"encoding/json"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestBasicBlockStartRoundTrip(t *testing.T) {
	e := BasicBlockStart{ID: 42}
	raw, err := MarshalEntry(e)
	assert(t, err == nil, "marshal failed: %v", err)

	decoded, err := UnmarshalEntry(raw)
	assert(t, err == nil, "unmarshal failed: %v", err)
	assert(t, decoded.FuzzyEq(e), "round-tripped entry not fuzzy-equal: %+v vs %+v", decoded, e)
}

func TestU64StringAcceptsNumberOrString(t *testing.T) {
	var a, b U64String
	assert(t, json.Unmarshal([]byte(`"18446744073709551615"`), &a) == nil, "string decode failed")
	assert(t, json.Unmarshal([]byte(`12345`), &b) == nil, "number decode failed")
	assert(t, a == U64String(^uint64(0)), "unexpected value: %v", a)
	assert(t, b == 12345, "unexpected value: %v", b)

	out, err := json.Marshal(a)
	assert(t, err == nil, "marshal failed: %v", err)
	assert(t, string(out) == `"18446744073709551615"`, "expected decimal string, got %s", out)
}

func TestTapeFuzzyEqRequiresSameLength(t *testing.T) {
	short := Tape{BasicBlockStart{ID: 1}}
	long := Tape{BasicBlockStart{ID: 1}, Ret{}}
	assert(t, !short.FuzzyEq(long), "tapes of different length should not be fuzzy-equal")
	assert(t, long.FuzzyEq(long), "identical tape should be fuzzy-equal to itself")
}

func TestCondBrFuzzyEq(t *testing.T) {
	a := CondBr{Taken: true}
	b := CondBr{Taken: false}
	assert(t, !a.FuzzyEq(b), "different branch outcomes should not be fuzzy-equal")
	assert(t, a.FuzzyEq(CondBr{Taken: true}), "identical branch outcomes should be fuzzy-equal")
}
