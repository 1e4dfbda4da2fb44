package syscalls

import (
	"encoding/json"
	"testing"

	"github.com/pendulm/tapetrace/internal/tape"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestLookupByNameAndNumberAgree(t *testing.T) {
	byName, ok := Lookup("close")
	assert(t, ok, "expected close to be registered")
	byNumber, ok := LookupNumber(3)
	assert(t, ok, "expected syscall 3 to be registered")
	assert(t, byName == byNumber, "Lookup and LookupNumber should return the same descriptor")
}

func TestRecordFuzzyEqRequiresSameSyscall(t *testing.T) {
	closeDesc, _ := Lookup("close")
	getpidDesc, _ := Lookup("getpid")

	a := &Record{Descriptor: closeDesc, Args: CloseArgs{FD: 3}, Output: ReturnOnly{Return: 0}}
	b := &Record{Descriptor: getpidDesc, Args: struct{}{}, Output: ReturnOnly{Return: 0}}
	assert(t, !a.FuzzyEq(b), "records of different syscalls must never be fuzzy-equal")
}

func TestRecordFuzzyEqComparesArgsAndOutput(t *testing.T) {
	closeDesc, _ := Lookup("close")
	a := &Record{Descriptor: closeDesc, Args: CloseArgs{FD: 3}, Output: ReturnOnly{Return: 0}}
	b := &Record{Descriptor: closeDesc, Args: CloseArgs{FD: 3}, Output: ReturnOnly{Return: 0}}
	c := &Record{Descriptor: closeDesc, Args: CloseArgs{FD: 4}, Output: ReturnOnly{Return: 0}}

	assert(t, a.FuzzyEq(b), "identical close records should be fuzzy-equal")
	assert(t, !a.FuzzyEq(c), "close records with different fds should not be fuzzy-equal")
}

func TestRecordJSONRoundTrip(t *testing.T) {
	closeDesc, _ := Lookup("close")
	rec := &Record{Descriptor: closeDesc, Args: CloseArgs{FD: 7}, Output: ReturnOnly{Return: 0}}

	raw, err := rec.MarshalJSON()
	assert(t, err == nil, "marshal failed: %v", err)

	var env recordEnvelope
	assert(t, json.Unmarshal(raw, &env) == nil, "envelope unmarshal failed")
	assert(t, env.Syscall == "close", "unexpected syscall discriminator: %q", env.Syscall)

	payload, err := tape.DecodeSyscallPayload(raw)
	assert(t, err == nil, "decode failed: %v", err)
	decoded, ok := payload.(*Record)
	assert(t, ok, "expected *Record, got %T", payload)
	assert(t, decoded.FuzzyEq(rec), "round-tripped record should be fuzzy-equal to the original")
}

func TestCanonicalizeRelativePathDirDefaultsToCwd(t *testing.T) {
	abs, err := CanonicalizeRelativePathDir("")
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, abs != "", "expected a non-empty working directory fallback")
}

func TestNewDescriptorMockNilForUnmockable(t *testing.T) {
	assert(t, NewDescriptorMock("mkdir") == nil, "mkdir has no mock policy and should return nil")
	assert(t, NewDescriptorMock("getppid") != nil, "getppid should have a mock policy")
	assert(t, NewDescriptorMock("not_a_real_syscall") == nil, "unknown syscalls should return nil")
}

func TestErrorOrDataComparesReturnCodeOnErrno(t *testing.T) {
	called := false
	dataEq := func() bool { called = true; return false }
	// -1 as a raw uint64 value is in the errno range.
	assert(t, errorOrData(-1, -1, dataEq), "matching errno returns should be equal without inspecting data")
	assert(t, !called, "errorOrData should short-circuit on errno without calling dataEq")

	assert(t, errorOrData(0, 0, func() bool { return true }), "non-errno case should defer to dataEq")
}
