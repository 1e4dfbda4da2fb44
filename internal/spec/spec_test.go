package spec

import (
	"encoding/json"
	"testing"

	"github.com/pendulm/tapetrace/internal/syscalls"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestSyscallMocksUnmarshalsKnownSyscall(t *testing.T) {
	var m SyscallMocks
	err := json.Unmarshal([]byte(`{"getppid": {"value": 42}, "relative_path_dir": "/tmp/x"}`), &m)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, m.RelativePathDir == "/tmp/x", "unexpected relative_path_dir: %q", m.RelativePathDir)

	mock, ok := m.Get("getppid").(*syscalls.GetppidMock)
	assert(t, ok, "expected *GetppidMock, got %T", m.Get("getppid"))
	assert(t, mock.Value == 42, "unexpected mock value: %d", mock.Value)
}

func TestSyscallMocksRejectsUnknownSyscall(t *testing.T) {
	var m SyscallMocks
	err := json.Unmarshal([]byte(`{"not_a_real_syscall": {}}`), &m)
	assert(t, err != nil, "expected an error for an unrecognized syscall name")
}

func TestSyscallMocksRejectsUnmockableSyscall(t *testing.T) {
	var m SyscallMocks
	err := json.Unmarshal([]byte(`{"mkdir": {}}`), &m)
	assert(t, err != nil, "expected an error for a syscall with no mock policy")
}

func TestSyscallMocksGetReturnsNilWhenUnconfigured(t *testing.T) {
	var m SyscallMocks
	assert(t, m.Get("getppid") == nil, "unconfigured syscall should report no mock")
}

func TestSetupAndValidateForcesReplaceSighup(t *testing.T) {
	var m SyscallMocks
	err := json.Unmarshal([]byte(`{}`), &m)
	assert(t, err == nil, "unexpected error: %v", err)

	assert(t, m.SetupAndValidate(true) == nil, "SetupAndValidate failed")
	mock, ok := m.Get("rt_sigaction").(*syscalls.RtSigactionMock)
	assert(t, ok, "expected --replace-sighup to install an RtSigactionMock")
	assert(t, mock.ReplaceSighup, "expected ReplaceSighup to be forced on")
}

func TestSetupAndValidateCanonicalizesEmptyRelativePathDir(t *testing.T) {
	var m SyscallMocks
	assert(t, m.SetupAndValidate(false) == nil, "SetupAndValidate failed")
	assert(t, m.RelativePathDir != "", "expected an empty relative_path_dir to resolve to the working directory")
}

func TestInstrumentationValidateRejectsRelativeBinary(t *testing.T) {
	s := &Instrumentation{Binary: "relative/path", Args: []string{"x"}, Cwd: "/tmp"}
	assert(t, s.Validate() != nil, "expected a relative binary path to be rejected")
}

func TestInstrumentationValidateRejectsEmptyArgs(t *testing.T) {
	s := &Instrumentation{Binary: "/bin/true", Args: nil, Cwd: "/tmp"}
	assert(t, s.Validate() != nil, "expected empty args to be rejected")
}

func TestShouldIgnore(t *testing.T) {
	s := &Instrumentation{IgnoreIndexes: []int{2, 5}}
	assert(t, s.ShouldIgnore(2), "expected index 2 to be ignored")
	assert(t, !s.ShouldIgnore(3), "expected index 3 not to be ignored")
}
