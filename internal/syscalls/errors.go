package syscalls

import (
	"fmt"

	"github.com/pendulm/tapetrace/internal/tape"
)

// MockRejectionError is returned when a syscall's mock policy refuses to
// let a call through at all — e.g. fcntl commands outside the allowlist,
// or a connect(2) to an address family the policy doesn't recognize.
// Mirrors instrumentation-parent's bail!() calls inside sys_*.rs's
// check_syscall_for_mocking.
type MockRejectionError struct {
	Syscall string
	Reason  string
}

func (e *MockRejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Syscall, e.Reason)
}

func errUnhandledIoctl(request tape.U64String) error {
	return &MockRejectionError{Syscall: "ioctl", Reason: fmt.Sprintf("unhandled ioctl request 0x%x", uint64(request))}
}

func errUnhandledFcntlCmd(cmd int32) error {
	return &MockRejectionError{Syscall: "fcntl", Reason: fmt.Sprintf("unhandled fcntl command %d", cmd)}
}

func errRejectedBind(reason string) error {
	return &MockRejectionError{Syscall: "bind", Reason: reason}
}

func errRejectedConnect(reason string) error {
	return &MockRejectionError{Syscall: "connect", Reason: reason}
}

// errSighupUnhandled documents the same diagnostic sys_rt_sigaction.rs
// gives: a program installing a SIGHUP handler without --replace-sighup is
// very likely one that reloads its configuration when sent SIGHUP, which
// breaks deterministic recording unless explicitly tolerated.
func errSighupUnhandled() error {
	return &MockRejectionError{
		Syscall: "rt_sigaction",
		Reason: "program installed a SIGHUP handler; many daemons reload " +
			"configuration on SIGHUP, which breaks deterministic recording. " +
			"Pass --replace-sighup to redirect it to a no-op handler, or " +
			"configure replace_sighup in the instrumentation spec.",
	}
}

// UnhandledSyscallError is returned when a syscall number has no
// registered Descriptor at all, mirroring instrumentation-parent's
// errors.rs UnhandledSyscall.
type UnhandledSyscallError struct {
	Number uint64
}

func (e *UnhandledSyscallError) Error() string {
	return fmt.Sprintf(
		"unknown syscall number %d (0x%x)\nfor a list of syscalls and their "+
			"corresponding symbolic names, see https://github.com/torvalds/linux/blob/master/arch/x86/entry/syscalls/syscall_64.tbl",
		e.Number, e.Number,
	)
}
