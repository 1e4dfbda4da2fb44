package tracer

import (
	"fmt"

	"github.com/pendulm/tapetrace/internal/regs"
)

// ProtocolError names the kind of failure where the side-band byte protocol
// produced something the supervisor didn't expect. No code path constructs
// it: malformed messages and a ready-handshake pid mismatch surface as the
// plain errors internal/proto returns.
type ProtocolError struct{ Reason string }

func (e *ProtocolError) Error() string { return "protocol error: " + e.Reason }

// UnexpectedSyscallError is returned when the child performs a syscall that
// isn't the write(2) to the control fd the instrumentation always funnels
// through — a strong signal it made a syscall in an unsupported way (raw
// inline assembly bypassing the instrumentation's wrapper), mirroring
// main.rs's "Unexpected syscall" ensure!() diagnostic.
type UnexpectedSyscallError struct {
	Number uint64
	Regs   *regs.Regs
}

func (e *UnexpectedSyscallError) Error() string {
	return fmt.Sprintf(
		"unexpected syscall %d (0x%x); this is likely a syscall performed in an "+
			"unsupported way (e.g. inline assembly)\nrdi=0x%x rsi=0x%x rdx=0x%x r10=0x%x r8=0x%x r9=0x%x",
		e.Number, e.Number, e.Regs.Rdi, e.Regs.Rsi, e.Regs.Rdx, e.Regs.R10, e.Regs.R8, e.Regs.R9,
	)
}

// TracerError wraps a failed ptrace(2) control-plane call (getregs/setregs/
// PTRACE_SYSCALL/waitpid) that isn't itself meaningful to distinguish by
// type — just a named kind so it reads clearly alongside
// UnexpectedSyscallError and ProtocolError in an error chain.
type TracerError struct{ Reason string }

func (e *TracerError) Error() string { return "tracer error: " + e.Reason }

// SpecError marks a spec problem discovered only once the session is
// already running, as opposed to the static checks spec.Instrumentation.
// Validate performs before anything is spawned.
type SpecError struct{ Reason string }

func (e *SpecError) Error() string { return "spec error: " + e.Reason }

// IoError marks a failure reading or writing the control pipe itself, as
// opposed to a malformed message on it (a ProtocolError).
type IoError struct{ Reason string }

func (e *IoError) Error() string { return "io error: " + e.Reason }
