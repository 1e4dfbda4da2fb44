// Package regs decodes x86-64 syscall ABI values out of syscall.PtraceRegs,
// the way pendulm-fileflip's pkg/ptrace reads/writes registers directly, and
// the original instrumentation-parent's from_reg.rs converts raw register
// words into typed syscall arguments.
package regs

import (
	"syscall"

	"github.com/pendulm/tapetrace/internal/tape"
)

// Regs is an alias for the kernel's per-architecture register snapshot, kept
// under this package so call sites never need to import syscall directly
// just to pass registers around.
type Regs = syscall.PtraceRegs

// Arg returns the n'th (1-indexed) syscall argument register per the x86-64
// SysV syscall convention: rdi, rsi, rdx, r10, r8, r9.
// See https://github.com/torvalds/linux/blob/v5.0/arch/x86/entry/entry_64.S#L107
func Arg(r *Regs, n int) uint64 {
	switch n {
	case 1:
		return r.Rdi
	case 2:
		return r.Rsi
	case 3:
		return r.Rdx
	case 4:
		return r.R10
	case 5:
		return r.R8
	case 6:
		return r.R9
	default:
		panic("syscall argument index out of range [1,6]")
	}
}

// SetArg writes the n'th (1-indexed) syscall argument register.
func SetArg(r *Regs, n int, v uint64) {
	switch n {
	case 1:
		r.Rdi = v
	case 2:
		r.Rsi = v
	case 3:
		r.Rdx = v
	case 4:
		r.R10 = v
	case 5:
		r.R8 = v
	case 6:
		r.R9 = v
	default:
		panic("syscall argument index out of range [1,6]")
	}
}

// Number returns the syscall number latched at syscall-enter-stop.
func Number(r *Regs) uint64 {
	return r.Orig_rax
}

// ReturnValue returns the raw return-register value at syscall-exit-stop.
func ReturnValue(r *Regs) uint64 {
	return r.Rax
}

// maxErrnoValue is uint64(-4095): the lowest raw register value in the
// kernel's errno range, i.e. the most negative errno (-4095) the syscall
// return convention can produce.
const maxErrnoValue uint64 = 18446744073709547521

// IsErrno reports whether a raw return-register value falls in the kernel's
// reserved errno range [-4095, -1], matching pendulm-fileflip's
// RemoteSyscall convention and instrumentation-parent's "error-or-data"
// fuzzy-equality rule.
func IsErrno(raw uint64) bool {
	return raw >= maxErrnoValue
}

// AsI64 decodes a return register as a signed 64-bit value, negating into
// the kernel errno convention when applicable.
func AsI64(raw uint64) int64 {
	if IsErrno(raw) {
		return -int64(^raw + 1)
	}
	return int64(raw)
}

// AsI32 decodes a register as a truncated signed 32-bit value.
func AsI32(raw uint64) int32 {
	return int32(int64(raw))
}

// AsU32 decodes a register as a truncated unsigned 32-bit value.
func AsU32(raw uint64) uint32 {
	return uint32(raw)
}

// AsU64 decodes a register verbatim.
func AsU64(raw uint64) uint64 {
	return raw
}

// AsU64String decodes a register into the decimal-string-on-the-wire
// wrapper type used throughout the tape model.
func AsU64String(raw uint64) tape.U64String {
	return tape.U64String(raw)
}

// AsI64String decodes a register into the signed decimal-string-on-the-wire
// wrapper type used throughout the tape model.
func AsI64String(raw uint64) tape.I64String {
	return tape.I64String(AsI64(raw))
}
