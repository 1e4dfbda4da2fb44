// Package tracer drives one instrumented child process from spawn through
// a fully-recorded tape, replaying the supervisor loop of
// instrumentation-parent/src/bin/instrumentation-parent/main.rs
// (wait_for_lmcas_instrumentation_setup, record_tape,
// wait_for_next_syscall, wait_for_sigtrap) against pendulm-fileflip's
// ptrace plumbing (pkg/ptrace's Child state machine), generalized from
// "attach to an already-running pid" to "fork, exec, and trace from the
// first instruction".
package tracer

import (
	"bufio"
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/pendulm/tapetrace/internal/log"
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/proto"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/spec"
	"github.com/pendulm/tapetrace/internal/syscalls"
	"github.com/pendulm/tapetrace/internal/tape"
)

// noMockSentinel is the fabricated syscall number substituted for a NoOp
// mock: large enough that the kernel rejects it with ENOSYS without any
// side effects, mirroring record_tape's 0x7fff_ffff_ffff_ffff substitution.
const noMockSentinel uint64 = 0x7fff_ffff_ffff_ffff

// ptraceOptions enables syscall-stop tagging (so every syscall-related
// wait status is distinguishable from a plain signal-delivery stop by the
// SIGTRAP|0x80 bit) and kills the child automatically if the supervisor
// dies, matching record_tape's ptrace::setoptions(PTRACE_O_EXITKILL) call.
const ptraceOptions = syscall.PTRACE_O_TRACESYSGOOD | unix.PTRACE_O_EXITKILL

// memWriter adapts a pid into the syscalls.Reader/MemWriter interfaces via
// direct PTRACE_PEEKDATA/POKEDATA calls, the same primitive
// pkg/ptrace.Child.RemoteMemcp is built on.
type memWriter struct{ pid int }

func (m memWriter) PeekData(addr uintptr, out []byte) (int, error) {
	return syscall.PtracePeekData(m.pid, addr, out)
}

func (m memWriter) PokeData(addr uintptr, data []byte) (int, error) {
	return syscall.PtracePokeData(m.pid, addr, data)
}

// session holds the state threaded through one recording run.
type session struct {
	spec     *spec.Instrumentation
	pid      int
	pipeRead *bufio.Reader
	mw       memWriter
	ctx      *syscalls.OutputCtx
}

// Run spawns the instrumented binary described by s, drives it through
// ptrace to completion, and returns whatever tape was recorded along with
// the first error encountered (nil on a clean run to completion). A
// syscall with no registered Descriptor surfaces as
// *syscalls.UnhandledSyscallError alongside the tape recorded up to that
// point; whether that's fatal is a cmd/*-level policy decision
// (--no-fail-on-unhandled-syscall), not this package's — Run always
// reports what happened and lets the caller decide.
func Run(s *spec.Instrumentation) (tape.Tape, error) {
	pipeRead, pipeWrite, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "creating control pipe")
	}

	env := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		env = append(env, k+"="+v)
	}

	proc, spawnErr := spawnInstrumented(s.Binary, s.Args, env, s.Cwd, pipeWrite)
	pipeWrite.Close()
	if spawnErr != nil {
		pipeRead.Close()
		return nil, spawnErr
	}
	pid := proc.Pid

	log.WithField("pid", pid).Debug("spawned instrumented process")

	t, runErr := func() (tape.Tape, error) {
		if err := waitInitialStop(pid); err != nil {
			return nil, err
		}
		if err := syscall.PtraceSetOptions(pid, ptraceOptions); err != nil {
			return nil, errors.Wrap(err, "setting ptrace options")
		}

		buffered := bufio.NewReader(pipeRead)
		mw := memWriter{pid}
		ready, err := waitForReady(pid, buffered, mw)
		if err != nil {
			return nil, err
		}

		sess := &session{
			spec:     s,
			pid:      pid,
			pipeRead: buffered,
			mw:       mw,
			ctx: &syscalls.OutputCtx{
				PID:                pid,
				FunctionPointerTable: ready.FunctionTable,
				ParentPageAddr:       ready.ParentPageAddr,
				NoopSighandlerAddr:   ready.NoopSighandlerAddr,
			},
		}
		sess.ctx.Reader = sess.mw

		return sess.recordTape()
	}()

	_ = syscall.Kill(pid, syscall.SIGKILL)
	var ws syscall.WaitStatus
	_, _ = syscall.Wait4(pid, &ws, 0, nil)
	pipeRead.Close()

	return t, runErr
}

// waitInitialStop waits for the SIGTRAP the kernel delivers automatically
// when a PTRACE_TRACEME'd process calls execve, before any ptrace options
// have been set and before the child has executed a single instruction of
// its own.
func waitInitialStop(pid int) error {
	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return errors.Wrap(err, "waiting for initial ptrace stop")
	}
	if !ws.Stopped() || ws.StopSignal() != syscall.SIGTRAP {
		return &TracerError{Reason: fmt.Sprintf("child's initial stop had unexpected status %v", ws)}
	}
	return nil
}

// nextSyscallStop resumes the child until its next syscall-stop (ptrace
// alternates enter and exit on every PTRACE_SYSCALL resume, indistinguishable
// from each other at the OS level with only TRACESYSGOOD set — the caller
// is responsible for consuming exactly one stop per enter and one per exit,
// the same discipline pkg/ptrace's childSyscallEnter/childSyscallExit states
// encode) and returns its registers.
func nextSyscallStop(pid int) (*regs.Regs, error) {
	if err := syscall.PtraceSyscall(pid, 0); err != nil {
		return nil, errors.Wrap(err, "resuming child to next syscall-stop")
	}
	var ws syscall.WaitStatus
	if _, err := syscall.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, errors.Wrap(err, "waiting for child")
	}
	if ws.Exited() || ws.Signaled() {
		return nil, &TracerError{Reason: fmt.Sprintf("child exited unexpectedly with status %v", ws)}
	}
	if !ws.Stopped() || ws.StopSignal() != syscall.SIGTRAP|0x80 {
		return nil, &TracerError{Reason: fmt.Sprintf("expected syscall-stop, got wait status %v", ws)}
	}
	var r regs.Regs
	if err := syscall.PtraceGetRegs(pid, &r); err != nil {
		return nil, errors.Wrap(err, "reading child registers at syscall-stop")
	}
	return &r, nil
}

// waitForReady runs the before-main loop: the instrumented binary's runtime
// constructor performs arbitrary syscalls of its own before the program's
// entry point, all of which are let through unmocked, until it performs the
// write(2) to proto.ProtocolFD that carries the ready handshake. Mirrors
// wait_for_lmcas_instrumentation_setup.
func waitForReady(pid int, r *bufio.Reader, mr mem.Reader) (proto.Ready, error) {
	for {
		enter, err := nextSyscallStop(pid)
		if err != nil {
			return proto.Ready{}, err
		}
		if regs.Number(enter) == unix.SYS_WRITE && regs.Arg(enter, 1) == proto.ProtocolFD {
			break
		}
		if _, err := nextSyscallStop(pid); err != nil {
			return proto.Ready{}, err
		}
	}
	if _, err := nextSyscallStop(pid); err != nil {
		return proto.Ready{}, err
	}
	ready, err := proto.ReadReady(r, pid, mr)
	if err != nil {
		return proto.Ready{}, errors.Wrap(err, "reading ready handshake")
	}
	return ready, nil
}

// recordTape runs the main record_tape loop: every basic-block/branch/call
// message is appended to the tape as-is, and every syscall_start message is
// paired with the next syscall-stop the program reaches after that write,
// which gets decoded, mocked, and appended with its full Args/Output payload.
func (s *session) recordTape() (tape.Tape, error) {
	var t tape.Tape
	for {
		enter, err := nextSyscallStop(s.pid)
		if err != nil {
			return t, err
		}
		if regs.Number(enter) != unix.SYS_WRITE || regs.Arg(enter, 1) != proto.ProtocolFD {
			return t, &UnexpectedSyscallError{Number: regs.Number(enter), Regs: enter}
		}
		if _, err := nextSyscallStop(s.pid); err != nil {
			return t, err
		}

		entry, err := proto.ReadEntry(s.pipeRead)
		if errors.Is(err, proto.ErrDone) {
			return t, nil
		}
		if err != nil {
			return t, errors.Wrap(err, "reading tape entry message")
		}

		if _, isSyscallStart := entry.(tape.SyscallStart); isSyscallStart {
			record, err := s.recordSyscall()
			if err != nil {
				return t, err
			}
			entry = tape.SyscallStart{Syscall: record}
		}
		t = append(t, entry)
	}
}

// recordSyscall pairs one 'S' protocol message with the next
// syscall-enter-stop, resuming the child from the write's exit-stop to reach
// it: decode its arguments, consult the spec's
// mock policy, apply whatever Action that produces, let the syscall (real
// or faked) run to its exit-stop, and decode the result. Mirrors
// wait_for_next_syscall's enter/check/resume/exit sequence.
func (s *session) recordSyscall() (*syscalls.Record, error) {
	enter, err := nextSyscallStop(s.pid)
	if err != nil {
		return nil, err
	}
	number := regs.Number(enter)
	d, ok := syscalls.LookupNumber(number)
	if !ok {
		return nil, &syscalls.UnhandledSyscallError{Number: number}
	}

	args, err := d.DecodeArgs(s.ctx, enter)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s arguments", d.Name)
	}

	mock := s.spec.SyscallMocks.Get(d.Name)
	action, err := d.CheckMock(mock, s.mw, s.ctx, args, enter)
	if err != nil {
		return nil, errors.Wrapf(err, "mocking %s", d.Name)
	}

	switch action.Kind {
	case syscalls.Replace:
		if err := syscall.PtraceSetRegs(s.pid, action.Regs); err != nil {
			return nil, errors.Wrap(err, "applying replaced syscall registers")
		}
	case syscalls.NoOp:
		faked := *enter
		faked.Orig_rax = noMockSentinel
		if err := syscall.PtraceSetRegs(s.pid, &faked); err != nil {
			return nil, errors.Wrap(err, "faking syscall number to no-op")
		}
	}

	exit, err := nextSyscallStop(s.pid)
	if err != nil {
		return nil, err
	}

	finalRegs := exit
	if action.Kind == syscalls.NoOp {
		if err := syscall.PtraceSetRegs(s.pid, action.Regs); err != nil {
			return nil, errors.Wrap(err, "substituting mocked return registers")
		}
		finalRegs = action.Regs
	}

	output, err := d.DecodeOutput(s.ctx, args, finalRegs)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s output", d.Name)
	}

	return &syscalls.Record{Descriptor: d, Args: args, Output: output}, nil
}
