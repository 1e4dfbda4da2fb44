//go:build linux && amd64

package tracer

import (
	"os"
	"syscall"

	"github.com/pkg/errors"

	"github.com/pendulm/tapetrace/internal/proto"
)

// spawnInstrumented forks and execs the instrumented binary, arranging for
// the write end of a control pipe to appear at exactly proto.ProtocolFD in
// the child, and for the kernel to stop it at its first instruction via
// PTRACE_TRACEME, mirroring
// instrumentation-parent/src/bin/instrumentation-parent/main.rs's
// Command::pre_exec closure (close/dup2/ptrace::traceme). Go's os/exec
// has no equivalent to Rust's async-signal-safe pre_exec hook, so instead
// of running code between fork and exec, the fd placement is declared
// ahead of time via os.ProcAttr.Files: its ith entry becomes fd i in the
// child, and a nil entry closes that fd, which gets the pipe onto fd 1023
// without any code needing to run in that window at all.
func spawnInstrumented(binary string, args []string, env []string, cwd string, pipeWrite *os.File) (*os.Process, error) {
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrap(err, "opening /dev/null for child stdio")
	}
	defer devNull.Close()

	files := make([]*os.File, proto.ProtocolFD+1)
	files[0] = devNull
	files[1] = devNull
	files[2] = devNull
	files[proto.ProtocolFD] = pipeWrite

	proc, err := os.StartProcess(binary, args, &os.ProcAttr{
		Dir:   cwd,
		Env:   env,
		Files: files,
		Sys:   &syscall.SysProcAttr{Ptrace: true},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "spawning instrumented process %q", binary)
	}
	return proc, nil
}
