// Package proto parses the side-band byte protocol the instrumented child
// writes to its reserved file descriptor: one 37-byte handshake message
// followed by a stream of tag-prefixed tape-entry messages. Grounded
// byte-for-byte on instrumentation-parent's
// src/bin/instrumentation-parent/proto.rs.
package proto

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/tape"
)

// ProtocolFD is the file descriptor the instrumented child writes its
// side-band messages to. The supervisor places the write end of its pipe
// at this number in the child before exec.
const ProtocolFD = 1023

// FunctionPointerEntry is one {Address, Annotation} record from the ready
// message's function-pointer table.
type FunctionPointerEntry struct {
	Addr  uint64
	Annot uint64
}

// Ready is the parsed 37-byte handshake message: a tag byte, the child's
// pid (for a sanity check against the pid the supervisor already knows),
// three scratch addresses, and a function-pointer table used later to
// annotate signal-handler addresses in syscall output (see
// internal/syscalls sys_rt_sigaction.go's sighandler_annot field).
type Ready struct {
	PID                uint32
	ParentPageAddr     uint64
	NoopSighandlerAddr uint64
	FunctionTable       map[uint64]uint64
}

const (
	tagReady          = 'R'
	tagDone           = 'D'
	tagBasicBlock     = 'B'
	tagCallInfo       = 'C'
	tagSyscallStart   = 'S'
	tagRet            = 'r'
	tagCondBr         = 'c'
	tagSwitch         = 's'
	tagIndirectBr     = 'i'
	tagUnreachable    = 'u'
)

func readTag(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.Wrap(err, "reading uint32")
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.Wrap(err, "reading uint64")
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadReady parses the 37-byte handshake message and verifies its embedded
// pid matches the pid the supervisor attached to. The function-pointer
// table itself is not in the message body: the handshake only carries its
// address and entry count, and mr is used to read the count*16 bytes of
// {addr, annot} pairs out of the tracee's own memory at that address, the
// way read_pods(child_pid, function_pointer_start) does in the original.
func ReadReady(r io.Reader, expectPID int, mr mem.Reader) (Ready, error) {
	tag, err := readTag(r)
	if err != nil {
		return Ready{}, errors.Wrap(err, "reading ready message tag")
	}
	if tag != tagReady {
		return Ready{}, errors.Errorf("expected ready tag %q, got %q", tagReady, tag)
	}

	pid, err := readU32(r)
	if err != nil {
		return Ready{}, errors.Wrap(err, "reading ready message pid")
	}
	if int(pid) != expectPID {
		return Ready{}, errors.Errorf("ready message pid %d does not match attached pid %d", pid, expectPID)
	}

	parentPageAddr, err := readU64(r)
	if err != nil {
		return Ready{}, errors.Wrap(err, "reading parent page address")
	}
	noopSighandlerAddr, err := readU64(r)
	if err != nil {
		return Ready{}, errors.Wrap(err, "reading noop sighandler address")
	}
	tableAddr, err := readU64(r)
	if err != nil {
		return Ready{}, errors.Wrap(err, "reading function pointer table address")
	}

	count, err := readU64(r)
	if err != nil {
		return Ready{}, errors.Wrap(err, "reading function pointer table count")
	}

	table := make(map[uint64]uint64, count)
	if count > 0 {
		raw, err := mem.ReadBytes(mr, uintptr(tableAddr), int(count)*16)
		if err != nil {
			return Ready{}, errors.Wrap(err, "reading function pointer table from tracee memory")
		}
		for i := uint64(0); i < count; i++ {
			entry := raw[i*16 : i*16+16]
			addr := binary.LittleEndian.Uint64(entry[0:8])
			annot := binary.LittleEndian.Uint64(entry[8:16])
			if _, dup := table[addr]; dup {
				return Ready{}, errors.Errorf("duplicate function pointer table address 0x%x", addr)
			}
			table[addr] = annot
		}
	}

	return Ready{
		PID:                pid,
		ParentPageAddr:     parentPageAddr,
		NoopSighandlerAddr: noopSighandlerAddr,
		FunctionTable:      table,
	}, nil
}

// ErrDone is returned by ReadEntry when the child signals the end of the
// tape with the 'D' tag.
var ErrDone = errors.New("tape done")

// ReadEntry parses one tape-entry message, returning ErrDone when the
// stream ends normally. Syscall-start messages carry no payload of their
// own ('S' is just a correlation marker the supervisor pairs with the
// syscall-enter-stop it's already waiting on); the caller attaches the
// decoded syscalls.Record after the fact.
func ReadEntry(r io.Reader) (tape.Entry, error) {
	tag, err := readTag(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading tape entry tag")
	}
	switch tag {
	case tagDone:
		return nil, ErrDone
	case tagBasicBlock:
		id, err := readU64(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading basic_block_start id")
		}
		return tape.BasicBlockStart{ID: tape.U64String(id)}, nil
	case tagCallInfo:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, errors.Wrap(err, "reading call_info direction")
		}
		switch b[0] {
		case 's':
			return tape.CallInfo{Direction: tape.CallStart}, nil
		case 'e':
			return tape.CallInfo{Direction: tape.CallEnd}, nil
		default:
			return nil, errors.Errorf("unknown call_info direction byte %q", b[0])
		}
	case tagSyscallStart:
		return tape.SyscallStart{}, nil
	case tagRet:
		return tape.Ret{}, nil
	case tagCondBr:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, errors.Wrap(err, "reading cond_br outcome")
		}
		if b[0] != 0 && b[0] != 1 {
			return nil, errors.Errorf("cond_br outcome byte must be 0 or 1, got %d", b[0])
		}
		return tape.CondBr{Taken: b[0] == 1}, nil
	case tagSwitch:
		value, err := readU64(r)
		if err != nil {
			return nil, errors.Wrap(err, "reading switch value")
		}
		return tape.Switch{Value: tape.U64String(value)}, nil
	case tagIndirectBr:
		return nil, errors.New("indirect_br (tag 'i') is reserved and not yet implemented by the instrumentation")
	case tagUnreachable:
		return nil, errors.New("unreachable (tag 'u') is reserved and not yet implemented by the instrumentation")
	default:
		return nil, errors.Errorf("unknown tape entry tag %q", tag)
	}
}
