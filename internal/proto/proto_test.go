package proto

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/pendulm/tapetrace/internal/tape"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func putU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func putU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// fakeMem serves PeekData reads out of a byte slice anchored at base,
// standing in for a traced process's address space in tests.
type fakeMem struct {
	base uintptr
	data []byte
}

func (f fakeMem) PeekData(addr uintptr, out []byte) (int, error) {
	off := addr - f.base
	return copy(out, f.data[off:]), nil
}

func TestReadReadyMinimal(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte('R')
	putU32(&buf, 1234)
	putU64(&buf, 0xdead) // parent page addr
	putU64(&buf, 0xbeef) // noop sighandler addr
	putU64(&buf, 0x1000) // table addr
	putU64(&buf, 0)       // entry count

	ready, err := ReadReady(&buf, 1234, fakeMem{})
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, ready.ParentPageAddr == 0xdead, "unexpected parent page addr: %#x", ready.ParentPageAddr)
	assert(t, ready.NoopSighandlerAddr == 0xbeef, "unexpected noop sighandler addr: %#x", ready.NoopSighandlerAddr)
	assert(t, len(ready.FunctionTable) == 0, "expected empty function table")
}

func TestReadReadyRejectsPidMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte('R')
	putU32(&buf, 1234)
	putU64(&buf, 0)
	putU64(&buf, 0)
	putU64(&buf, 0)
	putU64(&buf, 0)

	_, err := ReadReady(&buf, 999, fakeMem{})
	assert(t, err != nil, "expected pid mismatch to be rejected")
}

func TestReadReadyFunctionTableEntries(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte('R')
	putU32(&buf, 1)
	putU64(&buf, 0)
	putU64(&buf, 0)
	putU64(&buf, 0x100) // table addr, read from tracee memory below
	putU64(&buf, 2)     // entry count

	var table bytes.Buffer
	putU64(&table, 0x100)
	putU64(&table, 7)
	putU64(&table, 0x200)
	putU64(&table, 8)
	mr := fakeMem{base: 0x100, data: table.Bytes()}

	ready, err := ReadReady(&buf, 1, mr)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, ready.FunctionTable[0x100] == 7, "expected entry 0x100 -> 7")
	assert(t, ready.FunctionTable[0x200] == 8, "expected entry 0x200 -> 8")
}

func TestReadEntryDoneSentinel(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte('D')
	_, err := ReadEntry(&buf)
	assert(t, err == ErrDone, "expected ErrDone, got %v", err)
}

func TestReadEntryBasicBlockAndSwitch(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte('B')
	putU64(&buf, 42)

	entry, err := ReadEntry(&buf)
	assert(t, err == nil, "unexpected error: %v", err)
	bb, ok := entry.(tape.BasicBlockStart)
	assert(t, ok, "expected BasicBlockStart, got %T", entry)
	assert(t, bb.ID == 42, "unexpected id: %v", bb.ID)

	buf.Reset()
	buf.WriteByte('s')
	putU64(&buf, 7)
	entry, err = ReadEntry(&buf)
	assert(t, err == nil, "unexpected error: %v", err)
	sw, ok := entry.(tape.Switch)
	assert(t, ok, "expected Switch, got %T", entry)
	assert(t, sw.Value == 7, "unexpected switch value: %v", sw.Value)
}

func TestReadEntryReservedTagsError(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte('i')
	_, err := ReadEntry(&buf)
	assert(t, err != nil, "expected indirect_br to be reported as unimplemented")

	buf.Reset()
	buf.WriteByte('u')
	_, err = ReadEntry(&buf)
	assert(t, err != nil, "expected unreachable to be reported as unimplemented")
}
