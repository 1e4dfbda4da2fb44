package mem

import "testing"

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// fakeMemory is an in-process stand-in for a tracee's address space, backed
// by a plain byte slice indexed directly by address (tests use small
// addresses starting at some aligned base).
type fakeMemory struct {
	base uintptr
	data []byte
	sawReads int
}

func (f *fakeMemory) PeekData(addr uintptr, out []byte) (int, error) {
	f.sawReads++
	off := int(addr - f.base)
	n := copy(out, f.data[off:off+len(out)])
	return n, nil
}

func (f *fakeMemory) PokeData(addr uintptr, data []byte) (int, error) {
	off := int(addr - f.base)
	n := copy(f.data[off:off+len(data)], data)
	return n, nil
}

func newFakeMemory(base uintptr, size int) *fakeMemory {
	return &fakeMemory{base: base, data: make([]byte, size)}
}

// TestReadBytesWordCounts grounds instrumentation-parent's own
// #[test] fn test_read_bytes in pod.rs: reading N bytes starting at an
// arbitrary offset must issue exactly ceil((offset_in_word + N) / 8) peeks.
func TestReadBytesWordCounts(t *testing.T) {
	const base = 0x1000
	mem := newFakeMemory(base, 64)
	for i := range mem.data {
		mem.data[i] = byte(i)
	}

	cases := []struct {
		addrOffset int
		length     int
		wantPeeks  int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{0, 8, 1},
		{0, 9, 2},
		{1, 7, 1},
		{1, 8, 2},
		{3, 10, 2},
		{7, 2, 2},
	}

	for _, c := range cases {
		mem.sawReads = 0
		got, err := ReadBytes(mem, base+uintptr(c.addrOffset), c.length)
		assert(t, err == nil, "ReadBytes error: %v", err)
		assert(t, len(got) == c.length, "expected %d bytes, got %d", c.length, len(got))
		assert(t, mem.sawReads == c.wantPeeks, "offset=%d length=%d: expected %d peeks, got %d",
			c.addrOffset, c.length, c.wantPeeks, mem.sawReads)
		for i, b := range got {
			want := byte(c.addrOffset + i)
			assert(t, b == want, "byte %d: expected %d, got %d", i, want, b)
		}
	}
}

func TestReadBytesZeroLengthIssuesNoPeek(t *testing.T) {
	const base = 0x2000
	mem := newFakeMemory(base, 16)
	got, err := ReadBytes(mem, base+3, 0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, len(got) == 0, "expected empty slice, got %v", got)
	assert(t, mem.sawReads == 0, "zero-length read should not issue any peek, saw %d", mem.sawReads)
}

func TestWriteBytesThreePhase(t *testing.T) {
	const base = 0x3000
	mem := newFakeMemory(base, 32)

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	err := WriteBytes(mem, base+3, payload)
	assert(t, err == nil, "WriteBytes error: %v", err)

	got, err := ReadBytes(mem, base+3, len(payload))
	assert(t, err == nil, "ReadBytes error: %v", err)
	for i, b := range got {
		assert(t, b == payload[i], "byte %d: expected %d, got %d", i, payload[i], b)
	}

	// bytes outside the written range must be untouched (still zero).
	assert(t, mem.data[0] == 0 && mem.data[1] == 0 && mem.data[2] == 0,
		"unaligned prefix write clobbered bytes before the target offset")
}

func TestReadCString(t *testing.T) {
	const base = 0x4000
	mem := newFakeMemory(base, 32)
	copy(mem.data[5:], []byte("hello\x00garbage"))

	s, err := ReadCString(mem, base+5)
	assert(t, err == nil, "ReadCString error: %v", err)
	assert(t, s == "hello", "expected %q, got %q", "hello", s)
}
