// Package mem implements word-aligned reads and writes against a traced
// process's address space, built on syscall.PtracePeekData/PtracePokeData
// the same way pendulm-fileflip's pkg/ptrace.RemoteMemcp does, generalized
// from "copy one known-size buffer" to the full set of primitives
// instrumentation-parent's pod.rs provides: typed reads, optional reads,
// streaming reads, C-string reads, iovec reads, and a three-phase unaligned
// write.
package mem

import (
	"reflect"
	"unsafe"

	"github.com/pkg/errors"
)

const wordSize = 8

// Pod (plain-old-data) marks a type as safe to read directly out of a
// tracee's memory via a byte-for-byte copy: no pointers, no padding a
// mismatched read could misinterpret. Callers opt a type in by implementing
// PodSize; mem then asserts the read produced exactly that many bytes,
// mirroring the unsafe marker trait instrumentation-parent's Pod provides
// with a checked runtime escape hatch instead of compile-time unsafety.
type Pod interface {
	PodSize() int
}

// Reader reads words out of a traced process's memory. internal/tracer's
// memWriter implements it; tests can supply a fake.
type Reader interface {
	PeekData(addr uintptr, out []byte) (int, error)
}

// Writer writes words into a traced process's memory.
type Writer interface {
	PokeData(addr uintptr, data []byte) (int, error)
}

// wordAt reads exactly one 8-byte word at a word-aligned address.
func wordAt(r Reader, addr uintptr) (uint64, error) {
	buf := make([]byte, wordSize)
	n, err := r.PeekData(addr, buf)
	if err != nil {
		return 0, errors.Wrapf(err, "peekdata at 0x%x", addr)
	}
	if n != wordSize {
		return 0, errors.Errorf("short peekdata at 0x%x: got %d bytes", addr, n)
	}
	return *(*uint64)(unsafe.Pointer(&buf[0])), nil
}

// PeekDataIter lazily walks consecutive words starting at addr, one
// PeekData syscall per word, exposing them a byte at a time. It mirrors
// instrumentation-parent's PeekDataIter (pod.rs), which exists so
// ReadBytes/ReadTyped/ReadCString all share one underlying word-read loop
// instead of each hand-rolling its own alignment arithmetic.
type PeekDataIter struct {
	r           Reader
	nextWordAddr uintptr
	bufIndex    int
	currentWord [wordSize]byte
	loaded      bool
	err         error
}

// NewPeekDataIter starts an iterator at addr, which need not be
// word-aligned: the first word read straddles addr down to its own
// alignment boundary and the iterator skips the leading bytes before addr.
func NewPeekDataIter(r Reader, addr uintptr) *PeekDataIter {
	aligned := addr &^ (wordSize - 1)
	return &PeekDataIter{
		r:            r,
		nextWordAddr: aligned,
		bufIndex:     int(addr - aligned),
	}
}

// Next returns the next byte, or ok=false once an error has occurred (call
// Err to retrieve it).
func (it *PeekDataIter) Next() (b byte, ok bool) {
	if it.err != nil {
		return 0, false
	}
	if !it.loaded || it.bufIndex == wordSize {
		w, err := wordAt(it.r, it.nextWordAddr)
		if err != nil {
			it.err = err
			return 0, false
		}
		*(*uint64)(unsafe.Pointer(&it.currentWord[0])) = w
		it.nextWordAddr += wordSize
		if it.loaded {
			it.bufIndex = 0
		}
		it.loaded = true
	}
	b = it.currentWord[it.bufIndex]
	it.bufIndex++
	return b, true
}

// Err returns the error, if any, that stopped iteration.
func (it *PeekDataIter) Err() error {
	return it.err
}

// ReadBytes reads exactly length bytes starting at addr. A zero length
// returns an empty, non-nil slice without issuing any peek at all, matching
// instrumentation-parent's read_bytes short-circuit.
func ReadBytes(r Reader, addr uintptr, length int) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	out := make([]byte, length)
	it := NewPeekDataIter(r, addr)
	for i := 0; i < length; i++ {
		b, ok := it.Next()
		if !ok {
			return nil, errors.Wrapf(it.Err(), "reading %d bytes at 0x%x", length, addr)
		}
		out[i] = b
	}
	return out, nil
}

// ReadTyped reads sizeof(v) bytes at addr and copies them byte-for-byte
// into *v, which must implement Pod and whose size must exactly match
// v.PodSize(). v must be a pointer to the Pod value.
func ReadTyped(r Reader, addr uintptr, v Pod) error {
	size := v.PodSize()
	raw, err := ReadBytes(r, addr, size)
	if err != nil {
		return errors.Wrap(err, "reading typed value")
	}
	return copyPodBytes(raw, v)
}

// ReadTypedOptional reads a typed value only if addr is non-zero, returning
// (false, nil) for a null pointer the way instrumentation-parent's
// read_pod_option treats address zero as "absent."
func ReadTypedOptional(r Reader, addr uintptr, v Pod) (present bool, err error) {
	if addr == 0 {
		return false, nil
	}
	if err := ReadTyped(r, addr, v); err != nil {
		return false, err
	}
	return true, nil
}

// ReadCString reads a NUL-terminated byte string starting at addr.
func ReadCString(r Reader, addr uintptr) (string, error) {
	it := NewPeekDataIter(r, addr)
	var out []byte
	for {
		b, ok := it.Next()
		if !ok {
			return "", errors.Wrapf(it.Err(), "reading c-string at 0x%x", addr)
		}
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out), nil
}

// WriteBytes writes data into the tracee's memory at addr, which need not
// be word-aligned and whose length need not be a multiple of the word
// size. It performs the same three-phase decomposition as
// instrumentation-parent's write_bytes: a read-modify-write of the
// unaligned leading partial word, a run of pure aligned word writes for the
// middle, and a read-modify-write of the unaligned trailing partial word.
func WriteBytes(rw interface {
	Reader
	Writer
}, addr uintptr, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	cursor := addr
	remaining := data

	// Phase 1: unaligned prefix.
	if off := int(cursor % wordSize); off != 0 {
		n := wordSize - off
		if n > len(remaining) {
			n = len(remaining)
		}
		if err := writePartialWord(rw, cursor-uintptr(off), off, remaining[:n]); err != nil {
			return errors.Wrap(err, "writing unaligned prefix")
		}
		cursor += uintptr(n)
		remaining = remaining[n:]
	}

	// Phase 2: aligned middle, whole words at a time.
	for len(remaining) >= wordSize {
		if _, err := rw.PokeData(cursor, remaining[:wordSize]); err != nil {
			return errors.Wrapf(err, "writing aligned word at 0x%x", cursor)
		}
		cursor += wordSize
		remaining = remaining[wordSize:]
	}

	// Phase 3: unaligned suffix.
	if len(remaining) > 0 {
		if err := writePartialWord(rw, cursor, 0, remaining); err != nil {
			return errors.Wrap(err, "writing unaligned suffix")
		}
	}
	return nil
}

// writePartialWord reads the word-aligned word at wordAddr, overwrites
// [offset:offset+len(data)] with data, and writes the whole word back.
func writePartialWord(rw interface {
	Reader
	Writer
}, wordAddr uintptr, offset int, data []byte) error {
	buf := make([]byte, wordSize)
	n, err := rw.PeekData(wordAddr, buf)
	if err != nil {
		return errors.Wrapf(err, "reading word to merge at 0x%x", wordAddr)
	}
	if n != wordSize {
		return errors.Errorf("short read merging word at 0x%x", wordAddr)
	}
	copy(buf[offset:], data)
	if _, err := rw.PokeData(wordAddr, buf); err != nil {
		return errors.Wrapf(err, "writing merged word at 0x%x", wordAddr)
	}
	return nil
}

// copyPodBytes copies raw into the memory backing v, asserting the sizes
// match. v must be a pointer to a Pod value; concrete Pod implementations
// live in internal/syscalls/structures.go.
func copyPodBytes(raw []byte, v Pod) error {
	size := v.PodSize()
	if len(raw) != size {
		return errors.Errorf("pod size mismatch: read %d bytes, type declares %d", len(raw), size)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Errorf("%T must be a non-nil pointer to decode into", v)
	}
	dst := unsafe.Slice((*byte)(rv.UnsafePointer()), size)
	copy(dst, raw)
	return nil
}
