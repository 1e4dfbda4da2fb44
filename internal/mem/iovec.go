package mem

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// iovecSize is sizeof(struct iovec) on amd64: two 8-byte words (base, len).
const iovecSize = 16

// IoVec is one iovec entry read from the tracee: its length plus the bytes
// its base pointer referenced at the time of the call. Vec uses
// golang.org/x/sys/unix's own struct iovec layout rather than redeclaring
// the two-word shape by hand; only its Len is filled in, and Base is left
// nil because the tracee's pointer is not an address in this process.
type IoVec struct {
	Vec  unix.Iovec
	Data []byte
}

// ReadIovecs reads count struct iovec entries starting at addr, then reads
// each entry's referenced buffer, mirroring instrumentation-parent's
// read_iovs (used by readv/writev's output field specifier "iovs").
func ReadIovecs(r Reader, addr uintptr, count int) ([]IoVec, error) {
	out := make([]IoVec, count)
	for i := 0; i < count; i++ {
		raw, err := ReadBytes(r, addr+uintptr(i*iovecSize), iovecSize)
		if err != nil {
			return nil, errors.Wrapf(err, "reading iovec %d", i)
		}
		base := leU64(raw[0:8])
		length := leU64(raw[8:16])
		data, err := ReadBytes(r, uintptr(base), int(length))
		if err != nil {
			return nil, errors.Wrapf(err, "reading iovec %d data (base=0x%x len=%d)", i, base, length)
		}
		vec := unix.Iovec{}
		vec.SetLen(int(length))
		out[i] = IoVec{Vec: vec, Data: data}
	}
	return out, nil
}

func leU64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
