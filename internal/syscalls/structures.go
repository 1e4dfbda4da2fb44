package syscalls

import (
	"encoding/binary"

	"github.com/pendulm/tapetrace/internal/tape"
)

// The structs below mirror the x86-64 Linux ABI layouts
// instrumentation-parent's src/syscalls/structures.rs declares
// (#[repr(C, packed)]). Each wraps a fixed-size raw byte array rather than
// typed fields directly: mem.ReadTyped copies bytes straight out of the
// tracee's memory into that array (exactly mem.Pod's contract), and
// accessor methods decode individual fields on demand via
// encoding/binary. This sidesteps Go's lack of repr(packed) — typed struct
// fields would pick up alignment padding a direct memory copy can't see.

// Stat mirrors struct stat from <bits/stat.h>.
type Stat struct{ raw [144]byte }

func (Stat) PodSize() int          { return 144 }
func (s Stat) Dev() uint64         { return binary.LittleEndian.Uint64(s.raw[0:8]) }
func (s Stat) Ino() uint64         { return binary.LittleEndian.Uint64(s.raw[8:16]) }
func (s Stat) Nlink() uint64       { return binary.LittleEndian.Uint64(s.raw[16:24]) }
func (s Stat) Mode() uint32        { return binary.LittleEndian.Uint32(s.raw[24:28]) }
func (s Stat) UID() uint32         { return binary.LittleEndian.Uint32(s.raw[28:32]) }
func (s Stat) GID() uint32         { return binary.LittleEndian.Uint32(s.raw[32:36]) }
func (s Stat) Rdev() uint64        { return binary.LittleEndian.Uint64(s.raw[40:48]) }
func (s Stat) Size() int64         { return int64(binary.LittleEndian.Uint64(s.raw[48:56])) }
func (s Stat) Blksize() int64      { return int64(binary.LittleEndian.Uint64(s.raw[56:64])) }
func (s Stat) Blocks() int64       { return int64(binary.LittleEndian.Uint64(s.raw[64:72])) }

// FuzzyEqStat compares the fields stable across independent runs:
// dev/ino/nlink/mode/uid/gid/size/blksize/blocks, intentionally skipping
// atime/mtime/ctime, which are expected to differ between runs, matching
// sys_stat.rs's custom FuzzyEq.
func FuzzyEqStat(a, b Stat) bool {
	return a.Dev() == b.Dev() && a.Ino() == b.Ino() && a.Nlink() == b.Nlink() &&
		a.Mode() == b.Mode() && a.UID() == b.UID() && a.GID() == b.GID() &&
		a.Size() == b.Size() && a.Blksize() == b.Blksize() && a.Blocks() == b.Blocks()
}

// statWire is the JSON-visible projection of Stat used in tape output; the
// raw byte array itself is never serialized directly.
type statWire struct {
	Dev     tape.U64String `json:"dev"`
	Ino     tape.U64String `json:"ino"`
	Nlink   tape.U64String `json:"nlink"`
	Mode    uint32         `json:"mode"`
	UID     uint32         `json:"uid"`
	GID     uint32         `json:"gid"`
	Rdev    tape.U64String `json:"rdev"`
	Size    tape.I64String `json:"size"`
	Blksize tape.I64String `json:"blksize"`
	Blocks  tape.I64String `json:"blocks"`
}

func (s Stat) toWire() statWire {
	return statWire{
		Dev: tape.U64String(s.Dev()), Ino: tape.U64String(s.Ino()), Nlink: tape.U64String(s.Nlink()),
		Mode: s.Mode(), UID: s.UID(), GID: s.GID(), Rdev: tape.U64String(s.Rdev()),
		Size: tape.I64String(s.Size()), Blksize: tape.I64String(s.Blksize()), Blocks: tape.I64String(s.Blocks()),
	}
}

// Timespec mirrors struct timespec.
type Timespec struct{ raw [16]byte }

func (Timespec) PodSize() int   { return 16 }
func (t Timespec) Sec() int64   { return int64(binary.LittleEndian.Uint64(t.raw[0:8])) }
func (t Timespec) Nsec() int64  { return int64(binary.LittleEndian.Uint64(t.raw[8:16])) }

type timespecWire struct {
	Sec  tape.I64String `json:"sec"`
	Nsec tape.I64String `json:"nsec"`
}

func (t Timespec) toWire() timespecWire {
	return timespecWire{Sec: tape.I64String(t.Sec()), Nsec: tape.I64String(t.Nsec())}
}

// SigsetT mirrors sigset_t: a single 64-bit word on x86-64, per
// structures.rs's `__val: [U64AsString; 1]`.
type SigsetT struct{ raw [8]byte }

func (SigsetT) PodSize() int  { return 8 }
func (s SigsetT) Val() uint64 { return binary.LittleEndian.Uint64(s.raw[0:8]) }

// Sigaction mirrors struct sigaction (handler, flags, restorer, mask).
type Sigaction struct{ raw [32]byte }

func (Sigaction) PodSize() int      { return 32 }
func (s Sigaction) Handler() uint64  { return binary.LittleEndian.Uint64(s.raw[0:8]) }
func (s Sigaction) Flags() uint64    { return binary.LittleEndian.Uint64(s.raw[8:16]) }
func (s Sigaction) Restorer() uint64 { return binary.LittleEndian.Uint64(s.raw[16:24]) }
func (s Sigaction) Mask() uint64     { return binary.LittleEndian.Uint64(s.raw[24:32]) }

type sigactionWire struct {
	Handler  tape.U64String `json:"handler"`
	Flags    tape.U64String `json:"flags"`
	Restorer tape.U64String `json:"restorer"`
	Mask     tape.U64String `json:"mask"`
}

func (s Sigaction) toWire() sigactionWire {
	return sigactionWire{
		Handler: tape.U64String(s.Handler()), Flags: tape.U64String(s.Flags()),
		Restorer: tape.U64String(s.Restorer()), Mask: tape.U64String(s.Mask()),
	}
}

func encodeSigaction(w sigactionWire) []byte {
	buf := make([]byte, 32)
	le := binary.LittleEndian
	le.PutUint64(buf[0:8], uint64(w.Handler))
	le.PutUint64(buf[8:16], uint64(w.Flags))
	le.PutUint64(buf[16:24], uint64(w.Restorer))
	le.PutUint64(buf[24:32], uint64(w.Mask))
	return buf
}

// Rlimit mirrors struct rlimit.
type Rlimit struct{ raw [16]byte }

func (Rlimit) PodSize() int { return 16 }
func (r Rlimit) Cur() uint64 { return binary.LittleEndian.Uint64(r.raw[0:8]) }
func (r Rlimit) Max() uint64 { return binary.LittleEndian.Uint64(r.raw[8:16]) }

type rlimitWire struct {
	Cur tape.U64String `json:"cur"`
	Max tape.U64String `json:"max"`
}

func (r Rlimit) toWire() rlimitWire {
	return rlimitWire{Cur: tape.U64String(r.Cur()), Max: tape.U64String(r.Max())}
}

// WinSize mirrors struct winsize, read and written by the TIOCGWINSZ mock.
type WinSize struct {
	Row    uint16 `json:"row"`
	Col    uint16 `json:"col"`
	XPixel uint16 `json:"xpixel"`
	YPixel uint16 `json:"ypixel"`
}

func encodeWinSize(w WinSize) []byte {
	buf := make([]byte, 8)
	le := binary.LittleEndian
	le.PutUint16(buf[0:2], w.Row)
	le.PutUint16(buf[2:4], w.Col)
	le.PutUint16(buf[4:6], w.XPixel)
	le.PutUint16(buf[6:8], w.YPixel)
	return buf
}

// sockaddrFamily reads just the leading sa_family_t (u16) of a sockaddr,
// used to decide which concrete shape to read next, matching sys_bind.rs's
// "peek the family, then read the right struct" pattern.
func sockaddrFamily(raw []byte) uint16 {
	return binary.LittleEndian.Uint16(raw[0:2])
}

// SockaddrIn mirrors struct sockaddr_in.
type SockaddrIn struct{ raw [16]byte }

func (SockaddrIn) PodSize() int   { return 16 }
func (s SockaddrIn) Family() uint16 { return binary.LittleEndian.Uint16(s.raw[0:2]) }
func (s SockaddrIn) Port() uint16   { return binary.BigEndian.Uint16(s.raw[2:4]) }
func (s SockaddrIn) Addr() uint32   { return binary.LittleEndian.Uint32(s.raw[4:8]) }

// SockaddrIn6 mirrors struct sockaddr_in6.
type SockaddrIn6 struct{ raw [28]byte }

func (SockaddrIn6) PodSize() int      { return 28 }
func (s SockaddrIn6) Family() uint16  { return binary.LittleEndian.Uint16(s.raw[0:2]) }
func (s SockaddrIn6) Port() uint16    { return binary.BigEndian.Uint16(s.raw[2:4]) }
func (s SockaddrIn6) FlowInfo() uint32 { return binary.LittleEndian.Uint32(s.raw[4:8]) }
func (s SockaddrIn6) ScopeID() uint32  { return binary.LittleEndian.Uint32(s.raw[24:28]) }
