// Package syscalls holds the catalog of syscalls tapetrace understands: for
// each, how to decode its arguments and return value out of registers and
// tracee memory, how to fuzzy-compare two recordings of it, and what mock
// policies it accepts. Grounded on instrumentation-parent's
// src/syscalls/{mod.rs,macros.rs,sys_*.rs}, but realized as a data-driven
// registry (one Descriptor per syscall, collected in a map) instead of the
// original's declarative macro system: Go has no macro-expansion step, and
// a registry of plain functions reads more idiomatically than code
// generation would.
package syscalls

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// Args is the decoded argument set of one syscall invocation. Each syscall
// file defines its own concrete struct satisfying this (empty) interface;
// Go has no sum-type bound tighter than any without heavier generics
// machinery that wouldn't pay for itself across 40 one-off shapes.
type Args interface{}

// Output is the decoded return value (and any side-channel data, like
// bytes written through a buffer pointer) of one syscall invocation.
type Output interface{}

// Mock is a syscall's configuration for how to intercept it. Most mockable
// syscalls define their own Mock struct; unmockable syscalls set
// Descriptor.NewMock to nil.
type Mock interface{}

// OutputCtx carries the per-session state needed to decode some syscalls'
// output, mirroring the pid/function_pointer_table arguments threaded
// through instrumentation-parent's SyscallOutput::from_regs.
type OutputCtx struct {
	PID                 int
	FunctionPointerTable map[uint64]uint64
	ParentPageAddr       uint64
	NoopSighandlerAddr   uint64
	Reader               Reader
}

// Reader is the subset of mem.Reader a syscall's output decoder needs.
type Reader interface {
	PeekData(addr uintptr, out []byte) (int, error)
}

// MemWriter additionally allows writing, needed by mocks that rewrite a
// path or signal handler in the tracee's memory.
type MemWriter interface {
	Reader
	PokeData(addr uintptr, data []byte) (int, error)
}

// ActionKind is the three-way decision a mock makes about one intercepted
// syscall, mirroring instrumentation-parent's MockAction enum.
type ActionKind int

const (
	// DontMock lets the syscall execute normally.
	DontMock ActionKind = iota
	// NoOp suppresses the real syscall and substitutes the given
	// registers as if it had returned them.
	NoOp
	// Replace rewrites the syscall's arguments (already placed in Regs)
	// and lets it execute with those instead.
	Replace
)

// Action is the result of applying a Mock to one intercepted syscall.
type Action struct {
	Kind ActionKind
	Regs *regs.Regs
}

// Descriptor is everything the tracer needs to know about one syscall
// number: how to decode it, compare it, serialize it, and mock it.
type Descriptor struct {
	Name   string
	Number uint64

	DecodeArgs  func(ctx *OutputCtx, r *regs.Regs) (Args, error)
	ArgsFuzzyEq func(a, b Args) bool

	DecodeOutput  func(ctx *OutputCtx, args Args, r *regs.Regs) (Output, error)
	OutputFuzzyEq func(a, b Output) bool

	MarshalArgs     func(Args) (map[string]json.RawMessage, error)
	MarshalOutput   func(Output) (map[string]json.RawMessage, error)
	UnmarshalArgs   func(merged json.RawMessage) (Args, error)
	UnmarshalOutput func(merged json.RawMessage) (Output, error)

	// NewMock returns a zero-value Mock struct pointer to unmarshal a
	// spec file's configuration into, or nil if the syscall cannot be
	// mocked at all (e.g. fcntl, mkdir).
	NewMock func() Mock
	// CheckMock decides the MockAction for one call, given the
	// syscall's configured Mock (nil if unconfigured) and a MemWriter
	// for mocks that must write into the tracee (e.g. sys_open's path
	// rewrite).
	CheckMock func(mock Mock, mw MemWriter, ctx *OutputCtx, args Args, r *regs.Regs) (Action, error)
}

var registry = map[string]*Descriptor{}
var registryByNumber = map[uint64]*Descriptor{}

func register(d *Descriptor) {
	if _, dup := registry[d.Name]; dup {
		panic("duplicate syscall registered: " + d.Name)
	}
	registry[d.Name] = d
	registryByNumber[d.Number] = d
}

// Lookup returns the descriptor for a syscall name, or (nil, false).
func Lookup(name string) (*Descriptor, bool) {
	d, ok := registry[name]
	return d, ok
}

// LookupNumber returns the descriptor for a raw x86-64 syscall number.
// UnhandledSyscallError is the caller's responsibility to construct on a
// miss — see errors.go and original_source's errors.rs UnhandledSyscall.
func LookupNumber(nr uint64) (*Descriptor, bool) {
	d, ok := registryByNumber[nr]
	return d, ok
}

// Record is the decoded {Args, Output} pair for one syscall invocation,
// tagged with the syscall's name. It implements tape.SyscallPayload.
type Record struct {
	Descriptor *Descriptor
	Args       Args
	Output     Output
}

// SyscallName implements tape.SyscallPayload.
func (r *Record) SyscallName() string {
	return r.Descriptor.Name
}

// FuzzyEq implements tape.SyscallPayload, comparing two records of the
// same syscall using that syscall's own Args/Output comparators. Records
// of different syscalls are never fuzzy-equal.
func (r *Record) FuzzyEq(other tape.SyscallPayload) bool {
	o, ok := other.(*Record)
	if !ok || o.Descriptor.Name != r.Descriptor.Name {
		return false
	}
	return r.Descriptor.ArgsFuzzyEq(r.Args, o.Args) && r.Descriptor.OutputFuzzyEq(r.Output, o.Output)
}

// MarshalJSON flattens Args and Output into one object plus a "syscall"
// discriminator, standing in for Rust's #[serde(flatten)] which Go's
// encoding/json has no equivalent for.
func (r *Record) MarshalJSON() ([]byte, error) {
	merged := map[string]json.RawMessage{}

	argsFields, err := r.Descriptor.MarshalArgs(r.Args)
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling %s args", r.Descriptor.Name)
	}
	for k, v := range argsFields {
		merged[k] = v
	}

	outputFields, err := r.Descriptor.MarshalOutput(r.Output)
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling %s output", r.Descriptor.Name)
	}
	for k, v := range outputFields {
		merged[k] = v
	}

	nameJSON, _ := json.Marshal(r.Descriptor.Name)
	merged["syscall"] = nameJSON

	return json.Marshal(merged)
}

type recordEnvelope struct {
	Syscall string `json:"syscall"`
}

func init() {
	tape.DecodeSyscallPayload = func(raw json.RawMessage) (tape.SyscallPayload, error) {
		var env recordEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, errors.Wrap(err, "reading syscall discriminator")
		}
		d, ok := Lookup(env.Syscall)
		if !ok {
			return nil, errors.Errorf("unknown recorded syscall %q", env.Syscall)
		}
		args, err := d.UnmarshalArgs(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "unmarshaling %s args", env.Syscall)
		}
		output, err := d.UnmarshalOutput(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "unmarshaling %s output", env.Syscall)
		}
		return &Record{Descriptor: d, Args: args, Output: output}, nil
	}
}

// marshalStruct is the common MarshalArgs/MarshalOutput implementation for
// the large majority of syscalls whose Args/Output are one flat JSON
// struct with no flattening concerns of its own.
func marshalStruct(v interface{}) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// CanonicalizeRelativePathDir resolves a spec's relative_path_dir to an
// absolute path once at startup, the way instrumentation-parent's
// SyscallMocks::setup_and_validate canonicalizes it before any mock runs.
// An empty dir resolves to the process's current working directory, mirroring
// the Rust fallback to std::env::current_dir().
func CanonicalizeRelativePathDir(dir string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "getting current working directory")
		}
		return cwd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolving relative_path_dir %q", dir)
	}
	return abs, nil
}

// NewDescriptorMock constructs a zero-value Mock for a named syscall, or nil
// if the syscall has no registered Descriptor or cannot be mocked.
func NewDescriptorMock(name string) Mock {
	d, ok := Lookup(name)
	if !ok || d.NewMock == nil {
		return nil
	}
	return d.NewMock()
}
