package syscalls

import (
	"encoding/json"
	"reflect"

	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// ReturnOnly is the Output shape for syscalls whose entire observable
// result is their return value (close, lseek's numeric result aside,
// getpid, and friends that take no output buffer).
type ReturnOnly struct {
	Return tape.I64String `json:"return"`
}

func decodeReturnOnly(r *regs.Regs) ReturnOnly {
	return ReturnOnly{Return: regs.AsI64String(regs.ReturnValue(r))}
}

func fuzzyEqReturnOnly(a, b Output) bool {
	return exactMatch(a, b)
}

// exactMatch is the common-case Args/Output comparator: deep-equal the two
// decoded Go values, mirroring instrumentation-parent's
// impl_fuzzyeq_exact_match!.
func exactMatch(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}

// alwaysEqual is brk's Args/Output comparator (and any future zero-field
// partial match): instrumentation-parent's impl_fuzzyeq_partial_match!
// invoked with no compared fields always reports equal.
func alwaysEqual(a, b interface{}) bool {
	return true
}

// errorOrData implements the "error-or-data" custom FuzzyEq pattern shared
// by several syscalls (stat, getgroups): if either side's return value is
// an errno, compare only the return codes; otherwise compare the decoded
// payload via dataEq.
func errorOrData(aRet, bRet int64, dataEq func() bool) bool {
	aErr := regs.IsErrno(uint64(aRet))
	bErr := regs.IsErrno(uint64(bRet))
	if aErr || bErr {
		return aRet == bRet
	}
	return dataEq()
}

// marshalJSONOf is a small adapter so descriptors can pass a concrete
// struct value straight to marshalStruct without a wrapper closure at every
// call site.
func marshalJSONOf(v interface{}) (map[string]json.RawMessage, error) {
	return marshalStruct(v)
}

// unmarshalInto decodes the merged tape object into a fresh *T, letting
// encoding/json silently ignore the sibling Args/Output's fields the way
// Rust's #[serde(flatten)] splits would have to be emulated for decode.
func unmarshalInto[T any](raw json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// readBufferCapped reads min(count, actualReturn) bytes from ptr, the
// shape read/pread/readv-style syscalls use for their output payload: you
// can only trust the kernel wrote back as many bytes as it reported
// returning, never the full requested count.
func readBufferCapped(r mem.Reader, ptr uint64, count uint64, ret int64) ([]byte, error) {
	if ret <= 0 {
		return []byte{}, nil
	}
	n := uint64(ret)
	if n > count {
		n = count
	}
	return mem.ReadBytes(r, uintptr(ptr), int(n))
}

// bytesField is the common JSON shape for a captured buffer.
type bytesField struct {
	Data []byte `json:"data"`
}

// registerTyped builds and registers a Descriptor from type-safe callbacks,
// generating the Args/Output boxing, JSON marshal/unmarshal, and mock
// dispatch glue once instead of in every sys_*.go file. This is the Go
// stand-in for instrumentation-parent's make_types!/make_args!/make_output!
// macros: one generic function instead of declarative code generation.
func registerTyped[A any, O any](
	name string, number uint64,
	decodeArgs func(ctx *OutputCtx, r *regs.Regs) (A, error),
	argsEq func(a, b A) bool,
	decodeOutput func(ctx *OutputCtx, args A, r *regs.Regs) (O, error),
	outputEq func(a, b O) bool,
	newMock func() Mock,
	checkMock func(mock Mock, mw MemWriter, ctx *OutputCtx, args A, r *regs.Regs) (Action, error),
) {
	register(&Descriptor{
		Name:   name,
		Number: number,
		DecodeArgs: func(ctx *OutputCtx, r *regs.Regs) (Args, error) {
			return decodeArgs(ctx, r)
		},
		ArgsFuzzyEq: func(a, b Args) bool { return argsEq(a.(A), b.(A)) },
		DecodeOutput: func(ctx *OutputCtx, args Args, r *regs.Regs) (Output, error) {
			return decodeOutput(ctx, args.(A), r)
		},
		OutputFuzzyEq: func(a, b Output) bool { return outputEq(a.(O), b.(O)) },
		MarshalArgs:   func(a Args) (map[string]json.RawMessage, error) { return marshalStruct(a.(A)) },
		MarshalOutput: func(o Output) (map[string]json.RawMessage, error) { return marshalStruct(o.(O)) },
		UnmarshalArgs: func(raw json.RawMessage) (Args, error) {
			v, err := unmarshalInto[A](raw)
			if err != nil {
				return nil, err
			}
			return *v, nil
		},
		UnmarshalOutput: func(raw json.RawMessage) (Output, error) {
			v, err := unmarshalInto[O](raw)
			if err != nil {
				return nil, err
			}
			return *v, nil
		},
		NewMock: newMock,
		CheckMock: func(mock Mock, mw MemWriter, ctx *OutputCtx, args Args, r *regs.Regs) (Action, error) {
			if checkMock == nil {
				return Action{Kind: DontMock}, nil
			}
			return checkMock(mock, mw, ctx, args.(A), r)
		},
	})
}
