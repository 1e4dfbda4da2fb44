package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// MmapArgs mirrors sys_mmap.rs's Args, partial-matched ignoring addr: a
// hint address has no bearing on whether two runs behaved the same way.
type MmapArgs struct {
	Len   tape.U64String `json:"len"`
	Prot  int32          `json:"prot"`
	Flags int32          `json:"flags"`
	FD    int32          `json:"fd"`
	Off   tape.I64String  `json:"off"`
}

type MmapOutput struct {
	Return tape.I64String `json:"return"`
}

func init() {
	registerTyped(
		"mmap", 9,
		func(ctx *OutputCtx, r *regs.Regs) (MmapArgs, error) {
			return MmapArgs{
				Len: regs.AsU64String(regs.Arg(r, 2)), Prot: regs.AsI32(regs.Arg(r, 3)),
				Flags: regs.AsI32(regs.Arg(r, 4)), FD: regs.AsI32(regs.Arg(r, 5)),
				Off: regs.AsI64String(regs.Arg(r, 6)),
			}, nil
		},
		func(a, b MmapArgs) bool { return a == b },
		func(ctx *OutputCtx, args MmapArgs, r *regs.Regs) (MmapOutput, error) {
			return MmapOutput{Return: regs.AsI64String(regs.ReturnValue(r))}, nil
		},
		// mmap's custom FuzzyEq never compares the success address (ASLR
		// means two equally-correct runs will get different mappings);
		// only error codes are ever compared, matching sys_mmap.rs.
		func(a, b MmapOutput) bool {
			aErr, bErr := regs.IsErrno(uint64(a.Return)), regs.IsErrno(uint64(b.Return))
			if !aErr && !bErr {
				return true
			}
			return a.Return == b.Return
		},
		func() Mock { return &struct{}{} },
		nil,
	)
}
