package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type SchedGetaffinityArgs struct {
	PID    int32          `json:"pid"`
	CPUSet tape.U64String `json:"cpusetsize"`
}

type SchedGetaffinityOutput struct {
	Return tape.I64String `json:"return"`
	Mask   []byte         `json:"mask,omitempty"`
}

func init() {
	registerTyped(
		"sched_getaffinity", 204,
		func(ctx *OutputCtx, r *regs.Regs) (SchedGetaffinityArgs, error) {
			return SchedGetaffinityArgs{PID: regs.AsI32(regs.Arg(r, 1)), CPUSet: regs.AsU64String(regs.Arg(r, 2))}, nil
		},
		func(a, b SchedGetaffinityArgs) bool { return a == b },
		func(ctx *OutputCtx, args SchedGetaffinityArgs, r *regs.Regs) (SchedGetaffinityOutput, error) {
			ret := regs.AsI64String(regs.ReturnValue(r))
			mask, err := readBufferCapped(ctx.Reader, regs.Arg(r, 3), uint64(args.CPUSet), int64(ret))
			if err != nil {
				return SchedGetaffinityOutput{}, err
			}
			return SchedGetaffinityOutput{Return: ret, Mask: mask}, nil
		},
		func(a, b SchedGetaffinityOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool {
				return string(a.Mask) == string(b.Mask)
			})
		},
		nil, nil,
	)
}
