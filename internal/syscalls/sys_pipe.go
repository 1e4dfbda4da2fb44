package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type PipeOutput struct {
	Return tape.I64String `json:"return"`
	FDs    []int32        `json:"fds,omitempty"`
}

func init() {
	registerTyped(
		"pipe", 22,
		func(ctx *OutputCtx, r *regs.Regs) (struct{}, error) { return struct{}{}, nil },
		func(a, b struct{}) bool { return true },
		func(ctx *OutputCtx, args struct{}, r *regs.Regs) (PipeOutput, error) {
			out := PipeOutput{Return: regs.AsI64String(regs.ReturnValue(r))}
			if !regs.IsErrno(regs.ReturnValue(r)) {
				raw, err := mem.ReadBytes(ctx.Reader, uintptr(regs.Arg(r, 1)), 8)
				if err != nil {
					return PipeOutput{}, err
				}
				out.FDs = []int32{
					int32(raw[0]) | int32(raw[1])<<8 | int32(raw[2])<<16 | int32(raw[3])<<24,
					int32(raw[4]) | int32(raw[5])<<8 | int32(raw[6])<<16 | int32(raw[7])<<24,
				}
			}
			return out, nil
		},
		func(a, b PipeOutput) bool { return exactMatch(a, b) },
		nil, nil,
	)
}
