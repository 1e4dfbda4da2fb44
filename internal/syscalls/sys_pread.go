package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type PreadArgs struct {
	FD     int32          `json:"fd"`
	Count  tape.U64String `json:"count"`
	Offset tape.I64String `json:"offset"`

	bufPtr uint64
}

type PreadOutput struct {
	Return tape.I64String `json:"return"`
	Data   []byte         `json:"data"`
}

func init() {
	registerTyped(
		"pread", 17,
		func(ctx *OutputCtx, r *regs.Regs) (PreadArgs, error) {
			return PreadArgs{
				FD: regs.AsI32(regs.Arg(r, 1)), Count: regs.AsU64String(regs.Arg(r, 3)),
				Offset: regs.AsI64String(regs.Arg(r, 4)), bufPtr: regs.Arg(r, 2),
			}, nil
		},
		func(a, b PreadArgs) bool { return a.FD == b.FD && a.Count == b.Count && a.Offset == b.Offset },
		func(ctx *OutputCtx, args PreadArgs, r *regs.Regs) (PreadOutput, error) {
			ret := regs.AsI64(regs.ReturnValue(r))
			data, err := readBufferCapped(ctx.Reader, args.bufPtr, uint64(args.Count), ret)
			return PreadOutput{Return: tape.I64String(ret), Data: data}, err
		},
		func(a, b PreadOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool { return string(a.Data) == string(b.Data) })
		},
		nil, nil,
	)
}
