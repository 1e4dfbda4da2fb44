package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type ReadArgs struct {
	FD    int32          `json:"fd"`
	Count tape.U64String `json:"count"`

	bufPtr uint64
}

type ReadOutput struct {
	Return tape.I64String `json:"return"`
	Data   []byte         `json:"data"`
}

func init() {
	registerTyped(
		"read", 0,
		func(ctx *OutputCtx, r *regs.Regs) (ReadArgs, error) {
			return ReadArgs{FD: regs.AsI32(regs.Arg(r, 1)), Count: regs.AsU64String(regs.Arg(r, 3)), bufPtr: regs.Arg(r, 2)}, nil
		},
		func(a, b ReadArgs) bool { return a.FD == b.FD && a.Count == b.Count },
		func(ctx *OutputCtx, args ReadArgs, r *regs.Regs) (ReadOutput, error) {
			ret := regs.AsI64(regs.ReturnValue(r))
			data, err := readBufferCapped(ctx.Reader, args.bufPtr, uint64(args.Count), ret)
			return ReadOutput{Return: tape.I64String(ret), Data: data}, err
		},
		func(a, b ReadOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool {
				return string(a.Data) == string(b.Data)
			})
		},
		nil, nil,
	)
}
