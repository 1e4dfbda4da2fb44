package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type WriteArgs struct {
	FD    int32          `json:"fd"`
	Count tape.U64String `json:"count"`
	Data  []byte         `json:"data"`
}

func init() {
	registerTyped(
		"write", 1,
		func(ctx *OutputCtx, r *regs.Regs) (WriteArgs, error) {
			count := regs.Arg(r, 3)
			data, err := mem.ReadBytes(ctx.Reader, uintptr(regs.Arg(r, 2)), int(count))
			return WriteArgs{FD: regs.AsI32(regs.Arg(r, 1)), Count: tape.U64String(count), Data: data}, err
		},
		func(a, b WriteArgs) bool { return a.FD == b.FD && string(a.Data) == string(b.Data) },
		func(ctx *OutputCtx, args WriteArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
