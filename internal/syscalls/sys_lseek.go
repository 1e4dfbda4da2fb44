package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type LseekArgs struct {
	FD     int32          `json:"fd"`
	Offset tape.I64String `json:"offset"`
	Whence int32          `json:"whence"`
}

func init() {
	registerTyped(
		"lseek", 8,
		func(ctx *OutputCtx, r *regs.Regs) (LseekArgs, error) {
			return LseekArgs{
				FD: regs.AsI32(regs.Arg(r, 1)), Offset: regs.AsI64String(regs.Arg(r, 2)),
				Whence: regs.AsI32(regs.Arg(r, 3)),
			}, nil
		},
		func(a, b LseekArgs) bool { return a == b },
		func(ctx *OutputCtx, args LseekArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
