package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type MunmapArgs struct {
	Len tape.U64String `json:"len"`
}

func init() {
	registerTyped(
		"munmap", 11,
		func(ctx *OutputCtx, r *regs.Regs) (MunmapArgs, error) {
			return MunmapArgs{Len: regs.AsU64String(regs.Arg(r, 2))}, nil
		},
		func(a, b MunmapArgs) bool { return a == b },
		func(ctx *OutputCtx, args MunmapArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
