package syscalls

import "github.com/pendulm/tapetrace/internal/regs"

type CloseArgs struct {
	FD int32 `json:"fd"`
}

func init() {
	registerTyped(
		"close", 3,
		func(ctx *OutputCtx, r *regs.Regs) (CloseArgs, error) {
			return CloseArgs{FD: regs.AsI32(regs.Arg(r, 1))}, nil
		},
		func(a, b CloseArgs) bool { return a == b },
		func(ctx *OutputCtx, args CloseArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
