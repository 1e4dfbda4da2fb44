package syscalls

import "github.com/pendulm/tapetrace/internal/regs"

type ListenArgs struct {
	FD      int32 `json:"fd"`
	Backlog int32 `json:"backlog"`
}

func init() {
	registerTyped(
		"listen", 50,
		func(ctx *OutputCtx, r *regs.Regs) (ListenArgs, error) {
			return ListenArgs{FD: regs.AsI32(regs.Arg(r, 1)), Backlog: regs.AsI32(regs.Arg(r, 2))}, nil
		},
		func(a, b ListenArgs) bool { return a == b },
		func(ctx *OutputCtx, args ListenArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
