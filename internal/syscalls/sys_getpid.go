package syscalls

import "github.com/pendulm/tapetrace/internal/regs"

func init() {
	registerTyped(
		"getpid", 39,
		func(ctx *OutputCtx, r *regs.Regs) (struct{}, error) { return struct{}{}, nil },
		func(a, b struct{}) bool { return true },
		func(ctx *OutputCtx, args struct{}, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
