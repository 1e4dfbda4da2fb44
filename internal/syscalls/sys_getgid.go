package syscalls

import "github.com/pendulm/tapetrace/internal/regs"

func init() {
	registerTyped(
		"getgid", 104,
		func(ctx *OutputCtx, r *regs.Regs) (struct{}, error) { return struct{}{}, nil },
		func(a, b struct{}) bool { return true },
		func(ctx *OutputCtx, args struct{}, r *regs.Regs) (IDOutput, error) {
			return IDOutput{Return: regs.AsU64String(regs.ReturnValue(r))}, nil
		},
		func(a, b IDOutput) bool { return a == b },
		nil, nil,
	)
}
