package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// IDOutput is the shared shape for the id-query syscalls (getuid, getgid,
// geteuid): they cannot fail, so their entire output is the returned id.
type IDOutput struct {
	Return tape.U64String `json:"return"`
}

func init() {
	registerTyped(
		"getuid", 102,
		func(ctx *OutputCtx, r *regs.Regs) (struct{}, error) { return struct{}{}, nil },
		func(a, b struct{}) bool { return true },
		func(ctx *OutputCtx, args struct{}, r *regs.Regs) (IDOutput, error) {
			return IDOutput{Return: regs.AsU64String(regs.ReturnValue(r))}, nil
		},
		func(a, b IDOutput) bool { return a == b },
		nil, nil,
	)
}
