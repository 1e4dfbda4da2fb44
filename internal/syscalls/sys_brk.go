package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// BrkArgs/BrkOutput compare nothing at all: the heap break address is
// load-address-dependent and carries no useful equivalence signal, matching
// sys_brk.rs's zero-field partial-match impls.
type BrkArgs struct {
	Brk tape.U64String `json:"brk"`
}

type BrkOutput struct {
	Return tape.U64String `json:"return"`
}

func init() {
	registerTyped(
		"brk", 12,
		func(ctx *OutputCtx, r *regs.Regs) (BrkArgs, error) {
			return BrkArgs{Brk: regs.AsU64String(regs.Arg(r, 1))}, nil
		},
		func(a, b BrkArgs) bool { return alwaysEqual(a, b) },
		func(ctx *OutputCtx, args BrkArgs, r *regs.Regs) (BrkOutput, error) {
			return BrkOutput{Return: regs.AsU64String(regs.ReturnValue(r))}, nil
		},
		func(a, b BrkOutput) bool { return alwaysEqual(a, b) },
		func() Mock { return &struct{}{} },
		nil,
	)
}
