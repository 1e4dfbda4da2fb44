package syscalls

import (
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type MprotectArgs struct {
	Len  tape.U64String `json:"len"`
	Prot int32          `json:"prot"`
}

func init() {
	registerTyped(
		"mprotect", 10,
		func(ctx *OutputCtx, r *regs.Regs) (MprotectArgs, error) {
			return MprotectArgs{Len: regs.AsU64String(regs.Arg(r, 2)), Prot: regs.AsI32(regs.Arg(r, 3))}, nil
		},
		func(a, b MprotectArgs) bool { return a == b },
		func(ctx *OutputCtx, args MprotectArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
