package syscalls

import "github.com/pendulm/tapetrace/internal/regs"

type UmaskArgs struct {
	Mask int32 `json:"mask"`
}

func init() {
	registerTyped(
		"umask", 95,
		func(ctx *OutputCtx, r *regs.Regs) (UmaskArgs, error) {
			return UmaskArgs{Mask: regs.AsI32(regs.Arg(r, 1))}, nil
		},
		func(a, b UmaskArgs) bool { return a == b },
		func(ctx *OutputCtx, args UmaskArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
