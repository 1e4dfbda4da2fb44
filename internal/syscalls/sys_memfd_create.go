package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
)

type MemfdCreateArgs struct {
	Name  string `json:"name"`
	Flags uint32 `json:"flags"`
}

func init() {
	registerTyped(
		"memfd_create", 319,
		func(ctx *OutputCtx, r *regs.Regs) (MemfdCreateArgs, error) {
			name, err := mem.ReadCString(ctx.Reader, uintptr(regs.Arg(r, 1)))
			if err != nil {
				return MemfdCreateArgs{}, err
			}
			return MemfdCreateArgs{Name: name, Flags: regs.AsU32(regs.Arg(r, 2))}, nil
		},
		func(a, b MemfdCreateArgs) bool { return a == b },
		func(ctx *OutputCtx, args MemfdCreateArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
