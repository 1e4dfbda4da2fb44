package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
)

// MkdirArgs eagerly reads Path at decode time, same rationale as open/stat:
// mkdir has no Mock (mirrors sys_mkdir.rs's `enum Mock {}`), so there's no
// rewrite to race against, but the convention is kept uniform across every
// syscall that takes a path argument.
type MkdirArgs struct {
	Path string `json:"path"`
	Mode uint32 `json:"mode"`
}

func init() {
	registerTyped(
		"mkdir", 83,
		func(ctx *OutputCtx, r *regs.Regs) (MkdirArgs, error) {
			path, err := mem.ReadCString(ctx.Reader, uintptr(regs.Arg(r, 1)))
			if err != nil {
				return MkdirArgs{}, err
			}
			return MkdirArgs{Path: path, Mode: regs.AsU32(regs.Arg(r, 2))}, nil
		},
		func(a, b MkdirArgs) bool { return a == b },
		func(ctx *OutputCtx, args MkdirArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
