package syscalls

import "github.com/pendulm/tapetrace/internal/regs"

type EpollCreate1Args struct {
	Flags int32 `json:"flags"`
}

func init() {
	registerTyped(
		"epoll_create1", 291,
		func(ctx *OutputCtx, r *regs.Regs) (EpollCreate1Args, error) {
			return EpollCreate1Args{Flags: regs.AsI32(regs.Arg(r, 1))}, nil
		},
		func(a, b EpollCreate1Args) bool { return a == b },
		func(ctx *OutputCtx, args EpollCreate1Args, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
