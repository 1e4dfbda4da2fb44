package syscalls

import "github.com/pendulm/tapetrace/internal/regs"

// Allowed fcntl commands: queries and flag twiddling that don't change
// which file is open or duplicate a descriptor, matching sys_fcntl.rs's
// allowlist. Anything else is rejected outright, since fcntl has no
// configurable Mock (mirrors the original's `enum Mock {}`).
const (
	fcntlGetFD = 1
	fcntlSetFD = 2
	fcntlGetFL = 3
	fcntlSetFL = 4
)

type FcntlArgs struct {
	FD  int32 `json:"fd"`
	Cmd int32 `json:"cmd"`
	Arg int64 `json:"arg"`
}

func init() {
	registerTyped(
		"fcntl", 72,
		func(ctx *OutputCtx, r *regs.Regs) (FcntlArgs, error) {
			return FcntlArgs{
				FD: regs.AsI32(regs.Arg(r, 1)), Cmd: regs.AsI32(regs.Arg(r, 2)),
				Arg: regs.AsI64(regs.Arg(r, 3)),
			}, nil
		},
		func(a, b FcntlArgs) bool { return a == b },
		func(ctx *OutputCtx, args FcntlArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil,
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args FcntlArgs, r *regs.Regs) (Action, error) {
			switch args.Cmd {
			case fcntlGetFD, fcntlSetFD, fcntlGetFL, fcntlSetFL:
				return Action{Kind: DontMock}, nil
			default:
				return Action{}, errUnhandledFcntlCmd(args.Cmd)
			}
		},
	)
}
