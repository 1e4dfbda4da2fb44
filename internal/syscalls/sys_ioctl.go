package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

const (
	ioctlFIONBIO    = 0x5421
	ioctlTIOCGWINSZ = 0x5413
)

type IoctlArgs struct {
	FD      int32          `json:"fd"`
	Request tape.U64String `json:"request"`
	Arg     tape.U64String `json:"arg"`
}

type IoctlOutput struct {
	Return tape.I64String `json:"return"`
}

// IoctlMock mirrors sys_ioctl.rs's Mock: an optional fixed terminal size to
// report for TIOCGWINSZ, gated by an explicit unsafe_allow_tiocgwinsz flag
// since lying about terminal dimensions can confuse programs that size
// their output to it.
type IoctlMock struct {
	TerminalDimensions    *WinSize `json:"terminal_dimensions,omitempty"`
	UnsafeAllowTiocgwinsz bool     `json:"unsafe_allow_tiocgwinsz"`
}

func init() {
	registerTyped(
		"ioctl", 16,
		func(ctx *OutputCtx, r *regs.Regs) (IoctlArgs, error) {
			return IoctlArgs{
				FD: regs.AsI32(regs.Arg(r, 1)), Request: regs.AsU64String(regs.Arg(r, 2)),
				Arg: regs.AsU64String(regs.Arg(r, 3)),
			}, nil
		},
		func(a, b IoctlArgs) bool { return a == b },
		func(ctx *OutputCtx, args IoctlArgs, r *regs.Regs) (IoctlOutput, error) {
			return IoctlOutput{Return: regs.AsI64String(regs.ReturnValue(r))}, nil
		},
		func(a, b IoctlOutput) bool { return a == b },
		func() Mock { return &IoctlMock{} },
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args IoctlArgs, r *regs.Regs) (Action, error) {
			m, _ := mock.(*IoctlMock)
			switch uint64(args.Request) {
			case ioctlFIONBIO:
				// always allowed through: toggling non-blocking mode has
				// no host-visible side effect worth mocking.
				return Action{Kind: DontMock}, nil
			case ioctlTIOCGWINSZ:
				if m == nil || m.TerminalDimensions == nil || !m.UnsafeAllowTiocgwinsz {
					return Action{Kind: DontMock}, nil
				}
				newRegs := *r
				if err := mem.WriteBytes(mw, uintptr(args.Arg), encodeWinSize(*m.TerminalDimensions)); err != nil {
					return Action{}, err
				}
				regs.SetArg(&newRegs, 2, 0)
				newRegs.Rax = 0
				return Action{Kind: NoOp, Regs: &newRegs}, nil
			default:
				return Action{}, errUnhandledIoctl(args.Request)
			}
		},
	)
}
