package syscalls

import (
	"golang.org/x/sys/unix"

	"github.com/pendulm/tapetrace/internal/regs"
)

type SocketArgs struct {
	Domain   int32 `json:"domain"`
	Type     int32 `json:"type"`
	Protocol int32 `json:"protocol"`
}

// SocketMock mirrors sys_socket.rs's Allowable: the set of address families
// the policy lets a real socket(2) call through for. Anything else is
// turned into a NoOp returning -EAFNOSUPPORT rather than a hard reject,
// since refusing an address family outright (as connect(2) does) would be
// too strict for a call that hasn't committed to using the network yet.
type SocketMock struct {
	AFInet  bool `json:"af_inet"`
	AFInet6 bool `json:"af_inet6"`
	AFUnix  bool `json:"af_unix"`
}

func (m *SocketMock) allows(domain int32) bool {
	switch domain {
	case unix.AF_INET:
		return m.AFInet
	case unix.AF_INET6:
		return m.AFInet6
	case unix.AF_UNIX:
		return m.AFUnix
	default:
		return false
	}
}

func init() {
	registerTyped(
		"socket", 41,
		func(ctx *OutputCtx, r *regs.Regs) (SocketArgs, error) {
			return SocketArgs{
				Domain: regs.AsI32(regs.Arg(r, 1)), Type: regs.AsI32(regs.Arg(r, 2)),
				Protocol: regs.AsI32(regs.Arg(r, 3)),
			}, nil
		},
		func(a, b SocketArgs) bool { return a == b },
		func(ctx *OutputCtx, args SocketArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		func() Mock { return &SocketMock{} },
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args SocketArgs, r *regs.Regs) (Action, error) {
			m, _ := mock.(*SocketMock)
			if m == nil || m.allows(args.Domain) {
				return Action{Kind: DontMock}, nil
			}
			newRegs := *r
			newRegs.Rax = uint64(int64(-int32(unix.EAFNOSUPPORT)))
			return Action{Kind: NoOp, Regs: &newRegs}, nil
		},
	)
}
