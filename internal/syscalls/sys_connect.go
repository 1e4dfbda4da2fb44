package syscalls

import (
	"golang.org/x/sys/unix"

	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type ConnectArgs struct {
	FD     int32  `json:"fd"`
	Family uint16 `json:"family"`

	addrPtr uint64
	addrLen uint64
}

type ConnectOutput struct {
	Return       tape.I64String `json:"return"`
	SockaddrData []byte         `json:"sockaddr_data"`
}

// ConnectMock has no configurable variants at all, mirroring sys_connect.rs's
// `enum Mock {}`: the policy for connect(2) is fixed, not tunable per spec.
type ConnectMock struct{}

func init() {
	registerTyped(
		"connect", 42,
		func(ctx *OutputCtx, r *regs.Regs) (ConnectArgs, error) {
			addrPtr := uintptr(regs.Arg(r, 2))
			addrLen := regs.Arg(r, 3)
			raw, err := mem.ReadBytes(ctx.Reader, addrPtr, 2)
			if err != nil {
				return ConnectArgs{}, err
			}
			return ConnectArgs{
				FD:      regs.AsI32(regs.Arg(r, 1)),
				Family:  sockaddrFamily(append(raw, 0, 0)),
				addrPtr: uint64(addrPtr),
				addrLen: addrLen,
			}, nil
		},
		func(a, b ConnectArgs) bool { return a.FD == b.FD && a.addrLen == b.addrLen },
		func(ctx *OutputCtx, args ConnectArgs, r *regs.Regs) (ConnectOutput, error) {
			data, err := mem.ReadBytes(ctx.Reader, uintptr(args.addrPtr), int(args.addrLen))
			if err != nil {
				return ConnectOutput{}, err
			}
			return ConnectOutput{Return: regs.AsI64String(regs.ReturnValue(r)), SockaddrData: data}, nil
		},
		func(a, b ConnectOutput) bool { return exactMatch(a, b) },
		nil,
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args ConnectArgs, r *regs.Regs) (Action, error) {
			if args.Family == unix.AF_UNIX {
				newRegs := *r
				newRegs.Rax = uint64(int64(-int32(unix.ENOENT)))
				return Action{Kind: NoOp, Regs: &newRegs}, nil
			}
			return Action{}, errRejectedConnect("connect(2) is only permitted to AF_UNIX addresses, which are faked as ENOENT without actually connecting")
		},
	)
}
