package syscalls

import (
	"golang.org/x/sys/unix"

	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type BindArgs struct {
	FD     int32  `json:"fd"`
	Family uint16 `json:"family"`
	Port   uint16 `json:"port"`

	addrPtr uint64
	addrLen uint64
}

type BindOutput struct {
	Return       tape.I64String `json:"return"`
	SockaddrData []byte         `json:"sockaddr_data"`
}

// BindMock mirrors sys_bind.rs's Allowable: which address families bind(2)
// may target. A bind to a family the mock does not allow (or any bind when
// no mock is configured) is turned into a NoOp returning -EINVAL. For an
// allowed family, binding to port 0 (let the kernel pick an ephemeral port)
// is rejected outright, since the resulting port number would make the
// recording non-reproducible.
type BindMock struct {
	AFInet  bool `json:"af_inet"`
	AFInet6 bool `json:"af_inet6"`
}

func init() {
	registerTyped(
		"bind", 49,
		func(ctx *OutputCtx, r *regs.Regs) (BindArgs, error) {
			addrPtr := uintptr(regs.Arg(r, 2))
			addrLen := regs.Arg(r, 3)
			familyRaw, err := mem.ReadBytes(ctx.Reader, addrPtr, 2)
			if err != nil {
				return BindArgs{}, err
			}
			family := sockaddrFamily(append(familyRaw, 0, 0))
			var port uint16
			switch family {
			case unix.AF_INET:
				var s SockaddrIn
				if err := mem.ReadTyped(ctx.Reader, addrPtr, &s); err != nil {
					return BindArgs{}, err
				}
				port = s.Port()
			case unix.AF_INET6:
				var s SockaddrIn6
				if err := mem.ReadTyped(ctx.Reader, addrPtr, &s); err != nil {
					return BindArgs{}, err
				}
				port = s.Port()
			}
			return BindArgs{
				FD:      regs.AsI32(regs.Arg(r, 1)),
				Family:  family,
				Port:    port,
				addrPtr: uint64(addrPtr),
				addrLen: addrLen,
			}, nil
		},
		func(a, b BindArgs) bool { return a.FD == b.FD && a.Family == b.Family && a.Port == b.Port },
		func(ctx *OutputCtx, args BindArgs, r *regs.Regs) (BindOutput, error) {
			data, err := mem.ReadBytes(ctx.Reader, uintptr(args.addrPtr), int(args.addrLen))
			if err != nil {
				return BindOutput{}, err
			}
			return BindOutput{Return: regs.AsI64String(regs.ReturnValue(r)), SockaddrData: data}, nil
		},
		func(a, b BindOutput) bool { return exactMatch(a, b) },
		func() Mock { return &BindMock{} },
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args BindArgs, r *regs.Regs) (Action, error) {
			m, _ := mock.(*BindMock)
			switch {
			case m != nil && m.AFInet && args.Family == unix.AF_INET:
				if args.Port == 0 {
					return Action{}, errRejectedBind("binding to port 0 (kernel-assigned ephemeral port) is not reproducible")
				}
				return Action{Kind: DontMock}, nil
			case m != nil && m.AFInet6 && args.Family == unix.AF_INET6:
				if args.Port == 0 {
					return Action{}, errRejectedBind("binding to port 0 (kernel-assigned ephemeral port) is not reproducible")
				}
				return Action{Kind: DontMock}, nil
			default:
				newRegs := *r
				newRegs.Rax = uint64(int64(-int32(unix.EINVAL)))
				return Action{Kind: NoOp, Regs: &newRegs}, nil
			}
		},
	)
}
