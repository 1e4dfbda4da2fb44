package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type FstatArgs struct {
	FD int32 `json:"fd"`
}

type FstatOutput struct {
	Return tape.I64String `json:"return"`
	Data   *statWire      `json:"data,omitempty"`
}

func init() {
	registerTyped(
		"fstat", 5,
		func(ctx *OutputCtx, r *regs.Regs) (FstatArgs, error) {
			return FstatArgs{FD: regs.AsI32(regs.Arg(r, 1))}, nil
		},
		func(a, b FstatArgs) bool { return a == b },
		func(ctx *OutputCtx, args FstatArgs, r *regs.Regs) (FstatOutput, error) {
			out := FstatOutput{Return: regs.AsI64String(regs.ReturnValue(r))}
			if !regs.IsErrno(regs.ReturnValue(r)) {
				var st Stat
				if err := mem.ReadTyped(ctx.Reader, uintptr(regs.Arg(r, 2)), &st); err != nil {
					return FstatOutput{}, err
				}
				w := st.toWire()
				out.Data = &w
			}
			return out, nil
		},
		func(a, b FstatOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool {
				if a.Data == nil || b.Data == nil {
					return a.Data == b.Data
				}
				return *a.Data == *b.Data
			})
		},
		nil, nil,
	)
}
