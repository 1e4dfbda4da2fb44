package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type ReadvArgs struct {
	FD     int32 `json:"fd"`
	IovCnt int32 `json:"iovcnt"`
}

type ReadvOutput struct {
	Return tape.I64String `json:"return"`
	Iovs   [][]byte       `json:"iovs"`
}

func init() {
	registerTyped(
		"readv", 19,
		func(ctx *OutputCtx, r *regs.Regs) (ReadvArgs, error) {
			return ReadvArgs{FD: regs.AsI32(regs.Arg(r, 1)), IovCnt: regs.AsI32(regs.Arg(r, 3))}, nil
		},
		func(a, b ReadvArgs) bool { return a == b },
		func(ctx *OutputCtx, args ReadvArgs, r *regs.Regs) (ReadvOutput, error) {
			out := ReadvOutput{Return: regs.AsI64String(regs.ReturnValue(r))}
			if !regs.IsErrno(regs.ReturnValue(r)) && args.IovCnt > 0 {
				vecs, err := mem.ReadIovecs(ctx.Reader, uintptr(regs.Arg(r, 2)), int(args.IovCnt))
				if err != nil {
					return ReadvOutput{}, err
				}
				out.Iovs = make([][]byte, len(vecs))
				for i, v := range vecs {
					out.Iovs[i] = v.Data
				}
			}
			return out, nil
		},
		func(a, b ReadvOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool {
				if len(a.Iovs) != len(b.Iovs) {
					return false
				}
				for i := range a.Iovs {
					if string(a.Iovs[i]) != string(b.Iovs[i]) {
						return false
					}
				}
				return true
			})
		},
		nil, nil,
	)
}
