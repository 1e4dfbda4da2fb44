package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type WritevArgs struct {
	FD   int32    `json:"fd"`
	Iovs [][]byte `json:"iovs"`
}

func init() {
	registerTyped(
		"writev", 20,
		func(ctx *OutputCtx, r *regs.Regs) (WritevArgs, error) {
			iovcnt := int(regs.AsI32(regs.Arg(r, 3)))
			vecs, err := mem.ReadIovecs(ctx.Reader, uintptr(regs.Arg(r, 2)), iovcnt)
			if err != nil {
				return WritevArgs{}, err
			}
			iovs := make([][]byte, len(vecs))
			for i, v := range vecs {
				iovs[i] = v.Data
			}
			return WritevArgs{FD: regs.AsI32(regs.Arg(r, 1)), Iovs: iovs}, nil
		},
		func(a, b WritevArgs) bool {
			if a.FD != b.FD || len(a.Iovs) != len(b.Iovs) {
				return false
			}
			for i := range a.Iovs {
				if string(a.Iovs[i]) != string(b.Iovs[i]) {
					return false
				}
			}
			return true
		},
		func(ctx *OutputCtx, args WritevArgs, r *regs.Regs) (ReturnOnly, error) {
			return decodeReturnOnly(r), nil
		},
		func(a, b ReturnOnly) bool { return a == b },
		nil, nil,
	)
}
