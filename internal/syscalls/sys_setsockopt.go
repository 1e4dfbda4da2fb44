package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// SetsockoptArgs's fuzzy-equality omits optval_ptr itself: the memory
// address can vary run-to-run despite having equivalent semantics, and the
// option value is compared on Output anyway (as optval).
type SetsockoptArgs struct {
	FD      int32  `json:"fd"`
	Level   int32  `json:"level"`
	OptName int32  `json:"optname"`
	OptLen  int32  `json:"optlen"`

	optvalPtr uint64
}

type SetsockoptOutput struct {
	Return tape.I64String `json:"return"`
	Optval string         `json:"optval"`
}

func init() {
	registerTyped(
		"setsockopt", 54,
		func(ctx *OutputCtx, r *regs.Regs) (SetsockoptArgs, error) {
			return SetsockoptArgs{
				FD:        regs.AsI32(regs.Arg(r, 1)),
				Level:     regs.AsI32(regs.Arg(r, 2)),
				OptName:   regs.AsI32(regs.Arg(r, 3)),
				OptLen:    regs.AsI32(regs.Arg(r, 5)),
				optvalPtr: regs.Arg(r, 4),
			}, nil
		},
		func(a, b SetsockoptArgs) bool {
			return a.FD == b.FD && a.Level == b.Level && a.OptName == b.OptName && a.OptLen == b.OptLen
		},
		func(ctx *OutputCtx, args SetsockoptArgs, r *regs.Regs) (SetsockoptOutput, error) {
			optval, err := mem.ReadCString(ctx.Reader, uintptr(args.optvalPtr))
			if err != nil {
				return SetsockoptOutput{}, err
			}
			return SetsockoptOutput{Return: regs.AsI64String(regs.ReturnValue(r)), Optval: optval}, nil
		},
		func(a, b SetsockoptOutput) bool { return exactMatch(a, b) },
		nil, nil,
	)
}
