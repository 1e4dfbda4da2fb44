package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type RtSigprocmaskArgs struct {
	How        int32          `json:"how"`
	Sigsetsize tape.U64String `json:"sigsetsize"`

	setPtr    uint64
	oldsetPtr uint64
}

type RtSigprocmaskOutput struct {
	Return tape.I64String  `json:"return"`
	Nset   *tape.U64String `json:"nset,omitempty"`
	Oldset *tape.U64String `json:"oldset,omitempty"`
}

func readOptionalSigset(ctx *OutputCtx, ptr uint64) (*tape.U64String, error) {
	if ptr == 0 {
		return nil, nil
	}
	var s SigsetT
	if err := mem.ReadTyped(ctx.Reader, uintptr(ptr), &s); err != nil {
		return nil, err
	}
	v := tape.U64String(s.Val())
	return &v, nil
}

func init() {
	registerTyped(
		"rt_sigprocmask", 14,
		func(ctx *OutputCtx, r *regs.Regs) (RtSigprocmaskArgs, error) {
			return RtSigprocmaskArgs{
				How:        regs.AsI32(regs.Arg(r, 1)),
				Sigsetsize: tape.U64String(regs.Arg(r, 4)),
				setPtr:     regs.Arg(r, 2),
				oldsetPtr:  regs.Arg(r, 3),
			}, nil
		},
		func(a, b RtSigprocmaskArgs) bool { return a.How == b.How && a.Sigsetsize == b.Sigsetsize },
		func(ctx *OutputCtx, args RtSigprocmaskArgs, r *regs.Regs) (RtSigprocmaskOutput, error) {
			out := RtSigprocmaskOutput{Return: regs.AsI64String(regs.ReturnValue(r))}
			nset, err := readOptionalSigset(ctx, args.setPtr)
			if err != nil {
				return RtSigprocmaskOutput{}, err
			}
			out.Nset = nset
			oldset, err := readOptionalSigset(ctx, args.oldsetPtr)
			if err != nil {
				return RtSigprocmaskOutput{}, err
			}
			out.Oldset = oldset
			return out, nil
		},
		func(a, b RtSigprocmaskOutput) bool { return exactMatch(a, b) },
		nil, nil,
	)
}
