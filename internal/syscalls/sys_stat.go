package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type StatArgs struct {
	Path string `json:"path"`
}

// StatOutput uses the "error-or-data" comparison pattern: stat buffers are
// only meaningfully comparable when the call succeeded.
type StatOutput struct {
	Return tape.I64String `json:"return"`
	Data   *statWire      `json:"data,omitempty"`
}

// StatMock reuses open(2)'s path-rewrite shape; wronly is meaningless for
// stat so that field is simply absent.
type StatMock struct {
	Mapping map[string]string `json:"mapping"`
}

func init() {
	registerTyped(
		"stat", 4,
		func(ctx *OutputCtx, r *regs.Regs) (StatArgs, error) {
			path, err := mem.ReadCString(ctx.Reader, uintptr(regs.Arg(r, 1)))
			return StatArgs{Path: path}, err
		},
		func(a, b StatArgs) bool { return true }, // ignores the recorded path, like open's partial match
		func(ctx *OutputCtx, args StatArgs, r *regs.Regs) (StatOutput, error) {
			ret := regs.AsI64(regs.ReturnValue(r))
			out := StatOutput{Return: tape.I64String(ret)}
			if !regs.IsErrno(regs.ReturnValue(r)) {
				var st Stat
				if err := mem.ReadTyped(ctx.Reader, uintptr(regs.Arg(r, 2)), &st); err != nil {
					return StatOutput{}, err
				}
				w := st.toWire()
				out.Data = &w
			}
			return out, nil
		},
		func(a, b StatOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool {
				if a.Data == nil || b.Data == nil {
					return a.Data == b.Data
				}
				return *a.Data == *b.Data
			})
		},
		func() Mock { return &StatMock{} },
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args StatArgs, r *regs.Regs) (Action, error) {
			m, _ := mock.(*StatMock)
			if m == nil {
				return Action{Kind: DontMock}, nil
			}
			newPath, mapped := m.Mapping[args.Path]
			if !mapped {
				return Action{Kind: DontMock}, nil
			}
			newRegs := *r
			if err := mem.WriteBytes(mw, uintptr(ctx.ParentPageAddr), append([]byte(newPath), 0)); err != nil {
				return Action{}, err
			}
			regs.SetArg(&newRegs, 1, ctx.ParentPageAddr)
			return Action{Kind: Replace, Regs: &newRegs}, nil
		},
	)
}
