package syscalls

import "github.com/pendulm/tapetrace/internal/regs"

// GetppidMock lets a spec pin getppid(2)'s return value, per
// make_return_value_mock!: the traced program's real parent pid is the
// tapetrace supervisor itself, which is never the same across recordings,
// so reproducing a captured tape against a different invocation needs a
// way to substitute whatever pid the spec recorded.
type GetppidMock struct {
	Value int64 `json:"value"`
}

func init() {
	registerTyped(
		"getppid", 110,
		func(ctx *OutputCtx, r *regs.Regs) (struct{}, error) { return struct{}{}, nil },
		func(a, b struct{}) bool { return true },
		func(ctx *OutputCtx, args struct{}, r *regs.Regs) (IDOutput, error) {
			return IDOutput{Return: regs.AsU64String(regs.ReturnValue(r))}, nil
		},
		func(a, b IDOutput) bool { return a == b },
		func() Mock { return &GetppidMock{} },
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args struct{}, r *regs.Regs) (Action, error) {
			m, _ := mock.(*GetppidMock)
			if m == nil {
				return Action{Kind: DontMock}, nil
			}
			newRegs := *r
			newRegs.Rax = uint64(m.Value)
			return Action{Kind: NoOp, Regs: &newRegs}, nil
		},
	)
}
