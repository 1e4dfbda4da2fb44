package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// OpenatArgs generalizes OpenArgs with the leading directory-fd argument
// openat(2) adds.
type OpenatArgs struct {
	DirFD int32  `json:"dirfd"`
	Path  string `json:"path"`
	Flags int32  `json:"flags"`
	Mode  uint32 `json:"mode"`
}

type OpenatOutput struct {
	Return tape.I64String `json:"return"`
}

// OpenatMock reuses open(2)'s path-rewrite/devnull policy shape.
type OpenatMock struct {
	Mapping                map[string]string `json:"mapping"`
	MakeWronlyFilesDevnull bool              `json:"make_wronly_files_devnull"`
}

func init() {
	registerTyped(
		"openat", 257,
		func(ctx *OutputCtx, r *regs.Regs) (OpenatArgs, error) {
			path, err := mem.ReadCString(ctx.Reader, uintptr(regs.Arg(r, 2)))
			if err != nil {
				return OpenatArgs{}, err
			}
			return OpenatArgs{
				DirFD: regs.AsI32(regs.Arg(r, 1)), Path: path,
				Flags: regs.AsI32(regs.Arg(r, 3)), Mode: regs.AsU32(regs.Arg(r, 4)),
			}, nil
		},
		func(a, b OpenatArgs) bool { return a.DirFD == b.DirFD && a.Flags == b.Flags && a.Mode == b.Mode },
		func(ctx *OutputCtx, args OpenatArgs, r *regs.Regs) (OpenatOutput, error) {
			return OpenatOutput{Return: regs.AsI64String(regs.ReturnValue(r))}, nil
		},
		func(a, b OpenatOutput) bool { return a == b },
		func() Mock { return &OpenatMock{} },
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args OpenatArgs, r *regs.Regs) (Action, error) {
			m, _ := mock.(*OpenatMock)
			if m == nil {
				return Action{Kind: DontMock}, nil
			}
			newPath, mapped := m.Mapping[args.Path]
			wronly := m.MakeWronlyFilesDevnull && (args.Flags&oAccMode) == oWRONLY
			if !mapped && !wronly {
				return Action{Kind: DontMock}, nil
			}
			if wronly && !mapped {
				newPath = "/dev/null"
			}
			newRegs := *r
			if err := mem.WriteBytes(mw, uintptr(ctx.ParentPageAddr), append([]byte(newPath), 0)); err != nil {
				return Action{}, err
			}
			regs.SetArg(&newRegs, 2, ctx.ParentPageAddr)
			return Action{Kind: Replace, Regs: &newRegs}, nil
		},
	)
}
