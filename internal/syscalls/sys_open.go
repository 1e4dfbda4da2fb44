package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// OpenArgs decodes open(2)'s arguments. Path is read eagerly at decode time
// (before any mock has a chance to rewrite the pointer's target), so the
// recorded tape always reflects what the instrumented program actually
// asked to open, matching sys_open.rs's intent even though the original
// captures the string from Output instead of Args.
type OpenArgs struct {
	Path  string `json:"path"`
	Flags int32  `json:"flags"`
	Mode  uint32 `json:"mode"`

	pathPtr uint64
}

type OpenOutput struct {
	Return tape.I64String `json:"return"`
}

// OpenMock mirrors sys_open.rs's Mock: a host path rewrite table keyed by
// the path the tracee asked to open, plus a flag that forces any
// write-only open to /dev/null (a common "don't let the program actually
// write its log/cache file" policy).
type OpenMock struct {
	Mapping                map[string]string `json:"mapping"`
	MakeWronlyFilesDevnull bool              `json:"make_wronly_files_devnull"`
}

const (
	oAccMode = 0x3
	oWRONLY  = 0x1
)

func init() {
	registerTyped(
		"open", 2,
		func(ctx *OutputCtx, r *regs.Regs) (OpenArgs, error) {
			ptr := regs.Arg(r, 1)
			path, err := mem.ReadCString(ctx.Reader, uintptr(ptr))
			if err != nil {
				return OpenArgs{}, err
			}
			return OpenArgs{
				Path: path, Flags: regs.AsI32(regs.Arg(r, 2)), Mode: regs.AsU32(regs.Arg(r, 3)),
				pathPtr: ptr,
			}, nil
		},
		func(a, b OpenArgs) bool { return a.Flags == b.Flags && a.Mode == b.Mode },
		func(ctx *OutputCtx, args OpenArgs, r *regs.Regs) (OpenOutput, error) {
			return OpenOutput{Return: regs.AsI64String(regs.ReturnValue(r))}, nil
		},
		func(a, b OpenOutput) bool { return a == b },
		func() Mock { return &OpenMock{} },
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args OpenArgs, r *regs.Regs) (Action, error) {
			m, _ := mock.(*OpenMock)
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
			regs.SetArg(&newRegs, 1, ctx.ParentPageAddr)
			return Action{Kind: Replace, Regs: &newRegs}, nil
		},
	)
}
