package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// PrlimitArgs is named after the libc symbol prlimit(2) even though its
// syscall number is prlimit64's, matching the naming original_source uses.
type PrlimitArgs struct {
	PID      int32       `json:"pid"`
	Resource int32       `json:"resource"`
	NewLimit *rlimitWire `json:"new_limit,omitempty"`
}

type PrlimitOutput struct {
	Return   tape.I64String `json:"return"`
	OldLimit *rlimitWire    `json:"old_limit,omitempty"`
}

func init() {
	registerTyped(
		"prlimit", 302,
		func(ctx *OutputCtx, r *regs.Regs) (PrlimitArgs, error) {
			args := PrlimitArgs{PID: regs.AsI32(regs.Arg(r, 1)), Resource: regs.AsI32(regs.Arg(r, 2))}
			if ptr := regs.Arg(r, 3); ptr != 0 {
				var rl Rlimit
				if err := mem.ReadTyped(ctx.Reader, uintptr(ptr), &rl); err != nil {
					return PrlimitArgs{}, err
				}
				w := rl.toWire()
				args.NewLimit = &w
			}
			return args, nil
		},
		func(a, b PrlimitArgs) bool {
			if a.PID != b.PID || a.Resource != b.Resource {
				return false
			}
			if (a.NewLimit == nil) != (b.NewLimit == nil) {
				return false
			}
			return a.NewLimit == nil || *a.NewLimit == *b.NewLimit
		},
		func(ctx *OutputCtx, args PrlimitArgs, r *regs.Regs) (PrlimitOutput, error) {
			ret := regs.AsI64String(regs.ReturnValue(r))
			var old *rlimitWire
			if ptr := regs.Arg(r, 4); int64(ret) == 0 && ptr != 0 {
				var rl Rlimit
				if err := mem.ReadTyped(ctx.Reader, uintptr(ptr), &rl); err != nil {
					return PrlimitOutput{}, err
				}
				w := rl.toWire()
				old = &w
			}
			return PrlimitOutput{Return: ret, OldLimit: old}, nil
		},
		func(a, b PrlimitOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool {
				if (a.OldLimit == nil) != (b.OldLimit == nil) {
					return false
				}
				return a.OldLimit == nil || *a.OldLimit == *b.OldLimit
			})
		},
		nil, nil,
	)
}
