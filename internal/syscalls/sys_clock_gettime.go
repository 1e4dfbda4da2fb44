package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type ClockGettimeArgs struct {
	ClockID int32 `json:"clockid"`
}

// ClockGettimeOutput never compares Data: wall-clock and monotonic time
// values are expected to differ between any two runs by construction, so
// neither Data nor the return code is compared, matching sys_clock_gettime.rs's
// always-succeed FuzzyEq.
type ClockGettimeOutput struct {
	Return tape.I64String `json:"return"`
	Data   *timespecWire  `json:"data,omitempty"`
}

func init() {
	registerTyped(
		"clock_gettime", 228,
		func(ctx *OutputCtx, r *regs.Regs) (ClockGettimeArgs, error) {
			return ClockGettimeArgs{ClockID: regs.AsI32(regs.Arg(r, 1))}, nil
		},
		func(a, b ClockGettimeArgs) bool { return a == b },
		func(ctx *OutputCtx, args ClockGettimeArgs, r *regs.Regs) (ClockGettimeOutput, error) {
			ret := regs.AsI64String(regs.ReturnValue(r))
			var data *timespecWire
			if int64(ret) == 0 {
				var ts Timespec
				if err := mem.ReadTyped(ctx.Reader, uintptr(regs.Arg(r, 2)), &ts); err != nil {
					return ClockGettimeOutput{}, err
				}
				w := ts.toWire()
				data = &w
			}
			return ClockGettimeOutput{Return: ret, Data: data}, nil
		},
		func(a, b ClockGettimeOutput) bool { return alwaysEqual(a, b) },
		nil, nil,
	)
}
