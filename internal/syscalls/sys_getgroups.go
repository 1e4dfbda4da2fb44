package syscalls

import (
	"encoding/binary"

	"github.com/pendulm/tapetrace/internal/log"
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

type GetgroupsArgs struct {
	Size int32 `json:"size"`
}

type GetgroupsOutput struct {
	Return tape.I64String `json:"return"`
	Groups []int32        `json:"groups,omitempty"`
}

func init() {
	registerTyped(
		"getgroups", 115,
		func(ctx *OutputCtx, r *regs.Regs) (GetgroupsArgs, error) {
			return GetgroupsArgs{Size: regs.AsI32(regs.Arg(r, 1))}, nil
		},
		func(a, b GetgroupsArgs) bool { return a == b },
		func(ctx *OutputCtx, args GetgroupsArgs, r *regs.Regs) (GetgroupsOutput, error) {
			ret := regs.AsI64String(regs.ReturnValue(r))
			var groups []int32
			if int64(ret) > 0 && args.Size > 0 {
				count := int32(ret)
				if count > args.Size {
					log.Error("getgroups: kernel reported %d groups but the buffer only holds %d; truncating", count, args.Size)
					count = args.Size
				}
				raw, err := mem.ReadBytes(ctx.Reader, uintptr(regs.Arg(r, 2)), int(count)*4)
				if err != nil {
					return GetgroupsOutput{}, err
				}
				groups = make([]int32, count)
				for i := range groups {
					groups[i] = int32(binary.LittleEndian.Uint32(raw[i*4 : i*4+4]))
				}
			}
			return GetgroupsOutput{Return: ret, Groups: groups}, nil
		},
		// Only the reported count is compared, not the actual group ids
		// (which depend on the host running the recording), mirroring
		// sys_getgroups.rs's custom FuzzyEq.
		func(a, b GetgroupsOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool {
				return len(a.Groups) == len(b.Groups)
			})
		},
		nil, nil,
	)
}
