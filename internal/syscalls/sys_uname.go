package syscalls

import (
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

// unameBufSize is sizeof(struct new_utsname): six 65-byte fields
// (sysname, nodename, release, version, machine, domainname).
const unameBufSize = 6 * 65

type UnameOutput struct {
	Return tape.I64String `json:"return"`
	Data   []byte         `json:"data,omitempty"`
}

func init() {
	registerTyped(
		"uname", 63,
		func(ctx *OutputCtx, r *regs.Regs) (struct{}, error) { return struct{}{}, nil },
		func(a, b struct{}) bool { return true },
		func(ctx *OutputCtx, args struct{}, r *regs.Regs) (UnameOutput, error) {
			ret := regs.AsI64String(regs.ReturnValue(r))
			var data []byte
			if int64(ret) == 0 {
				raw, err := mem.ReadBytes(ctx.Reader, uintptr(regs.Arg(r, 1)), unameBufSize)
				if err != nil {
					return UnameOutput{}, err
				}
				data = raw
			}
			return UnameOutput{Return: ret, Data: data}, nil
		},
		func(a, b UnameOutput) bool {
			return errorOrData(int64(a.Return), int64(b.Return), func() bool {
				return string(a.Data) == string(b.Data)
			})
		},
		nil, nil,
	)
}
