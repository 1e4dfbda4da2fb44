package syscalls

import (
	"github.com/pendulm/tapetrace/internal/log"
	"github.com/pendulm/tapetrace/internal/mem"
	"github.com/pendulm/tapetrace/internal/regs"
	"github.com/pendulm/tapetrace/internal/tape"
)

const sigHUP = 1

type RtSigactionArgs struct {
	Sig        int32          `json:"sig"`
	Sigsetsize tape.U64String `json:"sigsetsize"`

	actPtr  uint64
	oactPtr uint64
}

type RtSigactionOutput struct {
	Return     tape.I64String `json:"return"`
	Sighandler tape.U64String `json:"sighandler"`
	Act        *sigactionWire `json:"act,omitempty"`
	Oact       *sigactionWire `json:"oact,omitempty"`
}

// RtSigactionMock mirrors sys_rt_sigaction.rs's Mock: when ReplaceSighup is
// set and the tracee installs a handler for SIGHUP, redirect it to the
// instrumentation's no-op handler instead, so config-reload-on-SIGHUP
// programs don't reload state mid-recording.
type RtSigactionMock struct {
	ReplaceSighup bool `json:"replace_sighup"`
}

// annotateSighandler looks up a handler address in the function-pointer
// table the instrumentation reported at handshake time, falling back to
// the raw value if the address isn't a known function. The original's
// fallback behavior is preserved, it just now logs instead of silently
// returning the raw value.
func annotateSighandler(ctx *OutputCtx, addr uint64) tape.U64String {
	if annot, ok := ctx.FunctionPointerTable[addr]; ok {
		return tape.U64String(annot)
	}
	log.WithField("syscall", "rt_sigaction").Warnf("handler address 0x%x is not in the function pointer table; recording the raw value", addr)
	return tape.U64String(addr)
}

func init() {
	registerTyped(
		"rt_sigaction", 13,
		func(ctx *OutputCtx, r *regs.Regs) (RtSigactionArgs, error) {
			return RtSigactionArgs{
				Sig:        regs.AsI32(regs.Arg(r, 1)),
				Sigsetsize: tape.U64String(regs.Arg(r, 4)),
				actPtr:     regs.Arg(r, 2),
				oactPtr:    regs.Arg(r, 3),
			}, nil
		},
		func(a, b RtSigactionArgs) bool { return a.Sig == b.Sig && a.Sigsetsize == b.Sigsetsize },
		func(ctx *OutputCtx, args RtSigactionArgs, r *regs.Regs) (RtSigactionOutput, error) {
			out := RtSigactionOutput{Return: regs.AsI64String(regs.ReturnValue(r))}
			if args.actPtr != 0 {
				var act Sigaction
				if err := mem.ReadTyped(ctx.Reader, uintptr(args.actPtr), &act); err != nil {
					return RtSigactionOutput{}, err
				}
				w := act.toWire()
				out.Act = &w
				out.Sighandler = annotateSighandler(ctx, act.Handler())
			}
			if present, err := readOptionalSigaction(ctx, args.oactPtr); err != nil {
				return RtSigactionOutput{}, err
			} else if present != nil {
				out.Oact = present
			}
			return out, nil
		},
		func(a, b RtSigactionOutput) bool { return exactMatch(a, b) },
		func() Mock { return &RtSigactionMock{} },
		func(mock Mock, mw MemWriter, ctx *OutputCtx, args RtSigactionArgs, r *regs.Regs) (Action, error) {
			m, _ := mock.(*RtSigactionMock)
			if args.Sig != sigHUP {
				return Action{Kind: DontMock}, nil
			}
			if m == nil || !m.ReplaceSighup {
				return Action{}, errSighupUnhandled()
			}
			newRegs := *r
			newAct, err := mem.ReadBytes(mw, uintptr(args.actPtr), 32)
			if err != nil {
				return Action{}, err
			}
			// only the handler field changes; flags/restorer/mask are
			// left exactly as the tracee supplied them.
			copy(newAct[0:8], u64le(ctx.NoopSighandlerAddr))
			if err := mem.WriteBytes(mw, uintptr(ctx.ParentPageAddr), newAct); err != nil {
				return Action{}, err
			}
			regs.SetArg(&newRegs, 2, ctx.ParentPageAddr)
			return Action{Kind: Replace, Regs: &newRegs}, nil
		},
	)
}

func readOptionalSigaction(ctx *OutputCtx, ptr uint64) (*sigactionWire, error) {
	if ptr == 0 {
		return nil, nil
	}
	var act Sigaction
	if err := mem.ReadTyped(ctx.Reader, uintptr(ptr), &act); err != nil {
		return nil, err
	}
	w := act.toWire()
	return &w, nil
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
