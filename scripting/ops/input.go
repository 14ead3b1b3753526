package ops

import (
	"github.com/skryldev/videoproc/execpool"
	"github.com/skryldev/videoproc/scripting"
)

// inputOp exposes the raw frame(s) an evaluation was seeded with to the
// rest of the script: input() selects the primary frame, input(0) does the
// same explicitly, and input(1) selects the secondary frame an inter-frame
// script runs against, per spec.md §4.6's "stores input(s) at IDs 0 (and
// 2)". Grounded on original_source/.../scripting/algorithms/input.cpp.
type inputOp struct{}

func (inputOp) Name() string { return "input" }

func (inputOp) Overloads() []scripting.Overload {
	return []scripting.Overload{
		{
			ArgTypes: nil,
			Result:   scripting.TypeGray,
			Build: func(resultID int, _ []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				return func(ctx *scripting.Context, _ *execpool.Pool) error {
					it, err := ctx.MustGet(scripting.RawPrimaryInput)
					if err != nil {
						return err
					}
					ctx.Store(resultID, it)
					return nil
				}, nil
			},
		},
		{
			ArgTypes: []scripting.ItemType{scripting.TypeInt},
			Result:   scripting.TypeGray,
			Build: func(resultID int, args []scripting.ResolvedArg) (scripting.CompileFunc, error) {
				slot := scripting.RawPrimaryInput
				if args[0].Int != 0 {
					slot = scripting.RawSecondaryInput
				}
				return func(ctx *scripting.Context, _ *execpool.Pool) error {
					it, err := ctx.MustGet(slot)
					if err != nil {
						return err
					}
					ctx.Store(resultID, it)
					return nil
				}, nil
			},
		},
	}
}

func init() {
	scripting.Default.Register(inputOp{})
}
