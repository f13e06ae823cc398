package table_valued_functions

import (
	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/tablefunc"
)

var Positive = Descriptor{
	Description: "Keeps the strictly positive values of a column, preserving their order.",
	Arguments: []Argument{
		{Name: "x", Kind: ArgumentKindColumn, Type: physical.Int64},
	},
	Outputs: []physical.Target{
		{Name: "x", Type: physical.Int64},
	},
	DefaultMultiplier: 1,
	Function: &tablefunc.CompiledFunction{
		Name: "positive",
		CPU:  positiveCPU,
		GPU:  positiveGPU,
	},
}

func positiveCPU(inputs [][]byte, inputRowCount *int64, outputs [][]byte, outputRowCount *int64) int32 {
	*outputRowCount = compactPositive(inputs[0], outputs[0], *inputRowCount)
	return 0
}

// The compaction has to keep the input order, so a single thread does it.
func positiveGPU(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
	if tid.Global() != 0 {
		return
	}
	args := resolveKernelArgs(mem, params, 1, 1)
	n := args.rowCount
	count := compactPositive(column(mem, args.inputs[0], n), column(mem, args.outputs[0], n), n)
	device.WriteInt64(mem, params.OutputRowCount, count)
}

func compactPositive(in, out []byte, n int64) int64 {
	var count int64
	for i := int64(0); i < n; i++ {
		if v := getInt64(in, i); v > 0 {
			putInt64(out, count, v)
			count++
		}
	}
	return count
}
