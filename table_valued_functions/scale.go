package table_valued_functions

import (
	"math"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/tablefunc"
)

var Scale = Descriptor{
	Description: "Multiplies every value of a column by a constant factor.",
	Arguments: []Argument{
		{Name: "x", Kind: ArgumentKindColumn, Type: physical.Float64},
		{Name: "factor", Kind: ArgumentKindLiteral, Type: physical.Float64},
	},
	Outputs: []physical.Target{
		{Name: "scaled", Type: physical.Float64},
	},
	DefaultMultiplier: 1,
	Function: &tablefunc.CompiledFunction{
		Name: "scale",
		CPU:  scaleCPU,
		GPU:  scaleGPU,
	},
}

func scaleCPU(inputs [][]byte, inputRowCount *int64, outputs [][]byte, outputRowCount *int64) int32 {
	n := *inputRowCount
	factor := getFloat64(inputs[1], 0)
	for i := int64(0); i < n; i++ {
		putFloat64(outputs[0], i, getFloat64(inputs[0], i)*factor)
	}
	*outputRowCount = n
	return 0
}

func scaleGPU(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
	args := resolveKernelArgs(mem, params, 2, 1)
	n := args.rowCount
	x := column(mem, args.inputs[0], n)
	factor := math.Float64frombits(uint64(device.ReadInt64(mem, args.inputs[1])))
	out := column(mem, args.outputs[0], n)

	for i := int64(tid.Global()); i < n; i += int64(tid.Stride()) {
		putFloat64(out, i, getFloat64(x, i)*factor)
	}
	if tid.Global() == 0 {
		device.WriteInt64(mem, params.OutputRowCount, n)
	}
}
