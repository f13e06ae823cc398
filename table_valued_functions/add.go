package table_valued_functions

import (
	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/tablefunc"
)

var Add = Descriptor{
	Description: "Adds two integer columns element-wise.",
	Arguments: []Argument{
		{Name: "a", Kind: ArgumentKindColumn, Type: physical.Int64},
		{Name: "b", Kind: ArgumentKindColumn, Type: physical.Int64},
	},
	Outputs: []physical.Target{
		{Name: "sum", Type: physical.Int64},
	},
	DefaultMultiplier: 1,
	Function: &tablefunc.CompiledFunction{
		Name: "add",
		CPU:  addCPU,
		GPU:  addGPU,
	},
}

func addCPU(inputs [][]byte, inputRowCount *int64, outputs [][]byte, outputRowCount *int64) int32 {
	n := *inputRowCount
	for i := int64(0); i < n; i++ {
		putInt64(outputs[0], i, getInt64(inputs[0], i)+getInt64(inputs[1], i))
	}
	*outputRowCount = n
	return 0
}

func addGPU(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
	args := resolveKernelArgs(mem, params, 2, 1)
	n := args.rowCount
	a := column(mem, args.inputs[0], n)
	b := column(mem, args.inputs[1], n)
	out := column(mem, args.outputs[0], n)

	for i := int64(tid.Global()); i < n; i += int64(tid.Stride()) {
		putInt64(out, i, getInt64(a, i)+getInt64(b, i))
	}
	if tid.Global() == 0 {
		device.WriteInt64(mem, params.OutputRowCount, n)
	}
}
