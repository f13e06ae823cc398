package table_valued_functions

import (
	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/tablefunc"
)

var RunningSum = Descriptor{
	Description: "Computes the cumulative sum of a column.",
	Arguments: []Argument{
		{Name: "x", Kind: ArgumentKindColumn, Type: physical.Int64},
	},
	Outputs: []physical.Target{
		{Name: "running_sum", Type: physical.Int64},
	},
	DefaultMultiplier: 1,
	Function: &tablefunc.CompiledFunction{
		Name: "running_sum",
		CPU:  runningSumCPU,
		GPU:  runningSumGPU,
	},
}

func runningSumCPU(inputs [][]byte, inputRowCount *int64, outputs [][]byte, outputRowCount *int64) int32 {
	n := *inputRowCount
	runningSum(inputs[0], outputs[0], n)
	*outputRowCount = n
	return 0
}

func runningSumGPU(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
	if tid.Global() != 0 {
		return
	}
	args := resolveKernelArgs(mem, params, 1, 1)
	n := args.rowCount
	runningSum(column(mem, args.inputs[0], n), column(mem, args.outputs[0], n), n)
	device.WriteInt64(mem, params.OutputRowCount, n)
}

func runningSum(in, out []byte, n int64) {
	var sum int64
	for i := int64(0); i < n; i++ {
		sum += getInt64(in, i)
		putInt64(out, i, sum)
	}
}
