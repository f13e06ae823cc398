package table_valued_functions

import (
	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/tablefunc"
)

const (
	ErrorCodeNegativeCopies = 1
	ErrorCodeOutputTooSmall = 2
)

var copiesArgument = 1

var RowCopier = Descriptor{
	Description: "Repeats the whole input column the given number of times.",
	Arguments: []Argument{
		{Name: "x", Kind: ArgumentKindColumn, Type: physical.Int64},
		{Name: "copies", Kind: ArgumentKindLiteral, Type: physical.Int32},
	},
	Outputs: []physical.Target{
		{Name: "copied", Type: physical.Int64},
	},
	MultiplierArgument: &copiesArgument,
	Function: &tablefunc.CompiledFunction{
		Name: "row_copier",
		CPU:  rowCopierCPU,
		GPU:  rowCopierGPU,
	},
}

func rowCopierCPU(inputs [][]byte, inputRowCount *int64, outputs [][]byte, outputRowCount *int64) int32 {
	n := *inputRowCount
	copies := int64(getInt32(inputs[1]))
	if copies < 0 {
		return ErrorCodeNegativeCopies
	}
	if int64(len(outputs[0])) < copies*n*8 {
		return ErrorCodeOutputTooSmall
	}
	for c := int64(0); c < copies; c++ {
		for i := int64(0); i < n; i++ {
			putInt64(outputs[0], c*n+i, getInt64(inputs[0], i))
		}
	}
	*outputRowCount = copies * n
	return 0
}

func rowCopierGPU(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
	args := resolveKernelArgs(mem, params, 2, 1)
	n := args.rowCount
	copies := int64(device.ReadInt32(mem, args.inputs[1]))
	if copies < 0 {
		if tid.Global() == 0 {
			device.WriteInt32(mem, params.ErrorBuffer, ErrorCodeNegativeCopies)
		}
		return
	}
	x := column(mem, args.inputs[0], n)
	out, ok := outputColumn(mem, args.outputs[0], copies*n)
	if !ok {
		if tid.Global() == 0 {
			device.WriteInt32(mem, params.ErrorBuffer, ErrorCodeOutputTooSmall)
		}
		return
	}

	for i := int64(tid.Global()); i < copies*n; i += int64(tid.Stride()) {
		putInt64(out, i, getInt64(x, i%n))
	}
	if tid.Global() == 0 {
		device.WriteInt64(mem, params.OutputRowCount, copies*n)
	}
}
