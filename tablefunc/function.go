package tablefunc

import (
	"context"
	"runtime"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/storage"
)

// CPUFunction is the host calling convention of a compiled table function.
// It returns 0 on success and sets *outputRowCount to the number of rows it produced.
type CPUFunction func(inputBuffers [][]byte, inputRowCount *int64, outputBuffers [][]byte, outputRowCount *int64) int32

// CompiledFunction is the output of table function code generation.
// GPU may be nil if the function can't run on the device.
type CompiledFunction struct {
	Name string
	CPU  CPUFunction
	GPU  device.Kernel
}

type ColumnFetcher interface {
	Fetch(ctx context.Context, ref physical.ColumnReference, fragment int, level device.MemoryLevel, deviceID int) (*storage.Chunk, error)
}

// ExecutionWidth gives the kernel launch dimensions along X.
type ExecutionWidth interface {
	BlockSize() uint
	GridSize() uint
}

type defaultExecutionWidth struct{}

func (defaultExecutionWidth) BlockSize() uint {
	return device.DefaultBlockSize
}

func (defaultExecutionWidth) GridSize() uint {
	return uint(runtime.NumCPU() * device.DefaultGridMultiplier)
}
