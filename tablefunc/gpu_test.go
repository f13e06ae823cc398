//go:build !nogpu

package tablefunc

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
)

// copyKernel copies the first column input and reports the input row count.
func copyKernel(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
	n := device.ReadInt64(mem, params.InputRowCount)
	in := device.ReadPtrs(mem, params.ColumnBuffers, 1)[0]
	out := device.ReadPtrs(mem, params.OutputBuffers, 1)[0]
	for i := tid.Global(); i < int(n); i += tid.Stride() {
		device.WriteInt64(mem, out.Add(i*8), device.ReadInt64(mem, in.Add(i*8)))
	}
	if tid.Global() == 0 {
		device.WriteInt64(mem, params.OutputRowCount, n)
	}
}

// fillKernel fills every allocated row without reporting the row count.
func fillKernel(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
	if tid.Global() != 0 {
		return
	}
	n := device.ReadInt64(mem, params.InputRowCount)
	out := device.ReadPtrs(mem, params.OutputBuffers, 1)[0]
	for i := 0; i < int(n)*2; i++ {
		device.WriteInt64(mem, out.Add(i*8), int64(i))
	}
}

type gpuTestEnv struct {
	mem  *memory.CheckedAllocator
	gpu  *device.Emulated
	exec *ExecutionContext
	done func()
}

func newGPUTestEnv(t *testing.T, opts []Option, columns ...[]int64) *gpuTestEnv {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	gpu := device.NewEmulated(0)
	store := testStore(mem, columns...)
	store.AttachDevice(gpu)

	opts = append([]Option{
		WithAllocator(mem),
		WithGPU(gpu),
		WithLogger(quietLogger),
		WithExecutionWidth(testWidth{block: 4, grid: 2}),
	}, opts...)
	return &gpuTestEnv{
		mem:  mem,
		gpu:  gpu,
		exec: NewExecutionContext(store, opts...),
		done: func() {
			require.NoError(t, store.Close())
			mem.AssertSize(t, 0)
			assert.Equal(t, int64(0), gpu.AllocatedBytes())
		},
	}
}

func TestExecuteGPU(t *testing.T) {
	env := newGPUTestEnv(t, nil, []int64{1, 2, 3, 4})
	defer env.done()
	assert.True(t, env.exec.GPUEnabled())

	result, err := env.exec.Execute(
		context.Background(),
		int64Unit(physical.RowMultiplier(2), col(0)),
		&CompiledFunction{Name: "copy", GPU: copyKernel},
		device.GPU,
	)
	require.NoError(t, err)
	defer result.Release()

	assert.Equal(t, int64(8), result.AllocatedRowCount())
	assert.Equal(t, int64(4), result.RowCount())
	assert.Equal(t, []int64{1, 2, 3, 4}, int64Values(result, 0))
}

func TestExecuteGPUMatchesCPU(t *testing.T) {
	input := make([]int64, 1000)
	for i := range input {
		input[i] = int64(i*i) - 500
	}
	env := newGPUTestEnv(t, []Option{WithExecutionWidth(testWidth{block: 32, grid: 3})}, input)
	defer env.done()

	fn := &CompiledFunction{Name: "copy", CPU: firstHalfCPU, GPU: copyKernel}
	unit := int64Unit(physical.RowMultiplier(1), col(0))

	var outputs [][]int64
	for _, deviceType := range []device.Type{device.CPU, device.GPU, device.GPU} {
		result, err := env.exec.Execute(context.Background(), unit, fn, deviceType)
		require.NoError(t, err)
		outputs = append(outputs, int64Values(result, 0))
		result.Release()
	}
	assert.Equal(t, input, outputs[0])
	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}

func TestExecuteGPULiterals(t *testing.T) {
	env := newGPUTestEnv(t, nil, []int64{10, 20})
	defer env.done()

	var seen []int64
	kernel := func(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
		if tid.Global() != 0 {
			return
		}
		inputs := device.ReadPtrs(mem, params.ColumnBuffers, 3)
		// Literal slots are 8 bytes wide, with the unused high bytes left zeroed.
		seen = append(seen, int64(device.ReadInt32(mem, inputs[1])), device.ReadInt64(mem, inputs[2]))
		device.WriteInt64(mem, params.OutputRowCount, 0)
	}

	result, err := env.exec.Execute(
		context.Background(),
		int64Unit(
			physical.RowMultiplier(1),
			col(0),
			physical.NewIntConstant(physical.Int32, -7),
			physical.NewIntConstant(physical.Int64, 1<<33),
		),
		&CompiledFunction{Name: "literals", GPU: kernel},
		device.GPU,
	)
	require.NoError(t, err)
	defer result.Release()

	assert.Equal(t, []int64{-7, 1 << 33}, seen)
	assert.Equal(t, int64(0), result.RowCount())
}

func TestExecuteGPUOutputRowCountNotSet(t *testing.T) {
	t.Run("falls back to allocated rows", func(t *testing.T) {
		env := newGPUTestEnv(t, nil, []int64{1, 2, 3})
		defer env.done()

		result, err := env.exec.Execute(
			context.Background(),
			int64Unit(physical.RowMultiplier(2), col(0)),
			&CompiledFunction{Name: "fill", GPU: fillKernel},
			device.GPU,
		)
		require.NoError(t, err)
		defer result.Release()

		assert.Equal(t, int64(6), result.RowCount())
		assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, int64Values(result, 0))
	})

	t.Run("strict", func(t *testing.T) {
		env := newGPUTestEnv(t, []Option{WithStrictGPUOutputRowCount(true)}, []int64{1, 2, 3})
		defer env.done()

		_, err := env.exec.Execute(
			context.Background(),
			int64Unit(physical.RowMultiplier(2), col(0)),
			&CompiledFunction{Name: "fill", GPU: fillKernel},
			device.GPU,
		)
		assert.ErrorIs(t, err, ErrOutputCardinalityNotSet)
	})
}

func TestExecuteGPUFailures(t *testing.T) {
	tests := []struct {
		name   string
		kernel device.Kernel
		width  ExecutionWidth
		check  func(t *testing.T, err error)
	}{
		{
			name: "error buffer",
			kernel: func(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
				if tid.Global() == 0 {
					device.WriteInt32(mem, params.ErrorBuffer, 42)
					device.WriteInt64(mem, params.OutputRowCount, 1)
				}
			},
			width: testWidth{block: 4, grid: 2},
			check: func(t *testing.T, err error) {
				var execErr *ExecutionError
				require.ErrorAs(t, err, &execErr)
				assert.Equal(t, int32(42), execErr.Code)
			},
		},
		{
			name:   "invalid launch dimensions",
			kernel: notCalledKernel,
			width:  testWidth{block: device.MaxThreadsPerBlock * 2, grid: 1},
			check: func(t *testing.T, err error) {
				var launchErr *KernelLaunchError
				assert.ErrorAs(t, err, &launchErr)
			},
		},
		{
			name: "out of bounds access",
			kernel: func(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
				out := device.ReadPtrs(mem, params.OutputBuffers, 1)[0]
				device.WriteInt64(mem, out.Add(1<<20), 1)
			},
			width: testWidth{block: 4, grid: 2},
			check: func(t *testing.T, err error) {
				var launchErr *KernelLaunchError
				assert.ErrorAs(t, err, &launchErr)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newGPUTestEnv(t, []Option{WithExecutionWidth(tt.width)}, []int64{1, 2, 3})
			defer env.done()

			result, err := env.exec.Execute(
				context.Background(),
				int64Unit(physical.RowMultiplier(1), col(0)),
				&CompiledFunction{Name: "failing", GPU: tt.kernel},
				device.GPU,
			)
			assert.Nil(t, result)
			tt.check(t, err)
		})
	}
}

func TestExecuteGPUUnsupportedOutputPolicy(t *testing.T) {
	env := newGPUTestEnv(t, nil, []int64{1, 2, 3})
	defer env.done()

	_, err := env.exec.Execute(
		context.Background(),
		int64Unit(nil, col(0)),
		&CompiledFunction{Name: "never", GPU: notCalledKernel},
		device.GPU,
	)
	assert.ErrorIs(t, err, ErrUnsupportedOutputPolicy)
	assert.Equal(t, int64(0), env.gpu.AllocatedBytes())
}

func TestPackLiteralGPU(t *testing.T) {
	gpu := device.NewEmulated(0)
	allocator := gpu.NewAllocator()
	defer func() {
		require.NoError(t, allocator.Close())
		assert.Equal(t, int64(0), gpu.AllocatedBytes())
	}()
	packer := &literalPacker{deviceType: device.GPU, allocator: allocator}

	for _, tt := range literalTests {
		t.Run(tt.name, func(t *testing.T) {
			host, ptr, err := packer.pack(tt.literal)
			require.NoError(t, err)
			assert.Nil(t, host)

			slot := make([]byte, literalSlotSize)
			require.NoError(t, allocator.CopyFromDevice(slot, ptr))
			assert.Equal(t, tt.want, slot[:len(tt.want)])
		})
	}
}
