package tablefunc

import (
	"encoding/binary"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/pkg/errors"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
)

type gpuLauncher struct {
	device device.Device
	width  ExecutionWidth
	mem    memory.Allocator
	// strictOutputRowCount fails kernels which leave the output row count unset,
	// instead of assuming they filled the whole allocation.
	strictOutputRowCount bool
}

func (l *gpuLauncher) launch(unit *physical.ExecutionUnit, fn *CompiledFunction, inputs *InputBuffers, inv *invocation) (*ResultSet, error) {
	if fn.GPU == nil {
		return nil, errors.Errorf("table function %s has no gpu implementation", fn.Name)
	}
	allocator := inv.allocator

	var params device.KernelParams
	var err error

	params.ColumnBuffers, err = allocAndCopy(allocator, device.EncodePtrs(inputs.Device))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't set up column buffers")
	}
	params.InputRowCount, err = allocAndCopy(allocator, encodeInt64(inputs.ElementCount))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't set up input row count")
	}
	params.ErrorBuffer, err = allocAndCopy(allocator, make([]byte, 4))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't set up error buffer")
	}

	layout, err := PlanOutput(unit, inputs.ElementCount)
	if err != nil {
		return nil, err
	}
	outputBuffers := make([]device.Ptr, len(layout.Slots))
	for i := range outputBuffers {
		outputBuffers[i], err = allocator.Alloc(layout.ColumnBytes(i, layout.AllocatedRowCount))
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't allocate output buffer %d", i)
		}
	}
	params.OutputBuffers, err = allocAndCopy(allocator, device.EncodePtrs(outputBuffers))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't set up output buffers")
	}
	params.OutputRowCount, err = allocAndCopy(allocator, encodeInt64(-1))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't set up output row count")
	}

	grid := device.Dim3{X: int(l.width.GridSize()), Y: 1, Z: 1}
	block := device.Dim3{X: int(l.width.BlockSize()), Y: 1, Z: 1}
	if err := l.device.Launch(fn.GPU, grid, block, params); err != nil {
		return nil, &KernelLaunchError{Err: err}
	}

	// A kernel error wins over the output row count, which may never have been set.
	errorCode := make([]byte, 4)
	if err := allocator.CopyFromDevice(errorCode, params.ErrorBuffer); err != nil {
		return nil, errors.Wrap(err, "couldn't read error buffer")
	}
	if code := int32(binary.LittleEndian.Uint32(errorCode)); code != 0 {
		return nil, &ExecutionError{Code: code}
	}

	rawOutputRowCount := make([]byte, 8)
	if err := allocator.CopyFromDevice(rawOutputRowCount, params.OutputRowCount); err != nil {
		return nil, errors.Wrap(err, "couldn't read output row count")
	}
	outputRowCount := int64(binary.LittleEndian.Uint64(rawOutputRowCount))
	if outputRowCount < 0 {
		if l.strictOutputRowCount {
			return nil, ErrOutputCardinalityNotSet
		}
		inv.logger.Printf("table function %s [%s] didn't set the output row count, assuming %d allocated rows", fn.Name, inv.id, layout.AllocatedRowCount)
		outputRowCount = layout.AllocatedRowCount
	}

	// Host storage never exceeds what the kernel could have written.
	copyRows := outputRowCount
	if copyRows > layout.AllocatedRowCount {
		copyRows = layout.AllocatedRowCount
	}
	result := newResultSet(l.mem, unit.Targets, layout, copyRows)
	result.updateStorageEntryCount(outputRowCount)

	hostBuffers := result.hostBuffers()
	for i := range outputBuffers {
		if err := allocator.CopyFromDevice(hostBuffers[i], outputBuffers[i]); err != nil {
			result.Release()
			return nil, errors.Wrapf(err, "couldn't copy output buffer %d from device", i)
		}
	}

	return result, nil
}

func allocAndCopy(allocator device.Allocator, data []byte) (device.Ptr, error) {
	ptr, err := allocator.Alloc(len(data))
	if err != nil {
		return device.NullPtr, err
	}
	if err := allocator.CopyToDevice(ptr, data); err != nil {
		return device.NullPtr, err
	}
	return ptr, nil
}

func encodeInt64(value int64) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(value))
	return out
}
