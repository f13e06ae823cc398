package table_valued_functions

import (
	"encoding/binary"
	"math"

	"github.com/cube2222/udtf/device"
)

func getInt64(buf []byte, i int64) int64 {
	return int64(binary.LittleEndian.Uint64(buf[i*8:]))
}

func putInt64(buf []byte, i int64, value int64) {
	binary.LittleEndian.PutUint64(buf[i*8:], uint64(value))
}

func getFloat64(buf []byte, i int64) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
}

func putFloat64(buf []byte, i int64, value float64) {
	binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
}

func getInt32(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf))
}

// kernelArgs resolves the kernel parameter block into host-addressable slices of device memory.
type kernelArgs struct {
	inputs   []device.Ptr
	outputs  []device.Ptr
	rowCount int64
}

func resolveKernelArgs(mem device.Memory, params device.KernelParams, inputCount, outputCount int) kernelArgs {
	return kernelArgs{
		inputs:   device.ReadPtrs(mem, params.ColumnBuffers, inputCount),
		outputs:  device.ReadPtrs(mem, params.OutputBuffers, outputCount),
		rowCount: device.ReadInt64(mem, params.InputRowCount),
	}
}

func column(mem device.Memory, p device.Ptr, rows int64) []byte {
	return mem.Bytes(p, int(rows)*8)
}

// outputColumn is like column, but reports an allocation too small for the given rows instead of faulting.
func outputColumn(mem device.Memory, p device.Ptr, rows int64) (out []byte, ok bool) {
	defer func() {
		if recover() != nil {
			out, ok = nil, false
		}
	}()
	return column(mem, p, rows), true
}
