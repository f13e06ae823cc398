package device

import (
	"encoding/binary"
)

const (
	MaxThreadsPerBlock    = 1024
	DefaultBlockSize      = 256
	DefaultGridMultiplier = 4
)

// Dim3 describes grid and block dimensions.
type Dim3 struct {
	X, Y, Z int
}

func (d Dim3) Size() int {
	return d.X * d.Y * d.Z
}

type ThreadID struct {
	BlockIdx  Dim3
	ThreadIdx Dim3
	BlockDim  Dim3
	GridDim   Dim3
}

// Global is the thread's index along X across the whole grid.
func (tid ThreadID) Global() int {
	return tid.BlockIdx.X*tid.BlockDim.X + tid.ThreadIdx.X
}

// Stride is the number of threads along X in the whole grid, used by grid-stride loops.
func (tid ThreadID) Stride() int {
	return tid.BlockDim.X * tid.GridDim.X
}

// KernelParams is the parameter block every table function kernel receives.
// The slot order is shared with the code generator and must not change on one side only.
type KernelParams struct {
	ErrorBuffer    Ptr
	ColumnBuffers  Ptr
	InputRowCount  Ptr
	OutputBuffers  Ptr
	OutputRowCount Ptr
}

const KernelParamCount = 5

// Slots returns the parameters in ABI order.
func (p KernelParams) Slots() [KernelParamCount]Ptr {
	return [KernelParamCount]Ptr{
		p.ErrorBuffer,
		p.ColumnBuffers,
		p.InputRowCount,
		p.OutputBuffers,
		p.OutputRowCount,
	}
}

// Memory is the kernel's view of device memory.
// Invalid accesses panic, which the device reports as a launch failure.
type Memory interface {
	Bytes(p Ptr, n int) []byte
}

type Kernel func(tid ThreadID, mem Memory, params KernelParams)

func ReadInt64(mem Memory, p Ptr) int64 {
	return int64(binary.LittleEndian.Uint64(mem.Bytes(p, 8)))
}

func WriteInt64(mem Memory, p Ptr, value int64) {
	binary.LittleEndian.PutUint64(mem.Bytes(p, 8), uint64(value))
}

func ReadInt32(mem Memory, p Ptr) int32 {
	return int32(binary.LittleEndian.Uint32(mem.Bytes(p, 4)))
}

func WriteInt32(mem Memory, p Ptr, value int32) {
	binary.LittleEndian.PutUint32(mem.Bytes(p, 4), uint32(value))
}

// ReadPtrs reads an array of n device pointers starting at p.
func ReadPtrs(mem Memory, p Ptr, n int) []Ptr {
	raw := mem.Bytes(p, n*PtrSize)
	out := make([]Ptr, n)
	for i := range out {
		out[i] = Ptr(binary.LittleEndian.Uint64(raw[i*PtrSize:]))
	}
	return out
}

// EncodePtrs lays out pointers the way ReadPtrs expects them.
func EncodePtrs(ptrs []Ptr) []byte {
	out := make([]byte, len(ptrs)*PtrSize)
	for i, p := range ptrs {
		binary.LittleEndian.PutUint64(out[i*PtrSize:], uint64(p))
	}
	return out
}
