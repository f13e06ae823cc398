package device

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Type int

const (
	CPU Type = iota
	GPU
)

func (t Type) String() string {
	switch t {
	case CPU:
		return "cpu"
	case GPU:
		return "gpu"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "cpu":
		return CPU, nil
	case "gpu":
		return GPU, nil
	default:
		return CPU, errors.Errorf("unknown device type %q (expected cpu or gpu)", name)
	}
}

// MemoryLevel says where a buffer lives.
type MemoryLevel int

const (
	CPULevel MemoryLevel = iota
	GPULevel
)

func (l MemoryLevel) String() string {
	if l == GPULevel {
		return "gpu"
	}
	return "cpu"
}

func LevelFor(t Type) MemoryLevel {
	switch t {
	case CPU:
		return CPULevel
	case GPU:
		return GPULevel
	}
	panic(fmt.Sprintf("Bug: unknown device type: %v", t))
}

// Ptr is an address in a device's memory. Host code can't dereference it,
// only copy to and from it through an Allocator.
//
// The upper 32 bits identify the allocation, the lower 32 bits are the offset inside of it.
type Ptr uint64

const NullPtr Ptr = 0

const PtrSize = 8

func makePtr(allocation uint32, offset uint32) Ptr {
	return Ptr(uint64(allocation)<<32 | uint64(offset))
}

func (p Ptr) allocation() uint32 {
	return uint32(p >> 32)
}

func (p Ptr) offset() uint32 {
	return uint32(p)
}

// Add returns the pointer moved forward by the given number of bytes.
func (p Ptr) Add(bytes int) Ptr {
	return makePtr(p.allocation(), p.offset()+uint32(bytes))
}

func (p Ptr) String() string {
	return fmt.Sprintf("0x%08x+%d", p.allocation(), p.offset())
}

// Allocator hands out device memory and moves bytes across the host/device boundary.
// Everything allocated through it is freed by Close.
type Allocator interface {
	Alloc(bytes int) (Ptr, error)
	CopyToDevice(dst Ptr, src []byte) error
	CopyFromDevice(dst []byte, src Ptr) error
	Close() error
}

type Device interface {
	ID() int
	NewAllocator() Allocator
	Launch(kernel Kernel, grid, block Dim3, params KernelParams) error
	AllocatedBytes() int64
}
