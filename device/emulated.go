//go:build !nogpu

package device

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Emulated is an accelerator executed on the host.
// It has its own address space, so data has to be copied in and out just like with a real card,
// and kernels are run block by block on a bounded number of goroutines.
type Emulated struct {
	id int

	mu          sync.RWMutex
	nextID      uint32
	allocations map[uint32][]byte

	allocated int64
}

func NewEmulated(id int) *Emulated {
	return &Emulated{
		id:          id,
		allocations: make(map[uint32][]byte),
	}
}

func (d *Emulated) ID() int {
	return d.id
}

func (d *Emulated) AllocatedBytes() int64 {
	return atomic.LoadInt64(&d.allocated)
}

func (d *Emulated) malloc(size int) (Ptr, error) {
	if size < 0 || size > math.MaxUint32 {
		return NullPtr, errors.Errorf("invalid allocation size: %d", size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	if d.nextID == 0 {
		return NullPtr, errors.New("device address space exhausted")
	}
	d.allocations[d.nextID] = make([]byte, size)
	atomic.AddInt64(&d.allocated, int64(size))
	return makePtr(d.nextID, 0), nil
}

func (d *Emulated) free(p Ptr) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf, ok := d.allocations[p.allocation()]
	if !ok || p.offset() != 0 {
		return errors.Errorf("invalid free of %s", p)
	}
	delete(d.allocations, p.allocation())
	atomic.AddInt64(&d.allocated, -int64(len(buf)))
	return nil
}

func (d *Emulated) resolve(p Ptr, n int) ([]byte, error) {
	d.mu.RLock()
	buf, ok := d.allocations[p.allocation()]
	d.mu.RUnlock()
	if !ok {
		return nil, errors.Errorf("access to unallocated device memory at %s", p)
	}
	start := int(p.offset())
	if n < 0 || start+n > len(buf) {
		return nil, errors.Errorf("out of bounds access of %d bytes at %s, allocation size %d", n, p, len(buf))
	}
	return buf[start : start+n : start+n], nil
}

// Bytes implements Memory for kernels running on this device.
func (d *Emulated) Bytes(p Ptr, n int) []byte {
	buf, err := d.resolve(p, n)
	if err != nil {
		panic(err)
	}
	return buf
}

func (d *Emulated) NewAllocator() Allocator {
	return &emulatedAllocator{device: d}
}

func (d *Emulated) Launch(kernel Kernel, grid, block Dim3, params KernelParams) error {
	if err := validateDimensions(grid, block); err != nil {
		return err
	}

	g := errgroup.Group{}
	g.SetLimit(runtime.NumCPU())
	for z := 0; z < grid.Z; z++ {
		for y := 0; y < grid.Y; y++ {
			for x := 0; x < grid.X; x++ {
				blockIdx := Dim3{X: x, Y: y, Z: z}
				g.Go(func() error {
					return d.runBlock(kernel, blockIdx, grid, block, params)
				})
			}
		}
	}
	return g.Wait()
}

func (d *Emulated) runBlock(kernel Kernel, blockIdx, grid, block Dim3, params KernelParams) (err error) {
	defer func() {
		if msg := recover(); msg != nil {
			err = errors.Errorf("kernel panicked in block %v: %v", blockIdx, msg)
		}
	}()

	// Threads of a block run sequentially, there is no block-level barrier.
	for z := 0; z < block.Z; z++ {
		for y := 0; y < block.Y; y++ {
			for x := 0; x < block.X; x++ {
				kernel(ThreadID{
					BlockIdx:  blockIdx,
					ThreadIdx: Dim3{X: x, Y: y, Z: z},
					BlockDim:  block,
					GridDim:   grid,
				}, d, params)
			}
		}
	}
	return nil
}

func validateDimensions(grid, block Dim3) error {
	if grid.X <= 0 || grid.Y <= 0 || grid.Z <= 0 {
		return fmt.Errorf("invalid grid dimensions: %+v", grid)
	}
	if block.X <= 0 || block.Y <= 0 || block.Z <= 0 {
		return fmt.Errorf("invalid block dimensions: %+v", block)
	}
	if block.Size() > MaxThreadsPerBlock {
		return fmt.Errorf("block of %d threads exceeds the maximum of %d", block.Size(), MaxThreadsPerBlock)
	}
	return nil
}

type emulatedAllocator struct {
	device *Emulated
	owned  []Ptr
}

func (a *emulatedAllocator) Alloc(bytes int) (Ptr, error) {
	p, err := a.device.malloc(bytes)
	if err != nil {
		return NullPtr, err
	}
	a.owned = append(a.owned, p)
	return p, nil
}

func (a *emulatedAllocator) CopyToDevice(dst Ptr, src []byte) error {
	buf, err := a.device.resolve(dst, len(src))
	if err != nil {
		return errors.Wrap(err, "couldn't copy to device")
	}
	copy(buf, src)
	return nil
}

func (a *emulatedAllocator) CopyFromDevice(dst []byte, src Ptr) error {
	buf, err := a.device.resolve(src, len(dst))
	if err != nil {
		return errors.Wrap(err, "couldn't copy from device")
	}
	copy(dst, buf)
	return nil
}

func (a *emulatedAllocator) Close() error {
	var firstErr error
	for _, p := range a.owned {
		if err := a.device.free(p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.owned = nil
	return firstErr
}
