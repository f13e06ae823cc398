package tablefunc

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
)

// Multi-device execution isn't supported, everything runs on the first device.
const deviceID = 0

// ExecutionContext runs compiled table functions on the CPU or the GPU.
// Each call to Execute uses its own allocations, so concurrent calls are fine.
type ExecutionContext struct {
	fetcher ColumnFetcher
	mem     memory.Allocator
	logger  *log.Logger

	gpu                     device.Device
	width                   ExecutionWidth
	strictGPUOutputRowCount bool
}

type Option func(*ExecutionContext)

// WithAllocator sets the allocator used for host literal slots and result storage.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *ExecutionContext) {
		c.mem = mem
	}
}

// WithGPU enables GPU execution on the given device.
func WithGPU(d device.Device) Option {
	return func(c *ExecutionContext) {
		c.gpu = d
	}
}

func WithExecutionWidth(width ExecutionWidth) Option {
	return func(c *ExecutionContext) {
		c.width = width
	}
}

func WithStrictGPUOutputRowCount(strict bool) Option {
	return func(c *ExecutionContext) {
		c.strictGPUOutputRowCount = strict
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *ExecutionContext) {
		c.logger = logger
	}
}

func NewExecutionContext(fetcher ColumnFetcher, opts ...Option) *ExecutionContext {
	c := &ExecutionContext{
		fetcher: fetcher,
		mem:     memory.DefaultAllocator,
		logger:  log.Default(),
		width:   defaultExecutionWidth{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ExecutionContext) GPUEnabled() bool {
	return c.gpu != nil
}

type launcher interface {
	launch(unit *physical.ExecutionUnit, fn *CompiledFunction, inputs *InputBuffers, inv *invocation) (*ResultSet, error)
}

// invocation holds everything scoped to a single Execute call.
type invocation struct {
	id        ulid.ULID
	logger    *log.Logger
	arena     *device.HostArena
	allocator device.Allocator
}

// Execute runs the function over the first fragment of its column inputs.
// It blocks until the function finishes. The returned result set is owned by the caller, who has to release it.
func (c *ExecutionContext) Execute(ctx context.Context, unit *physical.ExecutionUnit, fn *CompiledFunction, deviceType device.Type) (result *ResultSet, outErr error) {
	if fn == nil {
		panic("Bug: no compiled function provided")
	}
	// Fail before allocating anything.
	if !ValidRowMultiplier(unit.OutputRowMultiplier) {
		return nil, ErrUnsupportedOutputPolicy
	}
	l, err := c.launcherFor(deviceType)
	if err != nil {
		return nil, err
	}

	inv := &invocation{
		id:     ulid.MustNew(ulid.Now(), rand.Reader),
		logger: c.logger,
		arena:  device.NewHostArena(c.mem),
	}
	defer inv.arena.Close()

	if deviceType == device.GPU {
		inv.allocator = c.gpu.NewAllocator()
		defer func() {
			if err := inv.allocator.Close(); err != nil {
				if outErr == nil {
					outErr = errors.Wrap(err, "couldn't release device memory")
					if result != nil {
						result.Release()
						result = nil
					}
				}
			}
		}()
	}

	chunks := &chunkOwner{}
	defer chunks.release()

	marshaler := &inputMarshaler{
		fetcher:    c.fetcher,
		deviceType: deviceType,
		deviceID:   deviceID,
		packer: &literalPacker{
			deviceType: deviceType,
			arena:      inv.arena,
			allocator:  inv.allocator,
		},
		chunks: chunks,
	}
	inputs, err := marshaler.marshal(ctx, unit.Inputs)
	if err != nil {
		return nil, err
	}

	result, err = l.launch(unit, fn, inputs, inv)
	if err != nil {
		c.logger.Printf("table function %s [%s] on %s failed: %s", fn.Name, inv.id, deviceType, err)
		return nil, err
	}

	c.logger.Printf("table function %s [%s] on %s: %d input rows, %d allocated output rows, %d produced", fn.Name, inv.id, deviceType, inputs.ElementCount, result.AllocatedRowCount(), result.RowCount())
	return result, nil
}

func (c *ExecutionContext) launcherFor(deviceType device.Type) (launcher, error) {
	switch deviceType {
	case device.CPU:
		return &cpuLauncher{mem: c.mem}, nil
	case device.GPU:
		if c.gpu == nil {
			return nil, ErrGPUUnavailable
		}
		return &gpuLauncher{
			device:               c.gpu,
			width:                c.width,
			mem:                  c.mem,
			strictOutputRowCount: c.strictGPUOutputRowCount,
		}, nil
	}
	panic(fmt.Sprintf("Bug: unknown device type: %v", deviceType))
}
