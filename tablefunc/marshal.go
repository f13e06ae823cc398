package tablefunc

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/storage"
)

// InputBuffers are the marshaled inputs of a single invocation, all resident on the execution device.
// Literals are broadcast, so ElementCount comes from the column inputs alone.
type InputBuffers struct {
	DeviceType device.Type
	// Host is used on the CPU.
	Host [][]byte
	// Device is used on the GPU.
	Device       []device.Ptr
	ElementCount int64
}

func (b *InputBuffers) Len() int {
	if b.DeviceType == device.GPU {
		return len(b.Device)
	}
	return len(b.Host)
}

func (b *InputBuffers) add(host []byte, ptr device.Ptr) {
	if b.DeviceType == device.GPU {
		b.Device = append(b.Device, ptr)
	} else {
		b.Host = append(b.Host, host)
	}
}

// chunkOwner keeps fetched chunks alive until the invocation ends.
type chunkOwner struct {
	chunks []*storage.Chunk
}

func (o *chunkOwner) add(chunk *storage.Chunk) {
	o.chunks = append(o.chunks, chunk)
}

func (o *chunkOwner) release() {
	for _, chunk := range o.chunks {
		chunk.Release()
	}
	o.chunks = nil
}

type inputMarshaler struct {
	fetcher    ColumnFetcher
	deviceType device.Type
	deviceID   int
	packer     *literalPacker
	chunks     *chunkOwner
}

func (m *inputMarshaler) marshal(ctx context.Context, inputs []physical.Expression) (*InputBuffers, error) {
	out := &InputBuffers{
		DeviceType:   m.deviceType,
		ElementCount: -1,
	}
	level := device.LevelFor(m.deviceType)

	for i, expr := range inputs {
		switch expr.ExpressionType {
		case physical.ExpressionTypeColumn:
			// Table functions only get to see the first fragment.
			chunk, err := m.fetcher.Fetch(ctx, *expr.Column, 0, level, m.deviceID)
			if err != nil {
				return nil, errors.Wrapf(err, "couldn't fetch column %s", expr)
			}
			m.chunks.add(chunk)

			if out.ElementCount < 0 {
				out.ElementCount = chunk.ElementCount
			} else if chunk.ElementCount != out.ElementCount {
				return nil, &InconsistentInputCardinalityError{
					Input:    i,
					Expected: out.ElementCount,
					Actual:   chunk.ElementCount,
				}
			}
			out.add(chunk.Host, chunk.Device)

		case physical.ExpressionTypeConstant:
			host, ptr, err := m.packer.pack(expr)
			if err != nil {
				return nil, err
			}
			out.add(host, ptr)

		default:
			panic(fmt.Sprintf("Bug: unknown expression type: %v", expr.ExpressionType))
		}
	}

	if out.Len() != len(inputs) {
		panic(fmt.Sprintf("Bug: marshaled %d buffers for %d inputs", out.Len(), len(inputs)))
	}
	if out.ElementCount < 0 {
		return nil, ErrNoColumnInputs
	}

	return out, nil
}
