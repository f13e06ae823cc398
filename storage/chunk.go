package storage

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/pkg/errors"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
)

// Chunk is a single column fragment, resident on the requested memory level.
// The caller has to Release it when done.
type Chunk struct {
	Level device.MemoryLevel
	// Host is set for CPU level chunks.
	Host []byte
	// Device is set for GPU level chunks.
	Device       device.Ptr
	ElementCount int64

	releaseOnce sync.Once
	release     func()
}

func (c *Chunk) Release() {
	c.releaseOnce.Do(func() {
		if c.release != nil {
			c.release()
		}
	})
}

type deviceChunk struct {
	allocator    device.Allocator
	ptr          device.Ptr
	elementCount int64
	// One reference is held by the store's cache.
	refs int64
}

func (c *deviceChunk) ref() {
	atomic.AddInt64(&c.refs, 1)
}

func (c *deviceChunk) unref() error {
	if atomic.AddInt64(&c.refs, -1) == 0 {
		return c.allocator.Close()
	}
	return nil
}

// Fetch returns the given fragment of a column at the requested memory level.
func (s *Store) Fetch(ctx context.Context, ref physical.ColumnReference, fragment int, level device.MemoryLevel, deviceID int) (*Chunk, error) {
	table, err := s.Table(ref.Table)
	if err != nil {
		return nil, err
	}
	if fragment < 0 || fragment >= len(table.Fragments) {
		return nil, errors.Errorf("table %s has no fragment %d", ref.Table, fragment)
	}
	columnIndex, err := table.columnIndex(ref.Name)
	if err != nil {
		return nil, err
	}
	column := table.Fragments[fragment].Column(columnIndex)

	hostBytes, err := valueBytes(column)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't get values of column %s.%s", ref.Table, ref.Name)
	}

	switch level {
	case device.CPULevel:
		column.Retain()
		return &Chunk{
			Level:        level,
			Host:         hostBytes,
			ElementCount: int64(column.Len()),
			release:      column.Release,
		}, nil

	case device.GPULevel:
		chunk, err := s.deviceChunk(chunkKey{
			table:    ref.Table,
			column:   ref.Name,
			fragment: fragment,
			deviceID: deviceID,
		}, hostBytes, int64(column.Len()))
		if err != nil {
			return nil, err
		}
		return &Chunk{
			Level:        level,
			Device:       chunk.ptr,
			ElementCount: chunk.elementCount,
			release: func() {
				if err := chunk.unref(); err != nil {
					log.Printf("couldn't free device chunk of %s.%s fragment %d: %s", ref.Table, ref.Name, fragment, err)
				}
			},
		}, nil
	}
	panic("Bug: unknown memory level")
}

func (s *Store) deviceChunk(key chunkKey, hostBytes []byte, elementCount int64) (*deviceChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chunk, ok := s.deviceChunks[key]; ok {
		chunk.ref()
		return chunk, nil
	}

	d, ok := s.devices[key.deviceID]
	if !ok {
		return nil, errors.Errorf("device %d is not attached to the store", key.deviceID)
	}
	allocator := d.NewAllocator()
	ptr, err := allocator.Alloc(len(hostBytes))
	if err != nil {
		allocator.Close()
		return nil, errors.Wrap(err, "couldn't allocate device chunk")
	}
	if err := allocator.CopyToDevice(ptr, hostBytes); err != nil {
		allocator.Close()
		return nil, errors.Wrap(err, "couldn't copy chunk to device")
	}

	chunk := &deviceChunk{
		allocator:    allocator,
		ptr:          ptr,
		elementCount: elementCount,
		refs:         2,
	}
	s.deviceChunks[key] = chunk
	return chunk, nil
}

// valueBytes returns the raw little-endian values of a fixed-width array without copying.
func valueBytes(arr arrow.Array) ([]byte, error) {
	fw, ok := arr.DataType().(arrow.FixedWidthDataType)
	if !ok || fw.BitWidth()%8 != 0 {
		return nil, errors.Errorf("unsupported column type: %s", arr.DataType())
	}
	if arr.NullN() > 0 {
		return nil, errors.Errorf("column contains %d nulls", arr.NullN())
	}
	width := fw.BitWidth() / 8
	data := arr.Data()
	buffers := data.Buffers()
	if len(buffers) < 2 || buffers[1] == nil {
		return []byte{}, nil
	}
	start := data.Offset() * width
	return buffers[1].Bytes()[start : start+arr.Len()*width], nil
}
