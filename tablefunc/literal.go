package tablefunc

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
)

// literalSlotSize is the size of the buffer allocated for every literal, regardless of its width.
const literalSlotSize = 8

type literalPacker struct {
	deviceType device.Type
	arena      *device.HostArena
	allocator  device.Allocator
}

// pack places the literal in an 8 byte slot on the execution device.
// Only the literal's own width is written, at the low end of the slot.
func (p *literalPacker) pack(expr physical.Expression) (host []byte, ptr device.Ptr, err error) {
	encoded, err := encodeLiteral(expr)
	if err != nil {
		return nil, device.NullPtr, err
	}

	switch p.deviceType {
	case device.CPU:
		slot := p.arena.Alloc(literalSlotSize)
		copy(slot, encoded)
		return slot, device.NullPtr, nil

	case device.GPU:
		if p.allocator == nil {
			panic("Bug: gpu literal packing without a device allocator")
		}
		slot, err := p.allocator.Alloc(literalSlotSize)
		if err != nil {
			return nil, device.NullPtr, errors.Wrap(err, "couldn't allocate device literal buffer")
		}
		if err := p.allocator.CopyToDevice(slot, encoded); err != nil {
			return nil, device.NullPtr, errors.Wrap(err, "couldn't copy literal to device")
		}
		return nil, slot, nil
	}
	panic("Bug: unknown device type")
}

// encodeLiteral returns the little-endian bytes of the literal, exactly as wide as its type.
func encodeLiteral(expr physical.Expression) ([]byte, error) {
	value := expr.Constant.Value
	switch {
	case expr.Type.IsFloatingPoint():
		switch expr.Type.BitWidth {
		case 32:
			out := make([]byte, 4)
			binary.LittleEndian.PutUint32(out, math.Float32bits(float32(value.Float)))
			return out, nil
		case 64:
			out := make([]byte, 8)
			binary.LittleEndian.PutUint64(out, math.Float64bits(value.Float))
			return out, nil
		}
	case expr.Type.IsInteger():
		switch expr.Type.BitWidth {
		case 8:
			return []byte{byte(int8(value.Int))}, nil
		case 16:
			out := make([]byte, 2)
			binary.LittleEndian.PutUint16(out, uint16(int16(value.Int)))
			return out, nil
		case 32:
			out := make([]byte, 4)
			binary.LittleEndian.PutUint32(out, uint32(int32(value.Int)))
			return out, nil
		case 64:
			out := make([]byte, 8)
			binary.LittleEndian.PutUint64(out, uint64(value.Int))
			return out, nil
		}
	}
	return nil, &UnsupportedLiteralTypeError{Literal: expr}
}
