package tablefunc

import (
	"math"
	"testing"

	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
)

var literalTests = []struct {
	name    string
	literal physical.Expression
	want    []byte
}{
	{
		name:    "int8",
		literal: physical.NewIntConstant(physical.Int8, -5),
		want:    []byte{0xfb},
	},
	{
		name:    "int16",
		literal: physical.NewIntConstant(physical.Int16, 0x1234),
		want:    []byte{0x34, 0x12},
	},
	{
		name:    "int32",
		literal: physical.NewIntConstant(physical.Int32, -2),
		want:    []byte{0xfe, 0xff, 0xff, 0xff},
	},
	{
		name:    "int64",
		literal: physical.NewIntConstant(physical.Int64, 1<<40+7),
		want:    []byte{7, 0, 0, 0, 0, 1, 0, 0},
	},
	{
		name:    "float32",
		literal: physical.NewFloatConstant(physical.Float32, 1.5),
		want:    []byte{0, 0, 0xc0, 0x3f},
	},
	{
		name:    "float64",
		literal: physical.NewFloatConstant(physical.Float64, -2),
		want:    []byte{0, 0, 0, 0, 0, 0, 0, 0xc0},
	},
}

func TestEncodeLiteral(t *testing.T) {
	for _, tt := range literalTests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeLiteral(tt.literal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, tt.literal.Type.BitWidth/8)
		})
	}
}

func TestEncodeLiteralUnsupported(t *testing.T) {
	for _, literal := range []physical.Expression{
		physical.NewStringConstant("abc"),
		physical.NewConstant(physical.Boolean, physical.Datum{Bool: true}),
	} {
		_, err := encodeLiteral(literal)
		var literalErr *UnsupportedLiteralTypeError
		if assert.ErrorAs(t, err, &literalErr) {
			assert.Equal(t, literal, literalErr.Literal)
		}
	}
}

func TestPackLiteralCPU(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	arena := device.NewHostArena(mem)
	defer arena.Close()
	packer := &literalPacker{deviceType: device.CPU, arena: arena}

	for _, tt := range literalTests {
		t.Run(tt.name, func(t *testing.T) {
			host, ptr, err := packer.pack(tt.literal)
			require.NoError(t, err)
			assert.Equal(t, device.NullPtr, ptr)
			assert.Len(t, host, literalSlotSize)
			assert.Equal(t, tt.want, host[:len(tt.want)])
		})
	}
}

func TestAllocatedOutputRowCount(t *testing.T) {
	for _, multiplier := range []float64{0.1, 0.5, 1, 1.5, 2, 3.7, 10} {
		for _, rows := range []int64{0, 1, 3, 4, 10, 1000, 12345} {
			unit := int64Unit(physical.RowMultiplier(multiplier))
			got, err := allocatedOutputRowCount(unit, rows)
			require.NoError(t, err)
			assert.Equal(t, int64(math.Floor(multiplier*float64(rows))), got, "multiplier %f, rows %d", multiplier, rows)
		}
	}

	for _, multiplier := range []*float64{nil, physical.RowMultiplier(0), physical.RowMultiplier(-2)} {
		_, err := allocatedOutputRowCount(int64Unit(multiplier), 10)
		assert.ErrorIs(t, err, ErrUnsupportedOutputPolicy)
	}
}

func TestPlanOutput(t *testing.T) {
	unit := &physical.ExecutionUnit{
		Targets: []physical.Target{
			{Name: "a", Type: physical.Int8},
			{Name: "b", Type: physical.Float64},
		},
		OutputRowMultiplier: physical.RowMultiplier(1.5),
	}
	layout, err := PlanOutput(unit, 5)
	require.NoError(t, err)

	assert.Equal(t, int64(7), layout.AllocatedRowCount)
	require.Len(t, layout.Slots, 2)
	for i, slot := range layout.Slots {
		assert.Equal(t, SlotInfo{Width: 8, Alignment: 8}, slot)
		assert.Equal(t, 7*8, layout.ColumnBytes(i, layout.AllocatedRowCount))
	}
}
