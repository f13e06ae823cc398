package tablefunc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/pkg/errors"

	"github.com/cube2222/udtf/physical"
)

// ResultSet owns the host-resident output of an invocation.
// Values are stored in 8 byte slots, narrower types occupy the low bytes.
type ResultSet struct {
	targets []physical.Target
	layout  *OutputLayout
	buffers []*memory.Buffer

	allocatedRowCount int64
	rowCount          int64
}

func newResultSet(mem memory.Allocator, targets []physical.Target, layout *OutputLayout, capacityRows int64) *ResultSet {
	buffers := make([]*memory.Buffer, len(targets))
	for i := range buffers {
		buf := memory.NewResizableBuffer(mem)
		buf.Resize(layout.ColumnBytes(i, capacityRows))
		buffers[i] = buf
	}
	return &ResultSet{
		targets:           targets,
		layout:            layout,
		buffers:           buffers,
		allocatedRowCount: layout.AllocatedRowCount,
		rowCount:          capacityRows,
	}
}

func (r *ResultSet) hostBuffers() [][]byte {
	out := make([][]byte, len(r.buffers))
	for i := range r.buffers {
		out[i] = r.buffers[i].Bytes()
	}
	return out
}

// updateStorageEntryCount sets the authoritative row count once the function has reported it.
func (r *ResultSet) updateStorageEntryCount(rowCount int64) {
	r.rowCount = rowCount
}

func (r *ResultSet) RowCount() int64 {
	return r.rowCount
}

func (r *ResultSet) AllocatedRowCount() int64 {
	return r.allocatedRowCount
}

func (r *ResultSet) Layout() *OutputLayout {
	return r.layout
}

func (r *ResultSet) Targets() []physical.Target {
	return r.targets
}

func (r *ResultSet) ColumnCount() int {
	return len(r.buffers)
}

// Column returns the slots of the produced rows of the given column.
func (r *ResultSet) Column(i int) []byte {
	return r.buffers[i].Bytes()[:r.layout.ColumnBytes(i, r.rowCount)]
}

func (r *ResultSet) slot(column, row int) []byte {
	width := r.layout.Slots[column].Width
	return r.buffers[column].Bytes()[row*width : (row+1)*width]
}

// Value decodes a single value according to the column's target type.
func (r *ResultSet) Value(column, row int) physical.Datum {
	slot := r.slot(column, row)
	t := r.targets[column].Type
	switch {
	case t.IsInteger():
		switch t.BitWidth {
		case 8:
			return physical.Datum{Int: int64(int8(slot[0]))}
		case 16:
			return physical.Datum{Int: int64(int16(binary.LittleEndian.Uint16(slot)))}
		case 32:
			return physical.Datum{Int: int64(int32(binary.LittleEndian.Uint32(slot)))}
		case 64:
			return physical.Datum{Int: int64(binary.LittleEndian.Uint64(slot))}
		}
	case t.IsFloatingPoint():
		switch t.BitWidth {
		case 32:
			return physical.Datum{Float: float64(math.Float32frombits(binary.LittleEndian.Uint32(slot)))}
		case 64:
			return physical.Datum{Float: math.Float64frombits(binary.LittleEndian.Uint64(slot))}
		}
	case t.TypeID == physical.TypeIDBoolean:
		return physical.Datum{Bool: slot[0] != 0}
	}
	panic(fmt.Sprintf("Bug: unsupported output type: %s", t))
}

func (r *ResultSet) Schema() (*arrow.Schema, error) {
	return targetSchema(r.targets)
}

// ResultSchema is the schema of the records produced by executing the unit.
func ResultSchema(unit *physical.ExecutionUnit) (*arrow.Schema, error) {
	return targetSchema(unit.Targets)
}

func targetSchema(targets []physical.Target) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(targets))
	for i, target := range targets {
		dt, err := target.Type.ArrowType()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid type of output %s", target.Name)
		}
		fields[i] = arrow.Field{Name: target.Name, Type: dt}
	}
	return arrow.NewSchema(fields, nil), nil
}

// ToRecord copies the produced rows into an arrow record.
func (r *ResultSet) ToRecord(mem memory.Allocator) (arrow.Record, error) {
	schema, err := r.Schema()
	if err != nil {
		return nil, err
	}
	for _, target := range r.targets {
		if !target.Type.IsInteger() && !target.Type.IsFloatingPoint() && target.Type.TypeID != physical.TypeIDBoolean {
			return nil, errors.Errorf("unsupported type %s of output %s", target.Type, target.Name)
		}
	}
	for i := range r.buffers {
		if r.layout.ColumnBytes(i, r.rowCount) > r.buffers[i].Len() {
			return nil, errors.Errorf("row count %d exceeds the output storage of column %d", r.rowCount, i)
		}
	}

	recordBuilder := array.NewRecordBuilder(mem, schema)
	defer recordBuilder.Release()
	recordBuilder.Reserve(int(r.rowCount))

	for col := range r.targets {
		builder := recordBuilder.Field(col)
		for row := 0; row < int(r.rowCount); row++ {
			value := r.Value(col, row)
			switch b := builder.(type) {
			case *array.Int8Builder:
				b.Append(int8(value.Int))
			case *array.Int16Builder:
				b.Append(int16(value.Int))
			case *array.Int32Builder:
				b.Append(int32(value.Int))
			case *array.Int64Builder:
				b.Append(value.Int)
			case *array.Float32Builder:
				b.Append(float32(value.Float))
			case *array.Float64Builder:
				b.Append(value.Float)
			case *array.BooleanBuilder:
				b.Append(value.Bool)
			default:
				return nil, errors.Errorf("unsupported output column type: %s", schema.Field(col).Type)
			}
		}
	}

	return recordBuilder.NewRecord(), nil
}

func (r *ResultSet) Release() {
	for _, buf := range r.buffers {
		buf.Release()
	}
	r.buffers = nil
}
