package tablefunc

import (
	"fmt"
	"io"
	"log"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/storage"
)

var quietLogger = log.New(io.Discard, "", 0)

// int64Table builds a single fragment table with int64 columns named c0, c1, ...
func int64Table(mem memory.Allocator, name string, columns ...[]int64) *storage.Table {
	fields := make([]arrow.Field, len(columns))
	arrays := make([]arrow.Array, len(columns))
	for i, values := range columns {
		fields[i] = arrow.Field{Name: fmt.Sprintf("c%d", i), Type: arrow.PrimitiveTypes.Int64}
		builder := array.NewInt64Builder(mem)
		builder.AppendValues(values, nil)
		arrays[i] = builder.NewArray()
		builder.Release()
	}
	schema := arrow.NewSchema(fields, nil)
	record := array.NewRecord(schema, arrays, int64(len(columns[0])))
	for _, arr := range arrays {
		arr.Release()
	}
	return &storage.Table{
		Name:      name,
		Schema:    schema,
		Fragments: []arrow.Record{record},
	}
}

func testStore(mem memory.Allocator, columns ...[]int64) *storage.Store {
	store := storage.NewStore()
	store.AddTable(int64Table(mem, "t", columns...))
	return store
}

func col(i int) physical.Expression {
	return physical.NewColumnReference("t", fmt.Sprintf("c%d", i), physical.Int64)
}

func int64Unit(multiplier *float64, inputs ...physical.Expression) *physical.ExecutionUnit {
	return &physical.ExecutionUnit{
		Name:                "test",
		Inputs:              inputs,
		Targets:             []physical.Target{{Name: "out", Type: physical.Int64}},
		OutputRowMultiplier: multiplier,
	}
}

func int64Values(result *ResultSet, column int) []int64 {
	out := make([]int64, result.RowCount())
	for i := range out {
		out[i] = result.Value(column, i).Int
	}
	return out
}

type testWidth struct {
	block, grid uint
}

func (w testWidth) BlockSize() uint {
	return w.block
}

func (w testWidth) GridSize() uint {
	return w.grid
}

func notCalledCPU(inputs [][]byte, inputRowCount *int64, outputs [][]byte, outputRowCount *int64) int32 {
	panic("function shouldn't have been called")
}

func notCalledKernel(tid device.ThreadID, mem device.Memory, params device.KernelParams) {
	panic("kernel shouldn't have been launched")
}
