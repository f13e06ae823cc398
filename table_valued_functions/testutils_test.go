package table_valued_functions

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/storage"
	"github.com/cube2222/udtf/tablefunc"
)

var quietLogger = log.New(io.Discard, "", 0)

// testRecord has int64 columns a and b, and a float64 column f.
func testRecord(mem memory.Allocator, a, b []int64, f []float64) arrow.Record {
	schema := arrow.NewSchema(
		[]arrow.Field{
			{Name: "a", Type: arrow.PrimitiveTypes.Int64},
			{Name: "b", Type: arrow.PrimitiveTypes.Int64},
			{Name: "f", Type: arrow.PrimitiveTypes.Float64},
		},
		nil,
	)
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()
	builder.Field(0).(*array.Int64Builder).AppendValues(a, nil)
	builder.Field(1).(*array.Int64Builder).AppendValues(b, nil)
	builder.Field(2).(*array.Float64Builder).AppendValues(f, nil)
	return builder.NewRecord()
}

func ref(name string, t physical.Type) physical.Expression {
	return physical.NewColumnReference("t", name, t)
}

// run executes the function over the record and returns the produced record.
func run(t *testing.T, mem memory.Allocator, record arrow.Record, descriptor Descriptor, args []physical.Expression, deviceType device.Type, gpu device.Device) (arrow.Record, error) {
	unit, err := descriptor.ExecutionUnit(args, nil)
	require.NoError(t, err)

	var devices []device.Device
	opts := []tablefunc.Option{
		tablefunc.WithAllocator(mem),
		tablefunc.WithLogger(quietLogger),
	}
	if gpu != nil {
		devices = append(devices, gpu)
		opts = append(opts, tablefunc.WithGPU(gpu))
	}
	store := storage.NewRecordStore("t", record, devices...)
	defer store.Close()

	result, err := tablefunc.NewExecutionContext(store, opts...).Execute(context.Background(), unit, descriptor.Function, deviceType)
	if err != nil {
		return nil, err
	}
	defer result.Release()
	return result.ToRecord(mem)
}
