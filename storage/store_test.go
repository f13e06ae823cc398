package storage

import (
	"context"
	"testing"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/udtf/config"
	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
)

func numbersConfig(options map[string]interface{}) *config.TableConfig {
	return &config.TableConfig{
		Name:   "numbers",
		Format: "csv",
		Path:   "fixtures/numbers.csv",
		Columns: []config.ColumnConfig{
			{Name: "id", Type: "int64"},
			{Name: "value", Type: "int32"},
			{Name: "score", Type: "float64"},
		},
		Options: options,
	}
}

func TestLoadTableCSV(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	table, err := LoadTable(mem, numbersConfig(map[string]interface{}{"fragmentSize": 2}))
	require.NoError(t, err)
	defer table.Release()

	require.Len(t, table.Fragments, 3)
	assert.Equal(t, int64(2), table.Fragments[0].NumRows())
	assert.Equal(t, int64(1), table.Fragments[2].NumRows())

	values := table.Fragments[1].Column(1).(*array.Int32)
	assert.Equal(t, []int32{30, -40}, values.Int32Values())
	scores := table.Fragments[2].Column(2).(*array.Float64)
	assert.Equal(t, []float64{4.5}, scores.Float64Values())
}

func TestLoadTableJSON(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	table, err := LoadTable(mem, &config.TableConfig{
		Name:   "events",
		Format: "json",
		Path:   "fixtures/events.json",
		Columns: []config.ColumnConfig{
			{Name: "id", Type: "int16"},
			{Name: "amount", Type: "float32"},
		},
	})
	require.NoError(t, err)
	defer table.Release()

	require.Len(t, table.Fragments, 1)
	fragment := table.Fragments[0]
	assert.Equal(t, int64(4), fragment.NumRows())
	assert.Equal(t, []int16{1, 2, 3, 4}, fragment.Column(0).(*array.Int16).Int16Values())
	assert.Equal(t, 1, fragment.Column(1).NullN())
	assert.Equal(t, float32(4.25), fragment.Column(1).(*array.Float32).Value(2))
}

func TestLoadTableErrors(t *testing.T) {
	tests := []struct {
		name   string
		config *config.TableConfig
	}{
		{
			name: "unknown format",
			config: func() *config.TableConfig {
				cfg := numbersConfig(nil)
				cfg.Format = "avro"
				return cfg
			}(),
		},
		{
			name: "unknown type",
			config: func() *config.TableConfig {
				cfg := numbersConfig(nil)
				cfg.Columns[0].Type = "uuid"
				return cfg
			}(),
		},
		{
			name:   "invalid fragment size",
			config: numbersConfig(map[string]interface{}{"fragmentSize": 0}),
		},
		{
			name:   "invalid delimiter",
			config: numbersConfig(map[string]interface{}{"delimiter": ";;"}),
		},
		{
			name: "missing file",
			config: func() *config.TableConfig {
				cfg := numbersConfig(nil)
				cfg.Path = "fixtures/missing.csv"
				return cfg
			}(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			_, err := LoadTable(mem, tt.config)
			assert.Error(t, err)
		})
	}
}

func TestLoadStore(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	store, err := LoadStore(mem, &config.Config{Tables: []config.TableConfig{*numbersConfig(nil)}})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, []string{"numbers"}, store.TableNames())
	table, err := store.Table("numbers")
	require.NoError(t, err)
	assert.Len(t, table.Fragments, 1)

	_, err = store.Table("other")
	assert.Error(t, err)
}

func TestFetchCPU(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	table, err := LoadTable(mem, numbersConfig(map[string]interface{}{"fragmentSize": 2}))
	require.NoError(t, err)
	store := NewStore()
	store.AddTable(table)
	defer store.Close()

	chunk, err := store.Fetch(ctx, physical.ColumnReference{Table: "numbers", Name: "value"}, 1, device.CPULevel, 0)
	require.NoError(t, err)
	defer chunk.Release()

	assert.Equal(t, device.CPULevel, chunk.Level)
	assert.Equal(t, int64(2), chunk.ElementCount)
	assert.Equal(t, []byte{30, 0, 0, 0, 0xd8, 0xff, 0xff, 0xff}, chunk.Host)

	_, err = store.Fetch(ctx, physical.ColumnReference{Table: "numbers", Name: "value"}, 3, device.CPULevel, 0)
	assert.Error(t, err)
	_, err = store.Fetch(ctx, physical.ColumnReference{Table: "numbers", Name: "missing"}, 0, device.CPULevel, 0)
	assert.Error(t, err)
	_, err = store.Fetch(ctx, physical.ColumnReference{Table: "missing", Name: "value"}, 0, device.CPULevel, 0)
	assert.Error(t, err)
}

func TestFetchRejectsNulls(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	builder := array.NewInt64Builder(mem)
	builder.AppendValues([]int64{1, 0, 3}, []bool{true, false, true})
	arr := builder.NewArray()
	builder.Release()
	schema := arrow.NewSchema([]arrow.Field{{Name: "x", Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)
	record := array.NewRecord(schema, []arrow.Array{arr}, 3)
	arr.Release()

	store := NewRecordStore("t", record)
	record.Release()
	defer store.Close()

	_, err := store.Fetch(context.Background(), physical.ColumnReference{Table: "t", Name: "x"}, 0, device.CPULevel, 0)
	assert.Error(t, err)
}

func TestValueBytesSlice(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	builder := array.NewInt16Builder(mem)
	builder.AppendValues([]int16{1, 2, 3, 4}, nil)
	arr := builder.NewArray()
	builder.Release()
	defer arr.Release()

	slice := array.NewSlice(arr, 1, 3)
	defer slice.Release()

	out, err := valueBytes(slice)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0, 3, 0}, out)
}
