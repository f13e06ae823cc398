package storage

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/segmentio/parquet-go"
)

type parquetValueReaderFunc func(value parquet.Value) error

// ReadParquet reads the top-level primitive columns named in the schema into records of at most batchSize rows.
func ReadParquet(allocator memory.Allocator, path string, schema *arrow.Schema, batchSize int, produce func(record arrow.Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("couldn't open file: %w", err)
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("couldn't stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size(), &parquet.FileConfig{
		SkipPageIndex:    true,
		SkipBloomFilters: true,
	})
	if err != nil {
		return fmt.Errorf("couldn't open parquet file: %w", err)
	}

	recordBuilder := array.NewRecordBuilder(allocator, schema)
	defer recordBuilder.Release()
	recordBuilder.Reserve(batchSize)

	readers, err := parquetColumnReaders(pf.Schema(), schema, recordBuilder)
	if err != nil {
		return err
	}

	var row parquet.Row
	pr := parquet.NewReader(pf)
	count := 0
	for {
		row, err = pr.ReadRow(row[:0])
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("couldn't read row: %w", err)
		}
		for _, value := range row {
			reader, ok := readers[value.Column()]
			if !ok {
				continue
			}
			if err := reader(value); err != nil {
				return fmt.Errorf("couldn't read value of column %d: %w", value.Column(), err)
			}
		}
		count++
		if count == batchSize {
			record := recordBuilder.NewRecord()
			if err := produce(record); err != nil {
				return fmt.Errorf("couldn't produce record: %w", err)
			}
			record.Release()
			count = 0
			recordBuilder.Reserve(batchSize)
		}
	}

	if count > 0 {
		record := recordBuilder.NewRecord()
		if err := produce(record); err != nil {
			return fmt.Errorf("couldn't produce record: %w", err)
		}
		record.Release()
	}

	return nil
}

// parquetColumnReaders maps leaf column indices of the file to readers appending into the record builder.
func parquetColumnReaders(fileSchema *parquet.Schema, schema *arrow.Schema, recordBuilder *array.RecordBuilder) (map[int]parquetValueReaderFunc, error) {
	leafIndices := make(map[string]int)
	leafIndex := 0
	for _, field := range fileSchema.Fields() {
		if field.Leaf() && !field.Repeated() {
			leafIndices[field.Name()] = leafIndex
		}
		leafIndex += leafCount(field)
	}

	readers := make(map[int]parquetValueReaderFunc, len(schema.Fields()))
	for i, field := range schema.Fields() {
		index, ok := leafIndices[field.Name]
		if !ok {
			return nil, fmt.Errorf("parquet file has no primitive top-level column %s", field.Name)
		}
		reader, err := parquetValueReader(field.Type, recordBuilder.Field(i))
		if err != nil {
			return nil, fmt.Errorf("couldn't create value reader for field %v: %w", field.Name, err)
		}
		readers[index] = reader
	}
	return readers, nil
}

func leafCount(node parquet.Node) int {
	if node.Leaf() {
		return 1
	}
	count := 0
	for _, field := range node.Fields() {
		count += leafCount(field)
	}
	return count
}

func parquetValueReader(dt arrow.DataType, builder array.Builder) (parquetValueReaderFunc, error) {
	switch dt.ID() {
	case arrow.INT8:
		b := builder.(*array.Int8Builder)
		return parquetNullableReader(builder, parquetIntReader(func(v int64) { b.Append(int8(v)) })), nil
	case arrow.INT16:
		b := builder.(*array.Int16Builder)
		return parquetNullableReader(builder, parquetIntReader(func(v int64) { b.Append(int16(v)) })), nil
	case arrow.INT32:
		b := builder.(*array.Int32Builder)
		return parquetNullableReader(builder, parquetIntReader(func(v int64) { b.Append(int32(v)) })), nil
	case arrow.INT64:
		return parquetNullableReader(builder, parquetIntReader(builder.(*array.Int64Builder).Append)), nil
	case arrow.FLOAT32:
		b := builder.(*array.Float32Builder)
		return parquetNullableReader(builder, parquetFloatReader(func(v float64) { b.Append(float32(v)) })), nil
	case arrow.FLOAT64:
		return parquetNullableReader(builder, parquetFloatReader(builder.(*array.Float64Builder).Append)), nil
	default:
		return nil, fmt.Errorf("unsupported type: %v", dt)
	}
}

func parquetIntReader(appendValue func(int64)) parquetValueReaderFunc {
	return func(value parquet.Value) error {
		switch value.Kind() {
		case parquet.Int32:
			appendValue(int64(value.Int32()))
		case parquet.Int64:
			appendValue(value.Int64())
		default:
			return fmt.Errorf("expected integer, got %s", value.Kind())
		}
		return nil
	}
}

func parquetFloatReader(appendValue func(float64)) parquetValueReaderFunc {
	return func(value parquet.Value) error {
		switch value.Kind() {
		case parquet.Float:
			appendValue(float64(value.Float()))
		case parquet.Double:
			appendValue(value.Double())
		case parquet.Int32:
			appendValue(float64(value.Int32()))
		case parquet.Int64:
			appendValue(float64(value.Int64()))
		default:
			return fmt.Errorf("expected number, got %s", value.Kind())
		}
		return nil
	}
}

func parquetNullableReader(builder array.Builder, reader parquetValueReaderFunc) parquetValueReaderFunc {
	return func(value parquet.Value) error {
		if value.IsNull() {
			builder.AppendNull()
			return nil
		}
		return reader(value)
	}
}
