package storage

import (
	"bufio"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/valyala/fastjson"
)

type valueReaderFunc func(value *fastjson.Value) error

// ReadJSON reads newline delimited JSON objects into records of at most batchSize rows.
func ReadJSON(allocator memory.Allocator, r io.Reader, schema *arrow.Schema, batchSize int, produce func(record arrow.Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(nil, 1024*1024*8)

	recordBuilder := array.NewRecordBuilder(allocator, schema)
	defer recordBuilder.Release()
	recordBuilder.Reserve(batchSize)

	readerFunc, err := recordReader(schema, recordBuilder)
	if err != nil {
		return fmt.Errorf("couldn't construct record reader function: %w", err)
	}

	var p fastjson.Parser
	count := 0
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		value, err := p.ParseBytes(line)
		if err != nil {
			return fmt.Errorf("couldn't parse json: %w", err)
		}
		if value.Type() != fastjson.TypeObject {
			return fmt.Errorf("expected JSON object, got '%s'", sc.Text())
		}
		if err := readerFunc(value); err != nil {
			return fmt.Errorf("couldn't read record: %w", err)
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

	if err := sc.Err(); err != nil {
		return fmt.Errorf("couldn't read line: %w", err)
	}

	return nil
}

func recordReader(schema *arrow.Schema, recordBuilder *array.RecordBuilder) (valueReaderFunc, error) {
	fields := schema.Fields()
	readers := make([]valueReaderFunc, len(fields))
	for i, field := range fields {
		var err error
		readers[i], err = valueReader(field.Type, recordBuilder.Field(i))
		if err != nil {
			return nil, fmt.Errorf("couldn't create value reader for field %v: %w", field.Name, err)
		}
	}

	return func(value *fastjson.Value) error {
		obj := value.GetObject()
		for i, field := range fields {
			if err := readers[i](obj.Get(field.Name)); err != nil {
				return fmt.Errorf("couldn't read field %v: %w", field.Name, err)
			}
		}
		return nil
	}, nil
}

func valueReader(dt arrow.DataType, builder array.Builder) (valueReaderFunc, error) {
	switch dt.ID() {
	case arrow.INT8:
		b := builder.(*array.Int8Builder)
		return nullableReader(builder, intReader(func(v int64) { b.Append(int8(v)) })), nil
	case arrow.INT16:
		b := builder.(*array.Int16Builder)
		return nullableReader(builder, intReader(func(v int64) { b.Append(int16(v)) })), nil
	case arrow.INT32:
		b := builder.(*array.Int32Builder)
		return nullableReader(builder, intReader(func(v int64) { b.Append(int32(v)) })), nil
	case arrow.INT64:
		return nullableReader(builder, intReader(builder.(*array.Int64Builder).Append)), nil
	case arrow.FLOAT32:
		b := builder.(*array.Float32Builder)
		return nullableReader(builder, floatReader(func(v float64) { b.Append(float32(v)) })), nil
	case arrow.FLOAT64:
		return nullableReader(builder, floatReader(builder.(*array.Float64Builder).Append)), nil
	default:
		return nil, fmt.Errorf("unsupported type: %v", dt)
	}
}

func intReader(appendValue func(int64)) valueReaderFunc {
	return func(value *fastjson.Value) error {
		v, err := value.Int64()
		if err != nil {
			return fmt.Errorf("couldn't read int: %w", err)
		}
		appendValue(v)
		return nil
	}
}

func floatReader(appendValue func(float64)) valueReaderFunc {
	return func(value *fastjson.Value) error {
		v, err := value.Float64()
		if err != nil {
			return fmt.Errorf("couldn't read float: %w", err)
		}
		appendValue(v)
		return nil
	}
}

func nullableReader(builder array.Builder, reader valueReaderFunc) valueReaderFunc {
	return func(value *fastjson.Value) error {
		if value == nil || value.Type() == fastjson.TypeNull {
			builder.AppendNull()
			return nil
		}
		return reader(value)
	}
}
