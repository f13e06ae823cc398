package formats

import (
	"io"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
	"github.com/valyala/fastjson"
)

type JSONFormatter struct {
	buf    []byte
	arena  *fastjson.Arena
	w      io.Writer
	fields []arrow.Field
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{
		buf:   make([]byte, 0, 1024),
		arena: new(fastjson.Arena),
		w:     w,
	}
}

func (t *JSONFormatter) SetSchema(schema *arrow.Schema) {
	t.fields = schema.Fields()
}

func (t *JSONFormatter) Write(columns []arrow.Array, row int) error {
	obj := t.arena.NewObject()
	for i := range t.fields {
		obj.Set(t.fields[i].Name, ValueToJson(t.arena, columns[i], row))
	}

	t.buf = obj.MarshalTo(t.buf)
	t.buf = append(t.buf, '\n')
	_, err := t.w.Write(t.buf)
	t.buf = t.buf[:0]
	t.arena.Reset()
	return err
}

func ValueToJson(arena *fastjson.Arena, arr arrow.Array, i int) *fastjson.Value {
	if arr.IsNull(i) {
		return arena.NewNull()
	}
	switch arr := arr.(type) {
	case *array.Int8:
		return arena.NewNumberInt(int(arr.Value(i)))
	case *array.Int16:
		return arena.NewNumberInt(int(arr.Value(i)))
	case *array.Int32:
		return arena.NewNumberInt(int(arr.Value(i)))
	case *array.Int64:
		return arena.NewNumberInt(int(arr.Value(i)))
	case *array.Float32:
		return arena.NewNumberFloat64(float64(arr.Value(i)))
	case *array.Float64:
		return arena.NewNumberFloat64(arr.Value(i))
	case *array.Boolean:
		if arr.Value(i) {
			return arena.NewTrue()
		}
		return arena.NewFalse()
	default:
		return arena.NewString(FormatValue(arr, i))
	}
}

func (t *JSONFormatter) Close() error {
	return nil
}
