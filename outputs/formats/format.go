package formats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/array"
)

// Format writes rows of records with the schema it's been given.
type Format interface {
	SetSchema(schema *arrow.Schema)
	Write(columns []arrow.Array, row int) error
	Close() error
}

func NewFormat(name string, w io.Writer) (Format, error) {
	switch name {
	case "table", "":
		return NewTableFormatter(w), nil
	case "csv":
		return NewCSVFormatter(w), nil
	case "json":
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unknown output format '%s'", name)
	}
}

// WriteRecord writes all rows of the record.
func WriteRecord(format Format, record arrow.Record) error {
	columns := record.Columns()
	for row := 0; row < int(record.NumRows()); row++ {
		if err := format.Write(columns, row); err != nil {
			return fmt.Errorf("couldn't write row %d: %w", row, err)
		}
	}
	return nil
}

func FormatValue(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return "<null>"
	}
	switch arr := arr.(type) {
	case *array.Int8:
		return strconv.FormatInt(int64(arr.Value(i)), 10)
	case *array.Int16:
		return strconv.FormatInt(int64(arr.Value(i)), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(i)), 10)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(i), 10)
	case *array.Float32:
		return strconv.FormatFloat(float64(arr.Value(i)), 'g', -1, 32)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(i), 'g', -1, 64)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(i))
	case *array.String:
		return arr.Value(i)
	default:
		return fmt.Sprintf("<%s>", arr.DataType())
	}
}

func formatRow(columns []arrow.Array, row int) []string {
	values := make([]string, len(columns))
	for i, column := range columns {
		values[i] = FormatValue(column, row)
	}
	return values
}
