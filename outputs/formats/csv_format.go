package formats

import (
	"encoding/csv"
	"io"

	"github.com/apache/arrow/go/v13/arrow"
)

type CSVFormatter struct {
	writer *csv.Writer
}

func NewCSVFormatter(w io.Writer) *CSVFormatter {
	writer := csv.NewWriter(w)

	return &CSVFormatter{
		writer: writer,
	}
}

func (t *CSVFormatter) SetSchema(schema *arrow.Schema) {
	fields := schema.Fields()
	header := make([]string, len(fields))
	for i := range fields {
		header[i] = fields[i].Name
	}
	t.writer.Write(header)
}

func (t *CSVFormatter) Write(columns []arrow.Array, row int) error {
	return t.writer.Write(formatRow(columns, row))
}

func (t *CSVFormatter) Close() error {
	t.writer.Flush()
	return t.writer.Error()
}
