package storage

import (
	"io"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/csv"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/pkg/errors"
)

type CSVOptions struct {
	Header    bool
	Delimiter rune
	BatchSize int
}

// ReadCSV reads the csv into records of at most BatchSize rows.
func ReadCSV(allocator memory.Allocator, r io.Reader, schema *arrow.Schema, options CSVOptions, produce func(record arrow.Record) error) error {
	reader := csv.NewReader(
		r,
		schema,
		csv.WithAllocator(allocator),
		csv.WithHeader(options.Header),
		csv.WithComma(options.Delimiter),
		csv.WithChunk(options.BatchSize),
	)
	defer reader.Release()

	for reader.Next() {
		if err := produce(reader.Record()); err != nil {
			return errors.Wrap(err, "couldn't produce record")
		}
	}
	if err := reader.Err(); err != nil {
		return errors.Wrap(err, "couldn't decode csv")
	}
	return nil
}
