package storage

import (
	"bufio"
	"os"
	"strings"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/pkg/errors"

	"github.com/cube2222/udtf/config"
	"github.com/cube2222/udtf/physical"
)

const DefaultFragmentSize = 32 * 1024

// LoadTable reads a configured table, one fragment per batch.
func LoadTable(allocator memory.Allocator, tableConfig *config.TableConfig) (*Table, error) {
	schema, err := tableSchema(tableConfig.Columns)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid schema of table %s", tableConfig.Name)
	}
	fragmentSize, err := config.GetInt(tableConfig.Options, "fragmentSize", config.WithDefault(DefaultFragmentSize))
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get fragment size")
	}
	if fragmentSize <= 0 {
		return nil, errors.Errorf("fragment size must be positive, got %d", fragmentSize)
	}

	f, err := os.Open(tableConfig.Path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open file")
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 4096*1024)

	table := &Table{
		Name:   tableConfig.Name,
		Schema: schema,
	}
	produce := func(record arrow.Record) error {
		record.Retain()
		table.Fragments = append(table.Fragments, record)
		return nil
	}

	switch strings.ToLower(tableConfig.Format) {
	case "csv":
		header, err := config.GetBool(tableConfig.Options, "header", config.WithDefault(true))
		if err != nil {
			return nil, errors.Wrap(err, "couldn't get header option")
		}
		delimiter, err := config.GetString(tableConfig.Options, "delimiter", config.WithDefault(","))
		if err != nil {
			return nil, errors.Wrap(err, "couldn't get delimiter option")
		}
		if len([]rune(delimiter)) != 1 {
			return nil, errors.Errorf("delimiter must be a single character, got '%s'", delimiter)
		}
		err = ReadCSV(allocator, r, schema, CSVOptions{
			Header:    header,
			Delimiter: []rune(delimiter)[0],
			BatchSize: fragmentSize,
		}, produce)
		if err != nil {
			table.Release()
			return nil, errors.Wrapf(err, "couldn't read csv table %s", tableConfig.Name)
		}
	case "json":
		if err := ReadJSON(allocator, r, schema, fragmentSize, produce); err != nil {
			table.Release()
			return nil, errors.Wrapf(err, "couldn't read json table %s", tableConfig.Name)
		}
	case "parquet":
		if err := ReadParquet(allocator, tableConfig.Path, schema, fragmentSize, produce); err != nil {
			table.Release()
			return nil, errors.Wrapf(err, "couldn't read parquet table %s", tableConfig.Name)
		}
	default:
		return nil, errors.Errorf("unknown table format '%s'", tableConfig.Format)
	}

	return table, nil
}

// LoadStore loads all configured tables into a new store.
func LoadStore(allocator memory.Allocator, cfg *config.Config) (*Store, error) {
	store := NewStore()
	for i := range cfg.Tables {
		table, err := LoadTable(allocator, &cfg.Tables[i])
		if err != nil {
			store.Close()
			return nil, err
		}
		store.AddTable(table)
	}
	return store, nil
}

func tableSchema(columns []config.ColumnConfig) (*arrow.Schema, error) {
	if len(columns) == 0 {
		return nil, errors.New("no columns")
	}
	fields := make([]arrow.Field, len(columns))
	for i, column := range columns {
		t, err := physical.ParseType(column.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid type of column %s", column.Name)
		}
		dt, err := t.ArrowType()
		if err != nil {
			return nil, err
		}
		fields[i] = arrow.Field{Name: column.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}
