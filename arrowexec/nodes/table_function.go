package nodes

import (
	"fmt"

	"github.com/apache/arrow/go/v13/arrow"

	"github.com/cube2222/udtf/arrowexec/execution"
	"github.com/cube2222/udtf/device"
	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/storage"
	"github.com/cube2222/udtf/tablefunc"
)

// TableFunction runs a table function once for every record produced by its source.
// Column inputs of the execution unit refer to the source's fields through SourceName.
type TableFunction struct {
	OutSchema  *arrow.Schema
	Source     execution.NodeWithMeta
	SourceName string

	Unit     *physical.ExecutionUnit
	Function *tablefunc.CompiledFunction
	Device   device.Type
	// GPU has to be set for device execution.
	GPU     device.Device
	Options []tablefunc.Option
}

func (t *TableFunction) Run(ctx execution.Context, produce execution.ProduceFunc) error {
	return t.Source.Node.Run(ctx, func(produceCtx execution.ProduceContext, record execution.Record) error {
		out, err := t.execute(produceCtx.Context, record)
		if err != nil {
			return err
		}
		defer out.Release()

		if err := produce(produceCtx, execution.Record{Record: out}); err != nil {
			return fmt.Errorf("couldn't produce record: %w", err)
		}
		return nil
	})
}

func (t *TableFunction) execute(ctx execution.Context, record execution.Record) (arrow.Record, error) {
	var devices []device.Device
	opts := append([]tablefunc.Option{tablefunc.WithAllocator(ctx.GetAllocator())}, t.Options...)
	if t.GPU != nil {
		devices = append(devices, t.GPU)
		opts = append(opts, tablefunc.WithGPU(t.GPU))
	}
	store := storage.NewRecordStore(t.SourceName, record.Record, devices...)
	defer store.Close()

	result, err := tablefunc.NewExecutionContext(store, opts...).Execute(ctx.Context, t.Unit, t.Function, t.Device)
	if err != nil {
		return nil, fmt.Errorf("couldn't execute table function %s: %w", t.Function.Name, err)
	}
	defer result.Release()

	out, err := result.ToRecord(ctx.GetAllocator())
	if err != nil {
		return nil, fmt.Errorf("couldn't convert table function result: %w", err)
	}
	return out, nil
}
