package nodes

import (
	"fmt"

	"github.com/cube2222/udtf/arrowexec/execution"
	"github.com/cube2222/udtf/storage"
)

// Scan produces the fragments of a stored table, one record per fragment.
type Scan struct {
	Table *storage.Table
}

func (s *Scan) Run(ctx execution.Context, produce execution.ProduceFunc) error {
	for i, fragment := range s.Table.Fragments {
		if err := produce(execution.ProduceContext{Context: ctx}, execution.Record{Record: fragment}); err != nil {
			return fmt.Errorf("couldn't produce fragment %d: %w", i, err)
		}
	}
	return nil
}
