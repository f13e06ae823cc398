package tablefunc

import (
	"github.com/apache/arrow/go/v13/arrow/memory"
	"github.com/pkg/errors"

	"github.com/cube2222/udtf/physical"
)

type cpuLauncher struct {
	mem memory.Allocator
}

func (l *cpuLauncher) launch(unit *physical.ExecutionUnit, fn *CompiledFunction, inputs *InputBuffers, inv *invocation) (*ResultSet, error) {
	if fn.CPU == nil {
		return nil, errors.Errorf("table function %s has no cpu implementation", fn.Name)
	}

	layout, err := PlanOutput(unit, inputs.ElementCount)
	if err != nil {
		return nil, err
	}
	result := newResultSet(l.mem, unit.Targets, layout, layout.AllocatedRowCount)

	inputRowCount := inputs.ElementCount
	outputRowCount := int64(-1)
	if code := fn.CPU(inputs.Host, &inputRowCount, result.hostBuffers(), &outputRowCount); code != 0 {
		result.Release()
		return nil, &ExecutionError{Code: code}
	}
	if outputRowCount < 0 {
		result.Release()
		return nil, ErrOutputCardinalityNotSet
	}

	// The entry count may differ from the allocated one.
	result.updateStorageEntryCount(outputRowCount)

	return result, nil
}
