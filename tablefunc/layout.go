package tablefunc

import (
	"math"

	"github.com/pkg/errors"

	"github.com/cube2222/udtf/physical"
)

// All outputs are padded to 8 bytes, so the same layout works on every device.
const (
	outputSlotWidth     = 8
	outputSlotAlignment = 8
)

// maxAllocatedRowCount keeps the byte size of every output column representable.
const maxAllocatedRowCount = math.MaxInt64 / outputSlotWidth

type SlotInfo struct {
	Width     int
	Alignment int
}

// OutputLayout describes the columnar output buffers of an invocation.
// AllocatedRowCount is an upper bound, the function reports how many rows it actually produced.
type OutputLayout struct {
	Slots             []SlotInfo
	AllocatedRowCount int64
}

// ColumnBytes is the size of a single output column holding the given number of rows.
func (l *OutputLayout) ColumnBytes(column int, rows int64) int {
	return l.Slots[column].Width * int(rows)
}

func PlanOutput(unit *physical.ExecutionUnit, inputRowCount int64) (*OutputLayout, error) {
	allocated, err := allocatedOutputRowCount(unit, inputRowCount)
	if err != nil {
		return nil, err
	}

	slots := make([]SlotInfo, len(unit.Targets))
	for i := range slots {
		slots[i] = SlotInfo{
			Width:     outputSlotWidth,
			Alignment: outputSlotAlignment,
		}
	}

	return &OutputLayout{
		Slots:             slots,
		AllocatedRowCount: allocated,
	}, nil
}

// ValidRowMultiplier reports whether the multiplier describes a usable output size.
func ValidRowMultiplier(multiplier *float64) bool {
	if multiplier == nil {
		return false
	}
	m := *multiplier
	return !math.IsNaN(m) && !math.IsInf(m, 0) && m > 0
}

func allocatedOutputRowCount(unit *physical.ExecutionUnit, inputRowCount int64) (int64, error) {
	if !ValidRowMultiplier(unit.OutputRowMultiplier) {
		return 0, ErrUnsupportedOutputPolicy
	}
	allocated := math.Floor(*unit.OutputRowMultiplier * float64(inputRowCount))
	if allocated >= maxAllocatedRowCount {
		return 0, errors.Wrapf(ErrUnsupportedOutputPolicy, "multiplier %v over %d rows exceeds the maximum output size", *unit.OutputRowMultiplier, inputRowCount)
	}
	return int64(allocated), nil
}
