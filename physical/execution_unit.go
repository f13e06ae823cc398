package physical

import (
	"strings"
)

// ExecutionUnit describes a single table function invocation.
// It's produced by planning and only read during execution.
type ExecutionUnit struct {
	Name    string
	Inputs  []Expression
	Targets []Target
	// OutputRowMultiplier sizes the output as a multiple of the input row count.
	// It's the only supported sizing policy.
	OutputRowMultiplier *float64
}

type Target struct {
	Name string
	Type Type
}

func RowMultiplier(multiplier float64) *float64 {
	return &multiplier
}

func (unit *ExecutionUnit) ColumnInputs() []ColumnReference {
	var out []ColumnReference
	for _, expr := range unit.Inputs {
		if expr.ExpressionType == ExpressionTypeColumn {
			out = append(out, *expr.Column)
		}
	}
	return out
}

func (unit *ExecutionUnit) String() string {
	args := make([]string, len(unit.Inputs))
	for i := range unit.Inputs {
		args[i] = unit.Inputs[i].String()
	}
	return unit.Name + "(" + strings.Join(args, ", ") + ")"
}
