package table_valued_functions

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/cube2222/udtf/physical"
	"github.com/cube2222/udtf/tablefunc"
)

type ArgumentKind int

const (
	ArgumentKindColumn ArgumentKind = iota
	ArgumentKindLiteral
)

func (k ArgumentKind) String() string {
	if k == ArgumentKindLiteral {
		return "literal"
	}
	return "column"
}

type Argument struct {
	Name string
	Kind ArgumentKind
	Type physical.Type
}

type Descriptor struct {
	Description string
	Arguments   []Argument
	Outputs     []physical.Target
	// DefaultMultiplier is used when neither the caller nor MultiplierArgument provide one.
	DefaultMultiplier float64
	// MultiplierArgument, if set, is the index of an integer literal argument which sizes the output.
	MultiplierArgument *int
	Function           *tablefunc.CompiledFunction
}

func FunctionMap() map[string]Descriptor {
	return map[string]Descriptor{
		"scale":       Scale,
		"add":         Add,
		"row_copier":  RowCopier,
		"positive":    Positive,
		"running_sum": RunningSum,
	}
}

func FunctionNames() []string {
	var out []string
	for name := range FunctionMap() {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ExecutionUnit typechecks the arguments and describes an invocation of the function.
// A non-nil multiplier overrides the function's own output sizing, but may not be smaller than it.
func (d Descriptor) ExecutionUnit(args []physical.Expression, multiplier *float64) (*physical.ExecutionUnit, error) {
	if len(args) != len(d.Arguments) {
		return nil, errors.Errorf("%s expects %d arguments, got %d", d.Function.Name, len(d.Arguments), len(args))
	}
	for i, arg := range args {
		expected := d.Arguments[i]
		switch arg.ExpressionType {
		case physical.ExpressionTypeColumn:
			if expected.Kind != ArgumentKindColumn {
				return nil, errors.Errorf("argument %s must be a %s, got column %s", expected.Name, expected.Kind, arg)
			}
		case physical.ExpressionTypeConstant:
			if expected.Kind != ArgumentKindLiteral {
				return nil, errors.Errorf("argument %s must be a %s, got literal %s", expected.Name, expected.Kind, arg)
			}
		default:
			panic(fmt.Sprintf("Bug: unknown expression type: %v", arg.ExpressionType))
		}
		if !arg.Type.Equals(expected.Type) {
			return nil, errors.Errorf("argument %s must be of type %s, got %s", expected.Name, expected.Type, arg.Type)
		}
	}

	var required float64
	if d.MultiplierArgument != nil {
		sizer := args[*d.MultiplierArgument].Constant.Value.Int
		if sizer <= 0 {
			return nil, errors.Errorf("argument %s must be positive, got %d", d.Arguments[*d.MultiplierArgument].Name, sizer)
		}
		required = float64(sizer)
	} else {
		required = d.DefaultMultiplier
	}
	if multiplier == nil {
		multiplier = physical.RowMultiplier(required)
	} else if !tablefunc.ValidRowMultiplier(multiplier) {
		return nil, errors.Errorf("multiplier must be a positive finite number, got %v", *multiplier)
	} else if *multiplier < required {
		return nil, errors.Errorf("%s may produce %v rows per input row, multiplier %v is too small", d.Function.Name, required, *multiplier)
	}

	return &physical.ExecutionUnit{
		Name:                d.Function.Name,
		Inputs:              args,
		Targets:             d.Outputs,
		OutputRowMultiplier: multiplier,
	}, nil
}
