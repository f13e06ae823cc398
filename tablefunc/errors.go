package tablefunc

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/cube2222/udtf/physical"
)

var (
	ErrUnsupportedOutputPolicy = errors.New("only row multiplier output buffer configuration is supported for table functions")
	ErrNoColumnInputs          = errors.New("table functions require at least one column input")
	ErrOutputCardinalityNotSet = errors.New("table function did not properly set output row count")
	ErrGPUUnavailable          = errors.New("gpu execution is not available")
)

type UnsupportedLiteralTypeError struct {
	Literal physical.Expression
}

func (e *UnsupportedLiteralTypeError) Error() string {
	return fmt.Sprintf("literal value %s of type %s is not yet supported", e.Literal, e.Literal.Type)
}

type InconsistentInputCardinalityError struct {
	Input    int
	Expected int64
	Actual   int64
}

func (e *InconsistentInputCardinalityError) Error() string {
	return fmt.Sprintf("input %d has %d rows, expected %d like the preceding column inputs", e.Input, e.Actual, e.Expected)
}

// ExecutionError is returned when the table function itself reports a failure.
type ExecutionError struct {
	Code int32
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("error executing table function: %d", e.Code)
}

type KernelLaunchError struct {
	Err error
}

func (e *KernelLaunchError) Error() string {
	return fmt.Sprintf("couldn't launch table function kernel: %s", e.Err)
}

func (e *KernelLaunchError) Unwrap() error {
	return e.Err
}

func (e *KernelLaunchError) Cause() error {
	return e.Err
}
