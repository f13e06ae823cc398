package physical

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/pkg/errors"
)

type TypeID int

const (
	TypeIDInt TypeID = iota
	TypeIDFloat
	TypeIDBoolean
	TypeIDString
)

// Type is a logical value type. BitWidth is only meaningful for fixed-width types.
type Type struct {
	TypeID   TypeID
	BitWidth int
}

var (
	Int8    = Type{TypeID: TypeIDInt, BitWidth: 8}
	Int16   = Type{TypeID: TypeIDInt, BitWidth: 16}
	Int32   = Type{TypeID: TypeIDInt, BitWidth: 32}
	Int64   = Type{TypeID: TypeIDInt, BitWidth: 64}
	Float32 = Type{TypeID: TypeIDFloat, BitWidth: 32}
	Float64 = Type{TypeID: TypeIDFloat, BitWidth: 64}
	Boolean = Type{TypeID: TypeIDBoolean, BitWidth: 1}
	String  = Type{TypeID: TypeIDString}
)

func (t Type) IsInteger() bool {
	return t.TypeID == TypeIDInt
}

func (t Type) IsFloatingPoint() bool {
	return t.TypeID == TypeIDFloat
}

func (t Type) Equals(other Type) bool {
	return t == other
}

func (t Type) String() string {
	switch t.TypeID {
	case TypeIDInt:
		return fmt.Sprintf("int%d", t.BitWidth)
	case TypeIDFloat:
		return fmt.Sprintf("float%d", t.BitWidth)
	case TypeIDBoolean:
		return "boolean"
	case TypeIDString:
		return "text"
	}
	return fmt.Sprintf("Type(%d, %d)", t.TypeID, t.BitWidth)
}

func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int8", "tinyint":
		return Int8, nil
	case "int16", "smallint":
		return Int16, nil
	case "int32", "int":
		return Int32, nil
	case "int64", "bigint":
		return Int64, nil
	case "float32", "float":
		return Float32, nil
	case "float64", "double":
		return Float64, nil
	case "bool", "boolean":
		return Boolean, nil
	case "text", "string":
		return String, nil
	default:
		return Type{}, errors.Errorf("unknown type: %s", name)
	}
}

func (t Type) ArrowType() (arrow.DataType, error) {
	switch t {
	case Int8:
		return arrow.PrimitiveTypes.Int8, nil
	case Int16:
		return arrow.PrimitiveTypes.Int16, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Boolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case String:
		return arrow.BinaryTypes.String, nil
	}
	return nil, errors.Errorf("type %s has no arrow counterpart", t)
}

func TypeFromArrow(dt arrow.DataType) (Type, error) {
	switch dt.ID() {
	case arrow.INT8:
		return Int8, nil
	case arrow.INT16:
		return Int16, nil
	case arrow.INT32:
		return Int32, nil
	case arrow.INT64:
		return Int64, nil
	case arrow.FLOAT32:
		return Float32, nil
	case arrow.FLOAT64:
		return Float64, nil
	case arrow.BOOL:
		return Boolean, nil
	case arrow.STRING:
		return String, nil
	}
	return Type{}, errors.Errorf("unsupported arrow type: %s", dt)
}
