package physical

import (
	"fmt"
)

type Expression struct {
	Type Type

	ExpressionType ExpressionType
	// Only one of the below may be non-null.
	Column   *ColumnReference
	Constant *Constant
}

type ExpressionType int

const (
	ExpressionTypeColumn ExpressionType = iota
	ExpressionTypeConstant
)

func (t ExpressionType) String() string {
	switch t {
	case ExpressionTypeColumn:
		return "column"
	case ExpressionTypeConstant:
		return "constant"
	}
	return fmt.Sprintf("ExpressionType(%d)", int(t))
}

// ColumnReference points at a column of a stored table.
type ColumnReference struct {
	Table string
	Name  string
}

type Constant struct {
	Value Datum
}

// Datum holds a literal value. Which field is used depends on the type of the expression.
type Datum struct {
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func NewColumnReference(table, name string, t Type) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeColumn,
		Column: &ColumnReference{
			Table: table,
			Name:  name,
		},
	}
}

func NewConstant(t Type, value Datum) Expression {
	return Expression{
		Type:           t,
		ExpressionType: ExpressionTypeConstant,
		Constant: &Constant{
			Value: value,
		},
	}
}

func NewIntConstant(t Type, value int64) Expression {
	return NewConstant(t, Datum{Int: value})
}

func NewFloatConstant(t Type, value float64) Expression {
	return NewConstant(t, Datum{Float: value})
}

func NewStringConstant(value string) Expression {
	return NewConstant(String, Datum{Str: value})
}

func (expr Expression) String() string {
	switch expr.ExpressionType {
	case ExpressionTypeColumn:
		return fmt.Sprintf("%s.%s", expr.Column.Table, expr.Column.Name)
	case ExpressionTypeConstant:
		switch expr.Type.TypeID {
		case TypeIDInt:
			return fmt.Sprintf("%d::%s", expr.Constant.Value.Int, expr.Type)
		case TypeIDFloat:
			return fmt.Sprintf("%v::%s", expr.Constant.Value.Float, expr.Type)
		case TypeIDBoolean:
			return fmt.Sprintf("%t", expr.Constant.Value.Bool)
		default:
			return fmt.Sprintf("'%s'", expr.Constant.Value.Str)
		}
	}
	panic(fmt.Sprintf("Bug: unknown expression type: %v", expr.ExpressionType))
}
