package cmd

import (
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/pkg/errors"

	"github.com/cube2222/udtf/physical"
)

// parseArgument parses a single table function argument.
// Literals are written as value::type, for example 2.5::float64 or 'abc'::text.
// Anything else is a column of the given table.
func parseArgument(table string, schema *arrow.Schema, text string) (physical.Expression, error) {
	i := strings.LastIndex(text, "::")
	if i == -1 {
		indices := schema.FieldIndices(text)
		if len(indices) == 0 {
			return physical.Expression{}, errors.Errorf("table %s has no column %s", table, text)
		}
		t, err := physical.TypeFromArrow(schema.Field(indices[0]).Type)
		if err != nil {
			return physical.Expression{}, errors.Wrapf(err, "invalid column %s", text)
		}
		return physical.NewColumnReference(table, text, t), nil
	}

	value, typeName := text[:i], text[i+2:]
	t, err := physical.ParseType(typeName)
	if err != nil {
		return physical.Expression{}, errors.Wrapf(err, "invalid literal %s", text)
	}
	switch t.TypeID {
	case physical.TypeIDInt:
		v, err := strconv.ParseInt(value, 10, t.BitWidth)
		if err != nil {
			return physical.Expression{}, errors.Wrapf(err, "invalid %s literal", t)
		}
		return physical.NewIntConstant(t, v), nil
	case physical.TypeIDFloat:
		v, err := strconv.ParseFloat(value, t.BitWidth)
		if err != nil {
			return physical.Expression{}, errors.Wrapf(err, "invalid %s literal", t)
		}
		return physical.NewFloatConstant(t, v), nil
	case physical.TypeIDBoolean:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return physical.Expression{}, errors.Wrapf(err, "invalid %s literal", t)
		}
		return physical.NewConstant(t, physical.Datum{Bool: v}), nil
	default:
		return physical.NewStringConstant(strings.Trim(value, "'")), nil
	}
}
