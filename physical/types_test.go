package physical

import (
	"testing"

	"github.com/apache/arrow/go/v13/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		want    Type
		wantErr bool
	}{
		{name: "int8", want: Int8},
		{name: "SMALLINT", want: Int16},
		{name: "int", want: Int32},
		{name: " bigint ", want: Int64},
		{name: "float", want: Float32},
		{name: "double", want: Float64},
		{name: "boolean", want: Boolean},
		{name: "text", want: String},
		{name: "uuid", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArrowTypes(t *testing.T) {
	for _, typ := range []Type{Int8, Int16, Int32, Int64, Float32, Float64, Boolean, String} {
		dt, err := typ.ArrowType()
		require.NoError(t, err)
		back, err := TypeFromArrow(dt)
		require.NoError(t, err)
		assert.True(t, typ.Equals(back), "%s became %s", typ, back)
	}

	_, err := TypeFromArrow(arrow.FixedWidthTypes.Date32)
	assert.Error(t, err)
	_, err = Type{TypeID: TypeIDInt, BitWidth: 12}.ArrowType()
	assert.Error(t, err)
}

func TestExecutionUnit(t *testing.T) {
	unit := &ExecutionUnit{
		Name: "scale",
		Inputs: []Expression{
			NewColumnReference("numbers", "x", Float64),
			NewFloatConstant(Float64, 2.5),
			NewIntConstant(Int32, 3),
			NewStringConstant("abc"),
			NewColumnReference("numbers", "y", Int64),
		},
		OutputRowMultiplier: RowMultiplier(1),
	}

	assert.Equal(t, []ColumnReference{{Table: "numbers", Name: "x"}, {Table: "numbers", Name: "y"}}, unit.ColumnInputs())
	assert.Equal(t, "scale(numbers.x, 2.5::float64, 3::int32, 'abc', numbers.y)", unit.String())
}
