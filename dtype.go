package kestrel

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// DType is the restricted set of scalar types the engine understands.
// Unlike a general-purpose columnar library, the execution core only ever
// has to reason about these five.
type DType uint8

const (
	Int32 DType = iota
	Int64
	Float64
	String
	Boolean
)

func (d DType) String() string {
	switch d {
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float64:
		return "Float64"
	case String:
		return "String"
	case Boolean:
		return "Boolean"
	default:
		return fmt.Sprintf("DType(%d)", uint8(d))
	}
}

// IsNumeric reports whether values of this type participate in numeric
// aggregation (Sum/Avg/Min/Max coerce Int32/Int64 to Float64).
func (d DType) IsNumeric() bool {
	return d == Int32 || d == Int64 || d == Float64
}

// ArrowType returns the arrow.DataType backing this DType.
func (d DType) ArrowType() arrow.DataType {
	switch d {
	case Int32:
		return arrow.PrimitiveTypes.Int32
	case Int64:
		return arrow.PrimitiveTypes.Int64
	case Float64:
		return arrow.PrimitiveTypes.Float64
	case String:
		return arrow.BinaryTypes.String
	case Boolean:
		return arrow.FixedWidthTypes.Boolean
	default:
		panic(fmt.Sprintf("kestrel: unreachable dtype %d", uint8(d)))
	}
}

// dtypeFromArrow maps a supported arrow.DataType to a DType, reporting
// UnsupportedTypeError for anything outside the restricted set; decimal,
// timestamp, nested, and dictionary-encoded types are all rejected here.
func dtypeFromArrow(t arrow.DataType, column, context string) (DType, error) {
	switch t.ID() {
	case arrow.INT32:
		return Int32, nil
	case arrow.INT64:
		return Int64, nil
	case arrow.FLOAT64:
		return Float64, nil
	case arrow.STRING, arrow.LARGE_STRING:
		return String, nil
	case arrow.BOOL:
		return Boolean, nil
	default:
		return 0, &UnsupportedTypeError{Column: column, Arrow: t.String(), Context: context}
	}
}
