package kestrel

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// columnReader is a small typed-scalar-extraction facade over an
// arrow.Array, used by the Aggregate and Join operators to read one value
// at a time without repeating a type switch at every call site.
type columnReader interface {
	isNullAt(row int) bool
	scalarAt(row int) groupScalar
	// numericAt coerces Int32/Int64/Float64 to float64; callers only
	// invoke this on columns already known to be numeric.
	numericAt(row int) float64
}

func newColumnReader(col arrow.Array, dtype DType) columnReader {
	switch dtype {
	case Int32:
		return int32Reader{col.(*array.Int32)}
	case Int64:
		return int64Reader{col.(*array.Int64)}
	case Float64:
		return float64Reader{col.(*array.Float64)}
	case String:
		return stringReader{col.(*array.String)}
	case Boolean:
		return boolReader{col.(*array.Boolean)}
	default:
		return nil
	}
}

type int32Reader struct{ arr *array.Int32 }

func (r int32Reader) isNullAt(i int) bool { return r.arr.IsNull(i) }
func (r int32Reader) scalarAt(i int) groupScalar {
	if r.arr.IsNull(i) {
		return groupScalar{dtype: Int32, isNull: true}
	}
	return groupScalar{dtype: Int32, i32: r.arr.Value(i)}
}
func (r int32Reader) numericAt(i int) float64 { return float64(r.arr.Value(i)) }

type int64Reader struct{ arr *array.Int64 }

func (r int64Reader) isNullAt(i int) bool { return r.arr.IsNull(i) }
func (r int64Reader) scalarAt(i int) groupScalar {
	if r.arr.IsNull(i) {
		return groupScalar{dtype: Int64, isNull: true}
	}
	return groupScalar{dtype: Int64, i64: r.arr.Value(i)}
}
func (r int64Reader) numericAt(i int) float64 { return float64(r.arr.Value(i)) }

type float64Reader struct{ arr *array.Float64 }

func (r float64Reader) isNullAt(i int) bool { return r.arr.IsNull(i) }
func (r float64Reader) scalarAt(i int) groupScalar {
	if r.arr.IsNull(i) {
		return groupScalar{dtype: Float64, isNull: true}
	}
	return groupScalar{dtype: Float64, f64: r.arr.Value(i)}
}
func (r float64Reader) numericAt(i int) float64 { return r.arr.Value(i) }

type stringReader struct{ arr *array.String }

func (r stringReader) isNullAt(i int) bool { return r.arr.IsNull(i) }
func (r stringReader) scalarAt(i int) groupScalar {
	if r.arr.IsNull(i) {
		return groupScalar{dtype: String, isNull: true}
	}
	return groupScalar{dtype: String, str: r.arr.Value(i)}
}
func (r stringReader) numericAt(i int) float64 { return 0 }

type boolReader struct{ arr *array.Boolean }

func (r boolReader) isNullAt(i int) bool { return r.arr.IsNull(i) }
func (r boolReader) scalarAt(i int) groupScalar {
	if r.arr.IsNull(i) {
		return groupScalar{dtype: Boolean, isNull: true}
	}
	return groupScalar{dtype: Boolean, b: r.arr.Value(i)}
}
func (r boolReader) numericAt(i int) float64 { return 0 }
