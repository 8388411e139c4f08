package kestrel

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Shared test fixtures: small in-memory batch builders used across
// batch_test.go, filter_test.go, aggregate_test.go, sort_test.go and
// join_test.go so each of those files can focus on its own operator's
// behavior rather than re-deriving Arrow array construction.

var testMem = memory.NewGoAllocator()

func int32Col(values []int32, nulls []bool) arrow.Array {
	b := array.NewInt32Builder(testMem)
	defer b.Release()
	for i, v := range values {
		if nulls != nil && nulls[i] {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return b.NewArray()
}

func int64Col(values []int64) arrow.Array {
	b := array.NewInt64Builder(testMem)
	defer b.Release()
	b.AppendValues(values, nil)
	return b.NewArray()
}

func float64Col(values []float64, nulls []bool) arrow.Array {
	b := array.NewFloat64Builder(testMem)
	defer b.Release()
	for i, v := range values {
		if nulls != nil && nulls[i] {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return b.NewArray()
}

func stringCol(values []string, nulls []bool) arrow.Array {
	b := array.NewStringBuilder(testMem)
	defer b.Release()
	for i, v := range values {
		if nulls != nil && nulls[i] {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return b.NewArray()
}

func boolCol(values []bool) arrow.Array {
	b := array.NewBooleanBuilder(testMem)
	defer b.Release()
	b.AppendValues(values, nil)
	return b.NewArray()
}

// peopleSchema is the five-person roster most operator tests run against:
// id Int32, name String, age Int32, dept String, salary Float64.
func peopleSchema() *Schema {
	return NewSchema(
		Field{Name: "id", Type: Int32},
		Field{Name: "name", Type: String},
		Field{Name: "age", Type: Int32},
		Field{Name: "dept", Type: String},
		Field{Name: "salary", Type: Float64},
	)
}

func peopleBatch(t testingT) *Batch {
	schema := peopleSchema()
	cols := []arrow.Array{
		int32Col([]int32{1, 2, 3, 4, 5}, nil),
		stringCol([]string{"Alice", "Bob", "Carol", "Dave", "Eve"}, nil),
		int32Col([]int32{30, 25, 40, 28, 35}, nil),
		stringCol([]string{"Eng", "Eng", "Sales", "Sales", "Eng"}, nil),
		float64Col([]float64{100.0, 80.0, 120.0, 90.0, 110.0}, nil),
	}
	b, err := NewBatch(schema, cols)
	if err != nil {
		t.Fatalf("peopleBatch: %v", err)
	}
	return b
}

// testingT is the subset of *testing.T used by fixture helpers.
type testingT interface {
	Fatalf(format string, args ...interface{})
}
