package kestrel

import (
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

func deptsSchema() *Schema {
	return NewSchema(
		Field{Name: "dept", Type: String},
		Field{Name: "building", Type: String},
	)
}

func deptsBatch(t *testing.T) *Batch {
	cols := []arrow.Array{
		stringCol([]string{"Eng", "Sales"}, nil),
		stringCol([]string{"A", "B"}, nil),
	}
	b, err := NewBatch(deptsSchema(), cols)
	if err != nil {
		t.Fatalf("deptsBatch: %v", err)
	}
	return b
}

func TestInnerJoinAssignsBuilding(t *testing.T) {
	people := peopleBatch(t)
	depts := deptsBatch(t)
	op, err := NewHashJoinOperator("dept", "dept", InnerJoin, people.Schema(), depts.Schema())
	if err != nil {
		t.Fatalf("NewHashJoinOperator: %v", err)
	}
	out, err := op.ExecuteJoin(context.Background(), testMem, []*Batch{people}, []*Batch{depts})
	if err != nil {
		t.Fatalf("ExecuteJoin: %v", err)
	}
	if len(out) != 1 || out[0].NumRows() != 5 {
		t.Fatalf("expected one batch with 5 rows, got %v", out)
	}
	building := out[0].ColumnByName("building")
	for i := 0; i < int(out[0].NumRows()); i++ {
		if building.IsNull(i) {
			t.Fatalf("row %d: expected a building assignment, got null", i)
		}
	}
}

func TestLeftJoinNonExistentKeyYieldsNullBuilding(t *testing.T) {
	people := peopleBatch(t)
	// Right side holds only an "HR" dept, which no left row carries.
	depts, err := NewBatch(deptsSchema(), []arrow.Array{
		stringCol([]string{"HR"}, nil),
		stringCol([]string{"C"}, nil),
	})
	if err != nil {
		t.Fatalf("NewBatch: %v", err)
	}
	op, err := NewHashJoinOperator("dept", "dept", LeftJoin, people.Schema(), depts.Schema())
	if err != nil {
		t.Fatalf("NewHashJoinOperator: %v", err)
	}
	out, err := op.ExecuteJoin(context.Background(), testMem, []*Batch{people}, []*Batch{depts})
	if err != nil {
		t.Fatalf("ExecuteJoin: %v", err)
	}
	if out[0].NumRows() != 5 {
		t.Fatalf("left join must preserve all left rows, got %d", out[0].NumRows())
	}
	building := out[0].ColumnByName("building")
	for i := 0; i < 5; i++ {
		if !building.IsNull(i) {
			t.Fatalf("row %d: expected null building, no right row matches", i)
		}
	}
}

func TestLeftJoinEmptyRightSideYieldsAllNullBuilding(t *testing.T) {
	people := peopleBatch(t)
	emptyDepts, err := EmptyBatch(testMem, deptsSchema())
	if err != nil {
		t.Fatalf("EmptyBatch: %v", err)
	}
	op, err := NewHashJoinOperator("dept", "dept", LeftJoin, people.Schema(), deptsSchema())
	if err != nil {
		t.Fatalf("NewHashJoinOperator: %v", err)
	}
	out, err := op.ExecuteJoin(context.Background(), testMem, []*Batch{people}, []*Batch{emptyDepts})
	if err != nil {
		t.Fatalf("ExecuteJoin: %v", err)
	}
	if len(out) != 1 || out[0].NumRows() != 5 {
		t.Fatalf("expected 5 left rows with null building, got %v", out)
	}
	building := out[0].ColumnByName("building")
	for i := 0; i < 5; i++ {
		if !building.IsNull(i) {
			t.Fatalf("row %d: expected null building when right side is empty", i)
		}
	}
}

func TestInnerJoinEmptyRightSideYieldsNoBatches(t *testing.T) {
	people := peopleBatch(t)
	emptyDepts, err := EmptyBatch(testMem, deptsSchema())
	if err != nil {
		t.Fatalf("EmptyBatch: %v", err)
	}
	op, err := NewHashJoinOperator("dept", "dept", InnerJoin, people.Schema(), deptsSchema())
	if err != nil {
		t.Fatalf("NewHashJoinOperator: %v", err)
	}
	out, err := op.ExecuteJoin(context.Background(), testMem, []*Batch{people}, []*Batch{emptyDepts})
	if err != nil {
		t.Fatalf("ExecuteJoin: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no output batches, got %d", len(out))
	}
}

func TestEmptyLeftSideYieldsNoBatches(t *testing.T) {
	depts := deptsBatch(t)
	emptyPeople, err := EmptyBatch(testMem, peopleSchema())
	if err != nil {
		t.Fatalf("EmptyBatch: %v", err)
	}
	op, err := NewHashJoinOperator("dept", "dept", LeftJoin, peopleSchema(), depts.Schema())
	if err != nil {
		t.Fatalf("NewHashJoinOperator: %v", err)
	}
	out, err := op.ExecuteJoin(context.Background(), testMem, []*Batch{emptyPeople}, []*Batch{depts})
	if err != nil {
		t.Fatalf("ExecuteJoin: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no output batches when left side is empty, got %d", len(out))
	}
}

// Null keys must never match, on either side, for Inner; for Left the
// null-keyed probe row still emerges once with a null right side.
func TestJoinNullKeysNeverMatch(t *testing.T) {
	leftSchema := NewSchema(
		Field{Name: "k", Type: Int32, Nullable: true},
		Field{Name: "v", Type: String},
	)
	rightSchema := NewSchema(
		Field{Name: "k", Type: Int32, Nullable: true},
		Field{Name: "w", Type: String},
	)
	left, err := NewBatch(leftSchema, []arrow.Array{
		int32Col([]int32{1, 0}, []bool{false, true}),
		stringCol([]string{"a", "b"}, nil),
	})
	if err != nil {
		t.Fatalf("left batch: %v", err)
	}
	right, err := NewBatch(rightSchema, []arrow.Array{
		int32Col([]int32{1, 0}, []bool{false, true}),
		stringCol([]string{"x", "y"}, nil),
	})
	if err != nil {
		t.Fatalf("right batch: %v", err)
	}

	innerOp, err := NewHashJoinOperator("k", "k", InnerJoin, leftSchema, rightSchema)
	if err != nil {
		t.Fatalf("NewHashJoinOperator: %v", err)
	}
	innerOut, err := innerOp.ExecuteJoin(context.Background(), testMem, []*Batch{left}, []*Batch{right})
	if err != nil {
		t.Fatalf("ExecuteJoin (inner): %v", err)
	}
	if len(innerOut) != 1 || innerOut[0].NumRows() != 1 {
		t.Fatalf("expected exactly 1 matched row (k=1), got %v", innerOut)
	}

	leftOp, err := NewHashJoinOperator("k", "k", LeftJoin, leftSchema, rightSchema)
	if err != nil {
		t.Fatalf("NewHashJoinOperator: %v", err)
	}
	leftOut, err := leftOp.ExecuteJoin(context.Background(), testMem, []*Batch{left}, []*Batch{right})
	if err != nil {
		t.Fatalf("ExecuteJoin (left): %v", err)
	}
	if len(leftOut) != 1 || leftOut[0].NumRows() != 2 {
		t.Fatalf("expected both left rows to emerge once each, got %v", leftOut)
	}
	w := leftOut[0].ColumnByName("w")
	kCol := leftOut[0].ColumnByName("k").(interface{ IsNull(int) bool })
	for i := 0; i < 2; i++ {
		if kCol.IsNull(i) {
			if !w.IsNull(i) {
				t.Fatalf("row %d: null-keyed left row must get a null right side, not a match", i)
			}
		}
	}
}
