package kestrel

import (
	"context"
	"testing"
)

// Re-executing the same plan must yield an identical result: plans are
// pure values and execution has no hidden state.
func TestExecuteTwiceYieldsIdenticalResults(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 2)
	df := FromParquet(path).
		Filter(Gt(Col("age"), LitInt32(28))).
		OrderBy(Desc("salary"))

	first, err := df.Collect(context.Background())
	if err != nil {
		t.Fatalf("first Collect: %v", err)
	}
	second, err := df.Collect(context.Background())
	if err != nil {
		t.Fatalf("second Collect: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one batch per run, got %d and %d", len(first), len(second))
	}
	if first[0].NumRows() != second[0].NumRows() {
		t.Fatalf("row counts differ across runs: %d vs %d", first[0].NumRows(), second[0].NumRows())
	}
	idA := first[0].ColumnByName("id").(interface{ Value(int) int32 })
	idB := second[0].ColumnByName("id").(interface{ Value(int) int32 })
	for i := 0; i < int(first[0].NumRows()); i++ {
		if idA.Value(i) != idB.Value(i) {
			t.Fatalf("row %d: ids differ across runs: %d vs %d", i, idA.Value(i), idB.Value(i))
		}
	}
}

// A filter that eliminates every row leaves the aggregate with zero input
// batches; the executor must still produce one correctly-typed empty batch
// by deriving the input schema from Parquet metadata.
func TestAggregateOverFilteredOutInputIsTypedAndEmpty(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	out, err := FromParquet(path).
		Filter(Gt(Col("age"), LitInt32(1000))).
		GroupBy("dept").
		Agg(Count("n")).
		Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one (empty) batch, got %d", len(out))
	}
	if !out[0].IsEmpty() {
		t.Fatalf("expected zero rows, got %d", out[0].NumRows())
	}
	wantSchema := NewSchema(
		Field{Name: "dept", Type: String, Nullable: true},
		Field{Name: "n", Type: Int64, Nullable: true},
	)
	if !out[0].Schema().Equal(wantSchema) {
		t.Fatalf("unexpected schema for empty aggregate: %s", out[0].Schema())
	}
}

// When the right side of a Left join produces zero batches, the executor
// derives the right-hand schema from the partial-schema oracle so every
// left row still emerges with typed null right-side columns.
func TestLeftJoinEmptyRightSideUsesPartialSchema(t *testing.T) {
	peoplePath := writeParquetFixture(t, fivePeopleRows(), 5)
	deptsPath := writeDeptsFixture(t)

	people := FromParquet(peoplePath)
	noDepts := FromParquet(deptsPath).Filter(Eq(Col("dept"), LitString("HR")))

	out, err := people.Join(noDepts, LeftJoin, "dept", "dept").Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 || out[0].NumRows() != 5 {
		t.Fatalf("expected all 5 left rows, got %v", out)
	}
	building := out[0].ColumnByName("building")
	if building == nil {
		t.Fatal("expected a typed building column derived from Parquet metadata")
	}
	for i := 0; i < 5; i++ {
		if !building.IsNull(i) {
			t.Fatalf("row %d: expected null building, right side matched nothing", i)
		}
	}
}

// Inner join with an empty right side emits no batches at all.
func TestInnerJoinEmptyRightSideViaExecutor(t *testing.T) {
	peoplePath := writeParquetFixture(t, fivePeopleRows(), 5)
	deptsPath := writeDeptsFixture(t)

	people := FromParquet(peoplePath)
	noDepts := FromParquet(deptsPath).Filter(Eq(Col("dept"), LitString("HR")))

	out, err := people.Join(noDepts, InnerJoin, "dept", "dept").Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no output batches, got %d", len(out))
	}
}

func TestPartialSchemaRecursesThroughProjectFilterSort(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	plan := &SortPlan{
		Input: &FilterPlan{
			Input: &ProjectPlan{
				Input:   &ScanPlan{Path: path},
				Columns: []string{"name", "salary"},
			},
			Predicate: Gt(Col("salary"), LitFloat64(90)),
		},
		OrderBy: []OrderByExpr{Desc("salary")},
	}
	schema, err := PartialSchema(plan)
	if err != nil {
		t.Fatalf("PartialSchema: %v", err)
	}
	wantSchema := NewSchema(
		Field{Name: "name", Type: String},
		Field{Name: "salary", Type: Float64},
	)
	if !schema.Equal(wantSchema) {
		t.Fatalf("unexpected schema: %s", schema)
	}
}

func TestPartialSchemaUnavailableForAggregateAndJoin(t *testing.T) {
	scan := &ScanPlan{Path: "unused.parquet"}
	if _, err := PartialSchema(&AggregatePlan{Input: scan, GroupBy: []string{"x"}}); err == nil {
		t.Fatal("expected SchemaUnavailableError for Aggregate")
	}
	join := &JoinPlan{Left: scan, Right: scan, JoinType: InnerJoin, LeftKey: "x", RightKey: "x"}
	if _, err := PartialSchema(join); err == nil {
		t.Fatal("expected SchemaUnavailableError for Join")
	}
}
