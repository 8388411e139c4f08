package kestrel

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestDataFrameSelectCollectsProjectedColumns(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	out, err := FromParquet(path).Select("name", "age").Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, b := range out {
		total += b.NumRows()
		if b.NumColumns() != 2 {
			t.Fatalf("expected 2 columns, got %d", b.NumColumns())
		}
	}
	if total != 5 {
		t.Fatalf("expected 5 rows, got %d", total)
	}
}

func TestDataFrameFilterThenOrderBy(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	out, err := FromParquet(path).
		Filter(Gt(Col("age"), LitInt32(28))).
		OrderBy(Desc("salary")).
		Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one batch, got %d", len(out))
	}
	if out[0].NumRows() != 3 {
		t.Fatalf("expected 3 rows (age>28), got %d", out[0].NumRows())
	}
	salary := out[0].ColumnByName("salary").(interface{ Value(int) float64 })
	want := []float64{120, 110, 100}
	for i, w := range want {
		if got := salary.Value(i); got != w {
			t.Fatalf("row %d: expected salary %v, got %v", i, w, got)
		}
	}
}

func TestDataFrameGroupByAgg(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	out, err := FromParquet(path).
		GroupBy("dept").
		Agg(Count("n"), Sum("salary", "total")).
		Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 || out[0].NumRows() != 2 {
		t.Fatalf("expected one batch with 2 groups, got %v", out)
	}
}

type deptRow struct {
	Dept     string `parquet:"dept"`
	Building string `parquet:"building"`
}

func writeDeptsFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/depts.parquet"
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	writer := parquet.NewGenericWriter[deptRow](f)
	rows := []deptRow{{Dept: "Eng", Building: "A"}, {Dept: "Sales", Building: "B"}}
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestDataFrameJoin(t *testing.T) {
	peoplePath := writeParquetFixture(t, fivePeopleRows(), 5)
	deptsPath := writeDeptsFixture(t)
	people := FromParquet(peoplePath)
	depts := FromParquet(deptsPath)

	out, err := people.Join(depts, InnerJoin, "dept", "dept").Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 || out[0].NumRows() != 5 {
		t.Fatalf("expected 5 joined rows, got %v", out)
	}
}

func TestDataFrameDescribeRendersPlanTree(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	// Filter here follows Select, not Scan directly, so it builds an
	// ordinary Filter node rather than being pushed into the Scan.
	df := FromParquet(path).
		Select("name", "age", "salary").
		Filter(Gt(Col("age"), LitInt32(28))).
		OrderBy(Desc("salary"))
	desc := df.Describe()
	for _, want := range []string{"Sort", "Filter", "Project", "Scan"} {
		if !strings.Contains(desc, want) {
			t.Fatalf("expected Describe() output to mention %q, got:\n%s", want, desc)
		}
	}
}

func TestDataFrameFilterOnScanPushesIntoScanFilters(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	df := FromParquet(path).Filter(Gt(Col("age"), LitInt32(28)))
	scan, ok := df.Plan().(*ScanPlan)
	if !ok {
		t.Fatalf("expected Filter directly on a Scan to push down into ScanPlan.Filters, got %T", df.Plan())
	}
	if len(scan.Filters) != 1 {
		t.Fatalf("expected 1 pushed-down filter, got %d", len(scan.Filters))
	}

	out, err := df.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(out) != 1 || out[0].NumRows() != 3 {
		t.Fatalf("expected 3 rows (age>28) from pushed-down filter, got %v", out)
	}
}

func TestDataFrameFilterOnNonScanBuildsFilterNode(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	df := FromParquet(path).Select("name", "age").Filter(Gt(Col("age"), LitInt32(28)))
	if _, ok := df.Plan().(*FilterPlan); !ok {
		t.Fatalf("expected Filter after Select to build a FilterPlan, got %T", df.Plan())
	}
}

func TestDataFrameMultipleFiltersOnScanAccumulate(t *testing.T) {
	path := writeParquetFixture(t, fivePeopleRows(), 5)
	df := FromParquet(path).
		Filter(Gt(Col("age"), LitInt32(25))).
		Filter(Eq(Col("dept"), LitString("Eng")))
	scan, ok := df.Plan().(*ScanPlan)
	if !ok {
		t.Fatalf("expected chained Filters on a Scan to stay pushed into ScanPlan.Filters, got %T", df.Plan())
	}
	if len(scan.Filters) != 2 {
		t.Fatalf("expected 2 accumulated pushed-down filters, got %d", len(scan.Filters))
	}
	out, err := df.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	// Eng rows: Alice(30), Bob(25), Eve(35); age>25 keeps Alice, Eve.
	if len(out) != 1 || out[0].NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %v", out)
	}
}
