package kestrel

import (
	"context"
	"fmt"
	"strings"
)

// DataFrame is thin sugar over LogicalPlan construction: every method
// returns a new DataFrame wrapping a new plan node, never mutating the
// receiver. Nothing executes until Collect is called.
type DataFrame struct {
	plan LogicalPlan
}

// FromParquet builds a Scan node reading every column of path.
func FromParquet(path string) *DataFrame {
	return &DataFrame{plan: &ScanPlan{Path: path}}
}

// Select builds a Project node over the given columns.
func (df *DataFrame) Select(columns ...string) *DataFrame {
	return &DataFrame{plan: &ProjectPlan{Input: df.plan, Columns: columns}}
}

// Filter builds a Filter node with the given predicate. A predicate
// filtering directly on a Scan is folded into that Scan's Filters instead
// of wrapping it in a separate Filter node; any other input gets an
// ordinary Filter node. This is the only plan rewriting the builder does.
func (df *DataFrame) Filter(predicate LogicalExpr) *DataFrame {
	if scan, ok := df.plan.(*ScanPlan); ok {
		filters := make([]LogicalExpr, 0, len(scan.Filters)+1)
		filters = append(filters, scan.Filters...)
		filters = append(filters, predicate)
		return &DataFrame{plan: &ScanPlan{Path: scan.Path, Projection: scan.Projection, Filters: filters}}
	}
	return &DataFrame{plan: &FilterPlan{Input: df.plan, Predicate: predicate}}
}

// OrderBy builds a Sort node over the given keys.
func (df *DataFrame) OrderBy(orderBy ...OrderByExpr) *DataFrame {
	return &DataFrame{plan: &SortPlan{Input: df.plan, OrderBy: orderBy}}
}

// Join builds an inner or left equi-join of df with other on (leftKey,
// rightKey).
func (df *DataFrame) Join(other *DataFrame, joinType JoinType, leftKey, rightKey string) *DataFrame {
	return &DataFrame{plan: &JoinPlan{
		Left: df.plan, Right: other.plan,
		JoinType: joinType, LeftKey: leftKey, RightKey: rightKey,
	}}
}

// GroupBy begins a grouped aggregation over the given column names.
func (df *DataFrame) GroupBy(columns ...string) *GroupedDataFrame {
	return &GroupedDataFrame{input: df.plan, groupBy: columns}
}

// Plan exposes the underlying logical plan, chiefly for Describe/Explain
// tooling and tests.
func (df *DataFrame) Plan() LogicalPlan { return df.plan }

// Collect runs the executor over df's plan, materializing it into batches.
func (df *DataFrame) Collect(ctx context.Context) ([]*Batch, error) {
	return NewExecutor(nil).Execute(ctx, df.plan)
}

// Describe renders the plan tree as an indented, human-readable string.
// Debugging tooling, not a query optimizer.
func (df *DataFrame) Describe() string {
	var b strings.Builder
	describePlan(&b, df.plan, 0)
	return b.String()
}

func describePlan(b *strings.Builder, plan LogicalPlan, indent int) {
	pad := strings.Repeat("  ", indent)
	switch p := plan.(type) {
	case *ScanPlan:
		fmt.Fprintf(b, "%sScan(%s, projection=%v, filters=%d)\n", pad, p.Path, p.Projection, len(p.Filters))
	case *ProjectPlan:
		fmt.Fprintf(b, "%sProject(%v)\n", pad, p.Columns)
		describePlan(b, p.Input, indent+1)
	case *FilterPlan:
		fmt.Fprintf(b, "%sFilter(%s)\n", pad, p.Predicate.String())
		describePlan(b, p.Input, indent+1)
	case *AggregatePlan:
		fmt.Fprintf(b, "%sAggregate(group_by=%v, aggs=%d)\n", pad, p.GroupBy, len(p.Aggs))
		describePlan(b, p.Input, indent+1)
	case *SortPlan:
		fmt.Fprintf(b, "%sSort(%v)\n", pad, p.OrderBy)
		describePlan(b, p.Input, indent+1)
	case *JoinPlan:
		fmt.Fprintf(b, "%sJoin(%s, %s=%s)\n", pad, p.JoinType.String(), p.LeftKey, p.RightKey)
		describePlan(b, p.Left, indent+1)
		describePlan(b, p.Right, indent+1)
	}
}

// GroupedDataFrame is the intermediate state between GroupBy and Agg.
type GroupedDataFrame struct {
	input   LogicalPlan
	groupBy []string
}

// Agg finishes a grouped aggregation, building an Aggregate node.
func (g *GroupedDataFrame) Agg(aggs ...Aggregation) *DataFrame {
	return &DataFrame{plan: &AggregatePlan{Input: g.input, GroupBy: g.groupBy, Aggs: aggs}}
}
