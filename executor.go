package kestrel

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Executor recursively materializes a LogicalPlan into batches. It is
// single-threaded and cooperative: a call to Execute returns only once the
// whole plan tree has been walked; the only concurrency in the system is
// internal to a Scan node's row-group fan-out.
type Executor struct {
	mem memory.Allocator
}

// NewExecutor constructs an Executor using the given allocator, defaulting
// to memory.NewGoAllocator() when none is supplied.
func NewExecutor(mem memory.Allocator) *Executor {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Executor{mem: mem}
}

// Execute walks plan and returns the ordered list of batches it produces.
func (ex *Executor) Execute(ctx context.Context, plan LogicalPlan) ([]*Batch, error) {
	switch p := plan.(type) {
	case *ScanPlan:
		return ex.executeScan(ctx, p)
	case *ProjectPlan:
		return ex.executeProject(ctx, p)
	case *FilterPlan:
		return ex.executeFilter(ctx, p)
	case *SortPlan:
		return ex.executeSort(ctx, p)
	case *AggregatePlan:
		return ex.executeAggregate(ctx, p)
	case *JoinPlan:
		return ex.executeJoin(ctx, p)
	default:
		return nil, &SchemaUnavailableError{PlanKind: "unknown plan node"}
	}
}

func (ex *Executor) executeScan(ctx context.Context, p *ScanPlan) ([]*Batch, error) {
	scan, err := NewParquetScan(p.Path, p.Projection, DefaultScanConfig())
	if err != nil {
		return nil, err
	}
	batches, err := scan.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(p.Filters) == 0 {
		return batches, nil
	}
	// Filters attached directly to Scan are applied as an ordinary Filter
	// immediately after the read, not pushed into the Parquet decode
	// itself.
	schema := scan.Schema()
	var predicate LogicalExpr = p.Filters[0]
	for _, f := range p.Filters[1:] {
		predicate = And(predicate, f)
	}
	op := NewFilterOperator(predicate, schema)
	out := make([]*Batch, 0, len(batches))
	for _, b := range batches {
		fb, err := op.Execute(ctx, ex.mem, b)
		if err != nil {
			return nil, err
		}
		if !fb.IsEmpty() {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (ex *Executor) executeProject(ctx context.Context, p *ProjectPlan) ([]*Batch, error) {
	inputBatches, err := ex.Execute(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	if len(inputBatches) == 0 {
		return nil, nil
	}
	op, err := NewProjectOperator(p.Columns, inputBatches[0].Schema())
	if err != nil {
		return nil, err
	}
	out := make([]*Batch, len(inputBatches))
	for i, b := range inputBatches {
		pb, err := op.Execute(b)
		if err != nil {
			return nil, err
		}
		out[i] = pb
	}
	return out, nil
}

func (ex *Executor) executeFilter(ctx context.Context, p *FilterPlan) ([]*Batch, error) {
	inputBatches, err := ex.Execute(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	if len(inputBatches) == 0 {
		return nil, nil
	}
	op := NewFilterOperator(p.Predicate, inputBatches[0].Schema())
	out := make([]*Batch, 0, len(inputBatches))
	for _, b := range inputBatches {
		fb, err := op.Execute(ctx, ex.mem, b)
		if err != nil {
			return nil, err
		}
		if !fb.IsEmpty() {
			out = append(out, fb)
		}
	}
	return out, nil
}

func (ex *Executor) executeSort(ctx context.Context, p *SortPlan) ([]*Batch, error) {
	inputBatches, err := ex.Execute(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	if len(inputBatches) == 0 {
		return nil, nil
	}
	op, err := NewSortOperator(p.OrderBy, inputBatches[0].Schema())
	if err != nil {
		return nil, err
	}
	return op.ExecuteMany(ctx, ex.mem, inputBatches)
}

func (ex *Executor) executeAggregate(ctx context.Context, p *AggregatePlan) ([]*Batch, error) {
	inputBatches, err := ex.Execute(ctx, p.Input)
	if err != nil {
		return nil, err
	}
	if len(inputBatches) == 0 {
		// No input schema is available from batches; fall back to the
		// partial-schema oracle so the empty output is still correctly
		// typed rather than using a placeholder type.
		inputSchema, err := PartialSchema(p.Input)
		if err != nil {
			return nil, err
		}
		op, err := NewAggregateOperator(p.GroupBy, p.Aggs, inputSchema)
		if err != nil {
			return nil, err
		}
		empty, err := EmptyBatch(ex.mem, op.Schema())
		if err != nil {
			return nil, err
		}
		return []*Batch{empty}, nil
	}
	op, err := NewAggregateOperator(p.GroupBy, p.Aggs, inputBatches[0].Schema())
	if err != nil {
		return nil, err
	}
	return op.ExecuteMany(ex.mem, inputBatches)
}

func (ex *Executor) executeJoin(ctx context.Context, p *JoinPlan) ([]*Batch, error) {
	leftBatches, err := ex.Execute(ctx, p.Left)
	if err != nil {
		return nil, err
	}
	rightBatches, err := ex.Execute(ctx, p.Right)
	if err != nil {
		return nil, err
	}
	if len(leftBatches) == 0 {
		return nil, nil
	}
	leftSchema := leftBatches[0].Schema()

	var rightSchema *Schema
	if len(rightBatches) > 0 {
		rightSchema = rightBatches[0].Schema()
	} else {
		rightSchema, err = PartialSchema(p.Right)
		if err != nil {
			return nil, err
		}
	}

	op, err := NewHashJoinOperator(p.LeftKey, p.RightKey, p.JoinType, leftSchema, rightSchema)
	if err != nil {
		return nil, err
	}
	return op.ExecuteJoin(ctx, ex.mem, leftBatches, rightBatches)
}
