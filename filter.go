package kestrel

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// FilterOperator keeps only the rows for which Predicate evaluates true.
// Its output schema is identical to its input schema.
type FilterOperator struct {
	predicate    LogicalExpr
	outputSchema *Schema
}

// NewFilterOperator constructs a FilterOperator over inputSchema.
func NewFilterOperator(predicate LogicalExpr, inputSchema *Schema) *FilterOperator {
	return &FilterOperator{predicate: predicate, outputSchema: inputSchema}
}

// Schema returns the operator's output schema.
func (f *FilterOperator) Schema() *Schema { return f.outputSchema }

// Execute evaluates the predicate against b, then applies the resulting
// boolean mask to every column at once through the Filter kernel. A null in
// the mask drops the row, the same way a false does.
func (f *FilterOperator) Execute(ctx context.Context, mem memory.Allocator, b *Batch) (*Batch, error) {
	mask, err := evaluateBoolean(ctx, mem, b, f.predicate)
	if err != nil {
		return nil, err
	}
	maskDatum := compute.NewDatum(mask)
	defer maskDatum.Release()
	recDatum := compute.NewDatum(b.Record())
	defer recDatum.Release()

	result, err := compute.Filter(ctx, recDatum, maskDatum, *compute.DefaultFilterOptions())
	if err != nil {
		return nil, err
	}
	recResult, ok := result.(*compute.RecordDatum)
	if !ok {
		result.Release()
		return nil, &SchemaMismatchError{Detail: "filter kernel did not return a record"}
	}
	return NewBatchFromRecord(recResult.Value)
}
