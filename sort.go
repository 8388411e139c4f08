package kestrel

import (
	"context"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// SortOperator orders rows globally by one or more keys, lexicographically
// left-to-right. Nulls sort first under either direction. The sort is
// stable: rows that compare equal on every key keep their input order, so
// sorting already-sorted input is a no-op.
type SortOperator struct {
	orderBy      []OrderByExpr
	outputSchema *Schema
}

// NewSortOperator validates that every OrderByExpr.Column exists in
// inputSchema.
func NewSortOperator(orderBy []OrderByExpr, inputSchema *Schema) (*SortOperator, error) {
	for _, ob := range orderBy {
		if inputSchema.FieldIndex(ob.Column) < 0 {
			return nil, &UnknownColumnError{Name: ob.Column, Context: "Sort"}
		}
	}
	return &SortOperator{orderBy: orderBy, outputSchema: inputSchema}, nil
}

// Schema returns the operator's output schema (identical to its input).
func (s *SortOperator) Schema() *Schema { return s.outputSchema }

// ExecuteMany concatenates every input batch into one, computes a stable
// lexicographic sort-to-indices permutation over the configured keys, and
// reorders all columns (not just the sort keys) by those indices via the
// Take kernel. Empty input yields empty output.
func (s *SortOperator) ExecuteMany(ctx context.Context, mem memory.Allocator, batches []*Batch) ([]*Batch, error) {
	nonEmpty := nonEmptyBatches(batches)
	if len(nonEmpty) == 0 {
		return nil, nil
	}

	merged, err := ConcatBatches(mem, nonEmpty)
	if err != nil {
		return nil, err
	}

	indices, err := s.sortToIndices(mem, merged)
	if err != nil {
		return nil, err
	}
	defer indices.Release()

	recDatum := compute.NewDatum(merged.Record())
	defer recDatum.Release()
	idxDatum := compute.NewDatum(indices)
	defer idxDatum.Release()

	takeResult, err := compute.Take(ctx, *compute.DefaultTakeOptions(), recDatum, idxDatum)
	if err != nil {
		return nil, err
	}
	recResult, ok := takeResult.(*compute.RecordDatum)
	if !ok {
		takeResult.Release()
		return nil, &SchemaMismatchError{Detail: "take kernel did not return a record"}
	}

	out, err := NewBatchFromRecord(recResult.Value)
	if err != nil {
		return nil, err
	}
	return []*Batch{out}, nil
}

// sortToIndices builds the row permutation ordering merged by the
// configured keys. Arrow's Go compute registry has no lexicographic sort
// kernel, so the permutation is computed with a stable sort over typed
// scalar comparisons; only the reorder itself goes through a kernel.
func (s *SortOperator) sortToIndices(mem memory.Allocator, merged *Batch) (*array.Int64, error) {
	readers := make([]columnReader, len(s.orderBy))
	for i, ob := range s.orderBy {
		idx := merged.Schema().FieldIndex(ob.Column)
		if idx < 0 {
			return nil, &UnknownColumnError{Name: ob.Column, Context: "Sort"}
		}
		col, err := merged.Column(idx)
		if err != nil {
			return nil, err
		}
		readers[i] = newColumnReader(col, merged.Schema().Fields[idx].Type)
	}

	n := int(merged.NumRows())
	indices := make([]int64, n)
	for i := range indices {
		indices[i] = int64(i)
	}
	sort.SliceStable(indices, func(i, j int) bool {
		ri, rj := int(indices[i]), int(indices[j])
		for k, reader := range readers {
			av := reader.scalarAt(ri)
			bv := reader.scalarAt(rj)
			if av.isNull || bv.isNull {
				if av.isNull == bv.isNull {
					continue
				}
				return av.isNull
			}
			c := compareScalars(av, bv)
			if c == 0 {
				continue
			}
			if s.orderBy[k].Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})

	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.Reserve(n)
	for _, idx := range indices {
		b.Append(idx)
	}
	return b.NewInt64Array(), nil
}

// compareScalars compares two non-null scalars of the same dtype, returning
// -1, 0 or 1. Boolean orders false before true.
func compareScalars(a, b groupScalar) int {
	switch a.dtype {
	case Int32:
		switch {
		case a.i32 < b.i32:
			return -1
		case a.i32 > b.i32:
			return 1
		}
	case Int64:
		switch {
		case a.i64 < b.i64:
			return -1
		case a.i64 > b.i64:
			return 1
		}
	case Float64:
		switch {
		case a.f64 < b.f64:
			return -1
		case a.f64 > b.f64:
			return 1
		}
	case String:
		return strings.Compare(a.str, b.str)
	case Boolean:
		switch {
		case !a.b && b.b:
			return -1
		case a.b && !b.b:
			return 1
		}
	}
	return 0
}
