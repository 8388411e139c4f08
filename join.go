package kestrel

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// HashJoinOperator equi-joins a left and right side on one key column
// each, always hash-building on the right side and probing with the left.
//
// Null-key handling deliberately diverges from a naive "null sentinel"
// encoding: a null-keyed right row is never inserted into the build map,
// and a null-keyed left row is always treated as unmatched. Null never
// equals null in this join, matching ordinary SQL equi-join semantics.
type HashJoinOperator struct {
	leftKey, rightKey       string
	joinType                JoinType
	leftSchema, rightSchema *Schema
	outputSchema            *Schema
	leftKeyIdx, rightKeyIdx int
}

// NewHashJoinOperator resolves the join keys against each side's schema and
// fixes the output schema: left fields followed by right fields, verbatim.
func NewHashJoinOperator(leftKey, rightKey string, joinType JoinType, leftSchema, rightSchema *Schema) (*HashJoinOperator, error) {
	li := leftSchema.FieldIndex(leftKey)
	if li < 0 {
		return nil, &UnknownColumnError{Name: leftKey, Context: "Join"}
	}
	ri := rightSchema.FieldIndex(rightKey)
	if ri < 0 {
		return nil, &UnknownColumnError{Name: rightKey, Context: "Join"}
	}
	if !isSupportedGroupType(leftSchema.Fields[li].Type) {
		return nil, &UnsupportedJoinKeyTypeError{Column: leftKey, Type: leftSchema.Fields[li].Type}
	}
	if !isSupportedGroupType(rightSchema.Fields[ri].Type) {
		return nil, &UnsupportedJoinKeyTypeError{Column: rightKey, Type: rightSchema.Fields[ri].Type}
	}

	fields := make([]Field, 0, len(leftSchema.Fields)+len(rightSchema.Fields))
	fields = append(fields, leftSchema.Fields...)
	fields = append(fields, rightSchema.Fields...)

	return &HashJoinOperator{
		leftKey:      leftKey,
		rightKey:     rightKey,
		joinType:     joinType,
		leftSchema:   leftSchema,
		rightSchema:  rightSchema,
		outputSchema: &Schema{Fields: fields},
		leftKeyIdx:   li,
		rightKeyIdx:  ri,
	}, nil
}

// Schema returns the operator's output schema.
func (j *HashJoinOperator) Schema() *Schema { return j.outputSchema }

// ExecuteJoin concatenates each side, builds a hash map of the right side's
// key values to row indices (skipping null keys), probes it with every
// left row, and assembles the result: left columns via the Take kernel,
// right columns via a null-aware builder pass since Take has no
// take-with-holes mode.
func (j *HashJoinOperator) ExecuteJoin(ctx context.Context, mem memory.Allocator, leftBatches, rightBatches []*Batch) ([]*Batch, error) {
	nonEmptyLeft := nonEmptyBatches(leftBatches)
	if len(nonEmptyLeft) == 0 {
		return nil, nil
	}
	left, err := ConcatBatches(mem, nonEmptyLeft)
	if err != nil {
		return nil, err
	}

	nonEmptyRight := nonEmptyBatches(rightBatches)
	if len(nonEmptyRight) == 0 {
		if j.joinType == InnerJoin {
			return nil, nil
		}
		return j.leftOnlyResult(mem, left)
	}
	right, err := ConcatBatches(mem, nonEmptyRight)
	if err != nil {
		return nil, err
	}

	rightKeyCol, err := right.Column(j.rightKeyIdx)
	if err != nil {
		return nil, err
	}
	rightKeyReader := newColumnReader(rightKeyCol, j.rightSchema.Fields[j.rightKeyIdx].Type)

	buildMap := make(map[string][]int)
	for r := 0; r < int(right.NumRows()); r++ {
		if rightKeyReader.isNullAt(r) {
			continue
		}
		key := rightKeyReader.scalarAt(r).key()
		buildMap[key] = append(buildMap[key], r)
	}

	leftKeyCol, err := left.Column(j.leftKeyIdx)
	if err != nil {
		return nil, err
	}
	leftKeyReader := newColumnReader(leftKeyCol, j.leftSchema.Fields[j.leftKeyIdx].Type)

	var leftIndices []int64
	var rightIndices []int64 // -1 means "no match, emit null"
	for l := 0; l < int(left.NumRows()); l++ {
		if leftKeyReader.isNullAt(l) {
			if j.joinType == LeftJoin {
				leftIndices = append(leftIndices, int64(l))
				rightIndices = append(rightIndices, -1)
			}
			continue
		}
		key := leftKeyReader.scalarAt(l).key()
		matches, ok := buildMap[key]
		if ok {
			for _, rr := range matches {
				leftIndices = append(leftIndices, int64(l))
				rightIndices = append(rightIndices, int64(rr))
			}
		} else if j.joinType == LeftJoin {
			leftIndices = append(leftIndices, int64(l))
			rightIndices = append(rightIndices, -1)
		}
	}

	if len(leftIndices) == 0 {
		return nil, nil
	}

	leftCols, err := takeColumns(ctx, mem, left, leftIndices)
	if err != nil {
		return nil, err
	}
	rightCols, err := takeWithNulls(mem, right, j.rightSchema, rightIndices)
	if err != nil {
		return nil, err
	}

	cols := append(leftCols, rightCols...)
	batch, err := NewBatch(j.outputSchema, cols)
	if err != nil {
		return nil, err
	}
	return []*Batch{batch}, nil
}

// leftOnlyResult handles an empty right side on a Left join: every left
// row emerges once with all right-side columns null.
func (j *HashJoinOperator) leftOnlyResult(mem memory.Allocator, left *Batch) ([]*Batch, error) {
	leftCols := make([]arrow.Array, left.NumColumns())
	for i := 0; i < left.NumColumns(); i++ {
		col, err := left.Column(i)
		if err != nil {
			return nil, err
		}
		leftCols[i] = col
	}
	rightCols := make([]arrow.Array, len(j.rightSchema.Fields))
	for i, f := range j.rightSchema.Fields {
		b := array.NewBuilder(mem, f.Type.ArrowType())
		for r := int64(0); r < left.NumRows(); r++ {
			b.AppendNull()
		}
		rightCols[i] = b.NewArray()
		b.Release()
	}
	cols := append(leftCols, rightCols...)
	batch, err := NewBatch(j.outputSchema, cols)
	if err != nil {
		return nil, err
	}
	return []*Batch{batch}, nil
}

func nonEmptyBatches(batches []*Batch) []*Batch {
	out := make([]*Batch, 0, len(batches))
	for _, b := range batches {
		if !b.IsEmpty() {
			out = append(out, b)
		}
	}
	return out
}

func takeColumns(ctx context.Context, mem memory.Allocator, b *Batch, indices []int64) ([]arrow.Array, error) {
	idxBuilder := array.NewInt64Builder(mem)
	defer idxBuilder.Release()
	for _, idx := range indices {
		idxBuilder.Append(idx)
	}
	idxArr := idxBuilder.NewArray()
	defer idxArr.Release()

	idxDatum := compute.NewDatum(idxArr)
	defer idxDatum.Release()
	recDatum := compute.NewDatum(b.Record())
	defer recDatum.Release()

	result, err := compute.Take(ctx, *compute.DefaultTakeOptions(), recDatum, idxDatum)
	if err != nil {
		return nil, err
	}
	recResult, ok := result.(*compute.RecordDatum)
	if !ok {
		return nil, &SchemaMismatchError{Detail: "take kernel did not return a record"}
	}
	rec := recResult.Value
	cols := make([]arrow.Array, rec.NumCols())
	for i := 0; i < int(rec.NumCols()); i++ {
		cols[i] = rec.Column(i)
	}
	return cols, nil
}

// takeWithNulls gathers rightBatch's columns at the given row indices,
// emitting a null where the index is -1 (no match). Arrow's Take kernel
// has no "take with holes" mode, so this is a per-dtype builder loop
// rather than a compute-kernel call.
func takeWithNulls(mem memory.Allocator, rightBatch *Batch, schema *Schema, indices []int64) ([]arrow.Array, error) {
	cols := make([]arrow.Array, len(schema.Fields))
	for c, f := range schema.Fields {
		srcCol, err := rightBatch.Column(c)
		if err != nil {
			return nil, err
		}
		reader := newColumnReader(srcCol, f.Type)
		b := array.NewBuilder(mem, f.Type.ArrowType())
		for _, idx := range indices {
			if idx < 0 {
				b.AppendNull()
				continue
			}
			appendScalarFromReader(b, reader, int(idx))
		}
		cols[c] = b.NewArray()
		b.Release()
	}
	return cols, nil
}

func appendScalarFromReader(b array.Builder, reader columnReader, row int) {
	v := reader.scalarAt(row)
	appendGroupScalar(b, v)
}
