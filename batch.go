package kestrel

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Batch is a columnar chunk: a schema plus equal-length typed arrays.
// It is immutable after construction; every operation below returns a new
// Batch rather than mutating the receiver.
type Batch struct {
	schema  *Schema
	record  arrow.Record
	numRows int64
}

// NewBatch validates and constructs a Batch from a schema and a set of
// columns, enforcing the three invariants this engine requires of every
// batch: matching column/field count, uniform column length, and
// column-dtype-to-schema-field-type agreement.
func NewBatch(schema *Schema, columns []arrow.Array) (*Batch, error) {
	if len(columns) != len(schema.Fields) {
		return nil, &SchemaMismatchError{Detail: "column count does not match schema field count"}
	}
	var numRows int64 = -1
	if len(columns) > 0 {
		numRows = int64(columns[0].Len())
	} else {
		numRows = 0
	}
	for i, col := range columns {
		if int64(col.Len()) != numRows {
			return nil, &ColumnLengthMismatchError{Index: i, Expected: int(numRows), Got: col.Len()}
		}
		field := schema.Fields[i]
		gotDType, err := dtypeFromArrow(col.DataType(), field.Name, "Batch construction")
		if err != nil {
			return nil, err
		}
		if gotDType != field.Type {
			return nil, &SchemaMismatchError{Detail: "column " + field.Name + " has type " + gotDType.String() + ", schema declares " + field.Type.String()}
		}
	}
	rec := array.NewRecord(schema.ArrowSchema(), columns, numRows)
	return &Batch{schema: schema, record: rec, numRows: numRows}, nil
}

// NewBatchFromRecord adapts an arrow.Record produced outside this package
// (e.g. by the Parquet scan or the Arrow compute kernels) into a Batch,
// validating that every field is within the supported DType set.
func NewBatchFromRecord(rec arrow.Record) (*Batch, error) {
	schema, err := schemaFromArrow(rec.Schema(), "Batch construction")
	if err != nil {
		return nil, err
	}
	return &Batch{schema: schema, record: rec, numRows: rec.NumRows()}, nil
}

// Schema returns the batch's schema.
func (b *Batch) Schema() *Schema { return b.schema }

// Record returns the underlying arrow.Record, for interop with Arrow
// compute kernels.
func (b *Batch) Record() arrow.Record { return b.record }

// NumRows returns the number of rows in the batch.
func (b *Batch) NumRows() int64 { return b.numRows }

// NumColumns returns the number of columns in the batch.
func (b *Batch) NumColumns() int { return len(b.schema.Fields) }

// IsEmpty reports whether the batch has zero rows.
func (b *Batch) IsEmpty() bool { return b.numRows == 0 }

// Column returns the array at index i, erroring if out of range.
func (b *Batch) Column(i int) (arrow.Array, error) {
	if i < 0 || i >= len(b.schema.Fields) {
		return nil, &SchemaMismatchError{Detail: "column index out of range"}
	}
	return b.record.Column(i), nil
}

// ColumnByName returns the array named name, or nil if absent. A missing
// name is not an error; callers distinguish "absent" from "present but
// empty".
func (b *Batch) ColumnByName(name string) arrow.Array {
	idx := b.schema.FieldIndex(name)
	if idx < 0 {
		return nil
	}
	return b.record.Column(idx)
}

// SelectColumns projects the batch onto the given column indices, in the
// supplied order; the schema is reordered to match.
func (b *Batch) SelectColumns(indices []int) (*Batch, error) {
	schema, err := b.schema.Select(indices)
	if err != nil {
		return nil, err
	}
	cols := make([]arrow.Array, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(b.schema.Fields) {
			return nil, &SchemaMismatchError{Detail: "select index out of range"}
		}
		cols[i] = b.record.Column(idx)
	}
	rec := array.NewRecord(schema.ArrowSchema(), cols, b.numRows)
	return &Batch{schema: schema, record: rec, numRows: b.numRows}, nil
}

// SelectColumnsByName projects the batch onto the named columns, resolving
// each name to an index against the current schema.
func (b *Batch) SelectColumnsByName(names []string) (*Batch, error) {
	indices := make([]int, len(names))
	for i, name := range names {
		idx := b.schema.FieldIndex(name)
		if idx < 0 {
			return nil, &UnknownColumnError{Name: name, Context: "select_columns_by_name"}
		}
		indices[i] = idx
	}
	return b.SelectColumns(indices)
}

// Slice returns the sub-batch [offset, offset+length), erroring if the
// range runs past the end of the batch.
func (b *Batch) Slice(offset, length int64) (*Batch, error) {
	if offset+length > b.numRows {
		return nil, &SchemaMismatchError{Detail: "slice range exceeds batch length"}
	}
	rec := b.record.NewSlice(offset, offset+length)
	return &Batch{schema: b.schema, record: rec, numRows: length}, nil
}

// ConcatBatches concatenates batches in order, erroring on an empty input
// list or on a schema mismatch between any two batches. The output schema
// equals the first batch's schema.
func ConcatBatches(mem memory.Allocator, batches []*Batch) (*Batch, error) {
	if len(batches) == 0 {
		return nil, &SchemaMismatchError{Detail: "concat requires at least one batch"}
	}
	if len(batches) == 1 {
		return batches[0], nil
	}
	schema := batches[0].schema
	for _, b := range batches[1:] {
		if !b.schema.Equal(schema) {
			return nil, &SchemaMismatchError{Detail: "concat requires identical schemas across all batches"}
		}
	}
	numCols := len(schema.Fields)
	cols := make([]arrow.Array, numCols)
	var totalRows int64
	for _, b := range batches {
		totalRows += b.numRows
	}
	for c := 0; c < numCols; c++ {
		parts := make([]arrow.Array, len(batches))
		for i, b := range batches {
			parts[i] = b.record.Column(c)
		}
		arr, err := array.Concatenate(parts, mem)
		if err != nil {
			return nil, err
		}
		cols[c] = arr
	}
	rec := array.NewRecord(schema.ArrowSchema(), cols, totalRows)
	return &Batch{schema: schema, record: rec, numRows: totalRows}, nil
}

// EmptyBatch builds a zero-row batch conforming to schema, with correctly
// typed empty columns for every field.
func EmptyBatch(mem memory.Allocator, schema *Schema) (*Batch, error) {
	cols := make([]arrow.Array, len(schema.Fields))
	for i, f := range schema.Fields {
		b := array.NewBuilder(mem, f.Type.ArrowType())
		cols[i] = b.NewArray()
		b.Release()
	}
	return NewBatch(schema, cols)
}
