package kestrel

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/parquet-go/parquet-go"
	"golang.org/x/sync/errgroup"
)

// ScanConfig configures a Parquet scan.
type ScanConfig struct {
	// Parallel enables row-group-level concurrent decoding.
	Parallel bool
	// ColumnIndices, when non-nil, restricts decoding to these leaf column
	// positions (in the Parquet file's own column order).
	ColumnIndices []int
	// BatchSize bounds how many rows are buffered per ReadRows call.
	BatchSize int
}

// DefaultScanConfig returns the engine's default scan configuration:
// parallel row-group decode, no column pruning, an 8192-row read buffer.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{Parallel: true, BatchSize: 8192}
}

// ParquetScan reads a single Parquet file into batches, with optional
// column pruning and parallel row-group decode.
type ParquetScan struct {
	path       string
	projection []string
	config     ScanConfig
	schema     *Schema
	colIndices []int // leaf column index in file, one per output field
}

// NewParquetScan opens path, reads its schema, and resolves projection
// against it. A nil projection reads the leaf columns listed in
// config.ColumnIndices, in that order, or every column in file order when
// ColumnIndices is nil too.
func NewParquetScan(path string, projection []string, config ScanConfig) (*ParquetScan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, &ParquetDecodeError{Path: path, Err: err}
	}

	fileFields := pf.Schema().Fields()
	fileIndex := make(map[string]int, len(fileFields))
	for i, f := range fileFields {
		fileIndex[f.Name()] = i
	}

	var names []string
	switch {
	case projection != nil:
		names = projection
	case config.ColumnIndices != nil:
		// No name-based projection: resolve pruning from config.ColumnIndices
		// directly, decoding only those leaf columns, in the given order.
		names = make([]string, len(config.ColumnIndices))
		for i, idx := range config.ColumnIndices {
			if idx < 0 || idx >= len(fileFields) {
				return nil, &UnknownColumnError{Name: fmt.Sprintf("column index %d", idx), Context: "Scan"}
			}
			names[i] = fileFields[idx].Name()
		}
	default:
		names = make([]string, len(fileFields))
		for i, f := range fileFields {
			names[i] = f.Name()
		}
	}

	fields := make([]Field, len(names))
	colIndices := make([]int, len(names))
	for i, name := range names {
		idx, ok := fileIndex[name]
		if !ok {
			return nil, &UnknownColumnError{Name: name, Context: "Scan"}
		}
		colIndices[i] = idx
		leaf := fileFields[idx]
		dtype, err := parquetLeafToDType(leaf)
		if err != nil {
			return nil, &UnsupportedTypeError{Column: name, Arrow: err.Error(), Context: "Scan"}
		}
		fields[i] = Field{Name: name, Type: dtype, Nullable: leaf.Optional()}
	}

	return &ParquetScan{
		path:       path,
		projection: projection,
		config:     config,
		schema:     &Schema{Fields: fields},
		colIndices: colIndices,
	}, nil
}

// Schema returns the scan's output schema (after projection).
func (s *ParquetScan) Schema() *Schema { return s.schema }

// ScanMetadata reports row-group count and total row count, without
// decoding any row data.
type ScanMetadata struct {
	NumRowGroups int
	NumRows      int64
}

// Metadata opens the file again to report row-group and row counts; cheap
// relative to a full decode since it reads only Parquet footer metadata.
func (s *ParquetScan) Metadata() (ScanMetadata, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return ScanMetadata{}, &IoError{Path: s.path, Err: err}
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return ScanMetadata{}, &IoError{Path: s.path, Err: err}
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return ScanMetadata{}, &ParquetDecodeError{Path: s.path, Err: err}
	}
	return ScanMetadata{NumRowGroups: len(pf.RowGroups()), NumRows: pf.NumRows()}, nil
}

// ReadAll decodes the entire file into batches. When the scan is configured
// for parallel decode and the file has more than one row group, row groups
// are decoded concurrently on an errgroup worker pool (each worker opening
// its own file handle) and reassembled in row-group order: the global
// batch order is always row-group order, regardless of which worker
// finishes first.
func (s *ParquetScan) ReadAll(ctx context.Context) ([]*Batch, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &IoError{Path: s.path, Err: err}
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, &IoError{Path: s.path, Err: err}
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, &ParquetDecodeError{Path: s.path, Err: err}
	}

	rowGroups := pf.RowGroups()
	if len(rowGroups) == 0 {
		return nil, nil
	}

	if s.config.Parallel && len(rowGroups) > 1 {
		return s.readParallel(ctx, len(rowGroups))
	}
	return s.readSequential(rowGroups)
}

func (s *ParquetScan) readSequential(rowGroups []parquet.RowGroup) ([]*Batch, error) {
	mem := memory.NewGoAllocator()
	batches := make([]*Batch, 0, len(rowGroups))
	for _, rg := range rowGroups {
		b, err := s.decodeRowGroup(mem, rg)
		if err != nil {
			return nil, err
		}
		if b != nil {
			batches = append(batches, b)
		}
	}
	return batches, nil
}

// readParallel opens one independent file handle per worker and decodes
// each row group in its own goroutine; results are written into a
// pre-sized, index-addressed slice so the final order matches the file's
// row-group order regardless of completion order (errgroup only guards
// error propagation, not ordering).
func (s *ParquetScan) readParallel(ctx context.Context, numRowGroups int) ([]*Batch, error) {
	results := make([]*Batch, numRowGroups)

	g, ctx := errgroup.WithContext(ctx)
	for idx := 0; idx < numRowGroups; idx++ {
		idx := idx
		g.Go(func() error {
			f, err := os.Open(s.path)
			if err != nil {
				return &IoError{Path: s.path, Err: err}
			}
			defer f.Close()
			stat, err := f.Stat()
			if err != nil {
				return &IoError{Path: s.path, Err: err}
			}
			pf, err := parquet.OpenFile(f, stat.Size())
			if err != nil {
				return &ParquetDecodeError{Path: s.path, Err: err}
			}
			rg := pf.RowGroups()[idx]
			mem := memory.NewGoAllocator()
			b, err := s.decodeRowGroup(mem, rg)
			if err != nil {
				return err
			}
			results[idx] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batches := make([]*Batch, 0, numRowGroups)
	for _, b := range results {
		if b != nil {
			batches = append(batches, b)
		}
	}
	return batches, nil
}

func (s *ParquetScan) decodeRowGroup(mem memory.Allocator, rg parquet.RowGroup) (*Batch, error) {
	builders := make([]array.Builder, len(s.schema.Fields))
	for i, f := range s.schema.Fields {
		builders[i] = array.NewBuilder(mem, f.Type.ArrowType())
	}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = 8192
	}

	rows := rg.Rows()
	defer rows.Close()

	rowBuf := make([]parquet.Row, batchSize)
	for {
		n, err := rows.ReadRows(rowBuf)
		if n > 0 {
			for _, row := range rowBuf[:n] {
				for i, leafIdx := range s.colIndices {
					var val parquet.Value
					if leafIdx < len(row) {
						val = row[leafIdx]
					}
					if err := appendParquetValue(builders[i], s.schema.Fields[i].Type, val); err != nil {
						return nil, err
					}
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParquetDecodeError{Path: s.path, Err: err}
		}
		if n == 0 {
			break
		}
	}

	cols := make([]arrow.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.NewArray()
	}
	return NewBatch(s.schema, cols)
}

func parquetLeafToDType(field parquet.Field) (DType, error) {
	t := field.Type()
	if t == nil {
		return 0, fmt.Errorf("parquet field %q has no type", field.Name())
	}
	switch t.Kind() {
	case parquet.Boolean:
		return Boolean, nil
	case parquet.Int32:
		return Int32, nil
	case parquet.Int64:
		return Int64, nil
	case parquet.Double:
		return Float64, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return String, nil
	default:
		return 0, fmt.Errorf("%s", t.String())
	}
}

func appendParquetValue(b array.Builder, dtype DType, val parquet.Value) error {
	if val.IsNull() {
		b.AppendNull()
		return nil
	}
	switch dtype {
	case Int32:
		b.(*array.Int32Builder).Append(val.Int32())
	case Int64:
		b.(*array.Int64Builder).Append(val.Int64())
	case Float64:
		b.(*array.Float64Builder).Append(val.Double())
	case Boolean:
		b.(*array.BooleanBuilder).Append(val.Boolean())
	case String:
		b.(*array.StringBuilder).Append(string(val.ByteArray()))
	default:
		return fmt.Errorf("kestrel: unreachable dtype in parquet decode")
	}
	return nil
}

// readParquetSchema opens path and returns its full Arrow-compatible
// schema, used by the executor's partial-schema oracle for Scan nodes.
func readParquetSchema(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	defer f.Close()
	stat, err := f.Stat()
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, &ParquetDecodeError{Path: path, Err: err}
	}
	fileFields := pf.Schema().Fields()
	fields := make([]Field, len(fileFields))
	for i, fl := range fileFields {
		dtype, err := parquetLeafToDType(fl)
		if err != nil {
			return nil, &UnsupportedTypeError{Column: fl.Name(), Arrow: err.Error(), Context: "Scan"}
		}
		fields[i] = Field{Name: fl.Name(), Type: dtype, Nullable: fl.Optional()}
	}
	return &Schema{Fields: fields}, nil
}
