package kestrel

import "fmt"

// IoError wraps a failure to open or read a source file.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string { return fmt.Sprintf("io error reading %q: %v", e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// ParquetDecodeError reports a malformed file or a decode-kernel failure.
type ParquetDecodeError struct {
	Path string
	Err  error
}

func (e *ParquetDecodeError) Error() string {
	return fmt.Sprintf("parquet decode error in %q: %v", e.Path, e.Err)
}
func (e *ParquetDecodeError) Unwrap() error { return e.Err }

// UnsupportedTypeError reports a column dtype outside the supported set.
type UnsupportedTypeError struct {
	Column  string
	Arrow   string
	Context string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("%s: column %q has unsupported type %s", e.Context, e.Column, e.Arrow)
}

// UnknownColumnError reports a name not found in an input schema.
type UnknownColumnError struct {
	Name    string
	Context string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("%s: unknown column %q", e.Context, e.Name)
}

// TypeMismatchError reports disagreeing operand types in a binary expression.
type TypeMismatchError struct {
	Op          string
	Left, Right DType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch in %s: %s vs %s", e.Op, e.Left, e.Right)
}

// NonBooleanPredicateError reports a predicate that does not evaluate to boolean.
type NonBooleanPredicateError struct {
	Detail string
}

func (e *NonBooleanPredicateError) Error() string {
	return fmt.Sprintf("predicate is not boolean-valued: %s", e.Detail)
}

// SchemaMismatchError reports a column count or dtype disagreement against a schema.
type SchemaMismatchError struct {
	Detail string
}

func (e *SchemaMismatchError) Error() string { return fmt.Sprintf("schema mismatch: %s", e.Detail) }

// ColumnLengthMismatchError reports columns of unequal length passed to a batch constructor.
type ColumnLengthMismatchError struct {
	Index    int
	Expected int
	Got      int
}

func (e *ColumnLengthMismatchError) Error() string {
	return fmt.Sprintf("column %d has length %d, expected %d", e.Index, e.Got, e.Expected)
}

// SchemaUnavailableError is returned by the executor's partial-schema oracle
// when the requested plan node's output schema requires full execution.
type SchemaUnavailableError struct {
	PlanKind string
}

func (e *SchemaUnavailableError) Error() string {
	return fmt.Sprintf("schema not available for %s without execution", e.PlanKind)
}

// UnsupportedGroupTypeError reports a group-by column outside the supported DType set.
type UnsupportedGroupTypeError struct {
	Column string
	Type   DType
}

func (e *UnsupportedGroupTypeError) Error() string {
	return fmt.Sprintf("column %q has unsupported group-by type %s", e.Column, e.Type)
}

// UnsupportedJoinKeyTypeError reports a join key column outside the supported DType set.
type UnsupportedJoinKeyTypeError struct {
	Column string
	Type   DType
}

func (e *UnsupportedJoinKeyTypeError) Error() string {
	return fmt.Sprintf("column %q has unsupported join key type %s", e.Column, e.Type)
}
