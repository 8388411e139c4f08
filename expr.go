package kestrel

import "fmt"

// LogicalExpr is the sealed set of expression-tree node types: Column
// reference, typed literal, and binary comparison/boolean combination.
// Each variant is a distinct Go type rather than one discriminated struct,
// dispatched by the evaluator with a type switch.
type LogicalExpr interface {
	isLogicalExpr()
	String() string
}

// ColumnExpr references an input column by name.
type ColumnExpr struct {
	Name string
}

func (*ColumnExpr) isLogicalExpr()   {}
func (c *ColumnExpr) String() string { return c.Name }

// Col builds a column reference expression.
func Col(name string) *ColumnExpr { return &ColumnExpr{Name: name} }

// LiteralExpr is a typed scalar constant, broadcast to the batch's row
// count when evaluated.
type LiteralExpr struct {
	Type DType
	I32  int32
	I64  int64
	F64  float64
	Str  string
	Bool bool
}

func (*LiteralExpr) isLogicalExpr() {}

func (l *LiteralExpr) String() string {
	switch l.Type {
	case Int32:
		return fmt.Sprintf("%d", l.I32)
	case Int64:
		return fmt.Sprintf("%d", l.I64)
	case Float64:
		return fmt.Sprintf("%g", l.F64)
	case String:
		return fmt.Sprintf("%q", l.Str)
	case Boolean:
		return fmt.Sprintf("%t", l.Bool)
	default:
		return "<literal>"
	}
}

// LitInt32 builds an Int32 literal expression.
func LitInt32(v int32) *LiteralExpr { return &LiteralExpr{Type: Int32, I32: v} }

// LitInt64 builds an Int64 literal expression.
func LitInt64(v int64) *LiteralExpr { return &LiteralExpr{Type: Int64, I64: v} }

// LitFloat64 builds a Float64 literal expression.
func LitFloat64(v float64) *LiteralExpr { return &LiteralExpr{Type: Float64, F64: v} }

// LitString builds a String literal expression.
func LitString(v string) *LiteralExpr { return &LiteralExpr{Type: String, Str: v} }

// LitBool builds a Boolean literal expression.
func LitBool(v bool) *LiteralExpr { return &LiteralExpr{Type: Boolean, Bool: v} }

// BinaryOp is the set of comparison and boolean connective operators a
// BinaryExpr may carry.
type BinaryOp uint8

const (
	OpEq BinaryOp = iota
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// BinaryExpr is a comparison or boolean combination of two sub-expressions.
type BinaryExpr struct {
	Left  LogicalExpr
	Op    BinaryOp
	Right LogicalExpr
}

func (*BinaryExpr) isLogicalExpr() {}

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.String(), b.Op.String(), b.Right.String())
}

func binary(left LogicalExpr, op BinaryOp, right LogicalExpr) *BinaryExpr {
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

// Eq builds an equality comparison expression.
func Eq(left, right LogicalExpr) *BinaryExpr { return binary(left, OpEq, right) }

// Neq builds an inequality comparison expression.
func Neq(left, right LogicalExpr) *BinaryExpr { return binary(left, OpNeq, right) }

// Lt builds a less-than comparison expression.
func Lt(left, right LogicalExpr) *BinaryExpr { return binary(left, OpLt, right) }

// Le builds a less-than-or-equal comparison expression.
func Le(left, right LogicalExpr) *BinaryExpr { return binary(left, OpLe, right) }

// Gt builds a greater-than comparison expression.
func Gt(left, right LogicalExpr) *BinaryExpr { return binary(left, OpGt, right) }

// Ge builds a greater-than-or-equal comparison expression.
func Ge(left, right LogicalExpr) *BinaryExpr { return binary(left, OpGe, right) }

// And builds a boolean AND of two predicate expressions.
func And(left, right LogicalExpr) *BinaryExpr { return binary(left, OpAnd, right) }

// Or builds a boolean OR of two predicate expressions.
func Or(left, right LogicalExpr) *BinaryExpr { return binary(left, OpOr, right) }

// Fluent comparison methods on ColumnExpr, mirroring the builder style
// (col("age").Gt(lit_int32(28))) a DataFrame surface would expose.

// Eq builds c == other.
func (c *ColumnExpr) Eq(other LogicalExpr) *BinaryExpr { return Eq(c, other) }

// Neq builds c != other.
func (c *ColumnExpr) Neq(other LogicalExpr) *BinaryExpr { return Neq(c, other) }

// Lt builds c < other.
func (c *ColumnExpr) Lt(other LogicalExpr) *BinaryExpr { return Lt(c, other) }

// Le builds c <= other.
func (c *ColumnExpr) Le(other LogicalExpr) *BinaryExpr { return Le(c, other) }

// Gt builds c > other.
func (c *ColumnExpr) Gt(other LogicalExpr) *BinaryExpr { return Gt(c, other) }

// Ge builds c >= other.
func (c *ColumnExpr) Ge(other LogicalExpr) *BinaryExpr { return Ge(c, other) }

// AggFunc is the set of supported aggregate functions.
type AggFunc uint8

const (
	AggCount AggFunc = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

func (f AggFunc) String() string {
	switch f {
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggAvg:
		return "avg"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	default:
		return "?"
	}
}

// Aggregation describes one output column of an Aggregate plan node.
// Column is empty and HasColumn is false for COUNT(*).
type Aggregation struct {
	Function  AggFunc
	Column    string
	HasColumn bool
	Alias     string
}

// Count builds a COUNT(*) aggregation.
func Count(alias string) Aggregation { return Aggregation{Function: AggCount, Alias: alias} }

// CountColumn builds a COUNT(column) aggregation (non-null count).
func CountColumn(column, alias string) Aggregation {
	return Aggregation{Function: AggCount, Column: column, HasColumn: true, Alias: alias}
}

// Sum builds a SUM(column) aggregation.
func Sum(column, alias string) Aggregation {
	return Aggregation{Function: AggSum, Column: column, HasColumn: true, Alias: alias}
}

// Avg builds an AVG(column) aggregation.
func Avg(column, alias string) Aggregation {
	return Aggregation{Function: AggAvg, Column: column, HasColumn: true, Alias: alias}
}

// Min builds a MIN(column) aggregation.
func Min(column, alias string) Aggregation {
	return Aggregation{Function: AggMin, Column: column, HasColumn: true, Alias: alias}
}

// Max builds a MAX(column) aggregation.
func Max(column, alias string) Aggregation {
	return Aggregation{Function: AggMax, Column: column, HasColumn: true, Alias: alias}
}

// OrderByExpr names a sort key column and its direction.
type OrderByExpr struct {
	Column    string
	Ascending bool
}

// Asc builds an ascending order-by key.
func Asc(column string) OrderByExpr { return OrderByExpr{Column: column, Ascending: true} }

// Desc builds a descending order-by key.
func Desc(column string) OrderByExpr { return OrderByExpr{Column: column, Ascending: false} }

// JoinType selects inner or left-outer join semantics.
type JoinType uint8

const (
	InnerJoin JoinType = iota
	LeftJoin
)

func (j JoinType) String() string {
	if j == LeftJoin {
		return "Left"
	}
	return "Inner"
}
