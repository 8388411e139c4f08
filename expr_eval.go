package kestrel

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// evaluateToArray produces a typed array of length b.NumRows() for expr.
// Column references resolve directly; literals broadcast; a Binary
// expression is evaluated as boolean (the only array type a comparison or
// connective can produce).
func evaluateToArray(ctx context.Context, mem memory.Allocator, b *Batch, expr LogicalExpr) (arrow.Array, error) {
	switch e := expr.(type) {
	case *ColumnExpr:
		arr := b.ColumnByName(e.Name)
		if arr == nil {
			return nil, &UnknownColumnError{Name: e.Name, Context: "expression evaluation"}
		}
		return arr, nil
	case *LiteralExpr:
		return broadcastLiteral(mem, e, int(b.NumRows()))
	case *BinaryExpr:
		return evaluateBoolean(ctx, mem, b, e)
	default:
		return nil, &NonBooleanPredicateError{Detail: "unrecognized expression node"}
	}
}

// evaluateBoolean evaluates expr and requires the result to be boolean,
// returning NonBooleanPredicateError otherwise (a bare column reference or
// a non-boolean literal used directly as a predicate).
func evaluateBoolean(ctx context.Context, mem memory.Allocator, b *Batch, expr LogicalExpr) (*array.Boolean, error) {
	switch e := expr.(type) {
	case *LiteralExpr:
		if e.Type != Boolean {
			return nil, &NonBooleanPredicateError{Detail: "literal is not boolean"}
		}
		arr, err := broadcastLiteral(mem, e, int(b.NumRows()))
		if err != nil {
			return nil, err
		}
		return arr.(*array.Boolean), nil
	case *ColumnExpr:
		arr := b.ColumnByName(e.Name)
		if arr == nil {
			return nil, &UnknownColumnError{Name: e.Name, Context: "expression evaluation"}
		}
		boolArr, ok := arr.(*array.Boolean)
		if !ok {
			return nil, &NonBooleanPredicateError{Detail: "column " + e.Name + " is not boolean"}
		}
		return boolArr, nil
	case *BinaryExpr:
		switch e.Op {
		case OpAnd, OpOr:
			left, err := evaluateBoolean(ctx, mem, b, e.Left)
			if err != nil {
				return nil, err
			}
			right, err := evaluateBoolean(ctx, mem, b, e.Right)
			if err != nil {
				return nil, err
			}
			funcName := "and_kleene"
			if e.Op == OpOr {
				funcName = "or_kleene"
			}
			return callBooleanKernel(ctx, funcName, left, right)
		default:
			left, err := evaluateToArray(ctx, mem, b, e.Left)
			if err != nil {
				return nil, err
			}
			right, err := evaluateToArray(ctx, mem, b, e.Right)
			if err != nil {
				return nil, err
			}
			leftDType, err := dtypeFromArrow(left.DataType(), "<left>", "Filter")
			if err != nil {
				return nil, err
			}
			rightDType, err := dtypeFromArrow(right.DataType(), "<right>", "Filter")
			if err != nil {
				return nil, err
			}
			if leftDType != rightDType {
				return nil, &TypeMismatchError{Op: e.Op.String(), Left: leftDType, Right: rightDType}
			}
			return callComparisonKernel(ctx, comparisonFuncName(e.Op), left, right)
		}
	default:
		return nil, &NonBooleanPredicateError{Detail: "unrecognized expression node"}
	}
}

func comparisonFuncName(op BinaryOp) string {
	switch op {
	case OpEq:
		return "equal"
	case OpNeq:
		return "not_equal"
	case OpLt:
		return "less"
	case OpLe:
		return "less_equal"
	case OpGt:
		return "greater"
	case OpGe:
		return "greater_equal"
	default:
		return ""
	}
}

// callComparisonKernel and callBooleanKernel both route through Arrow's
// compute.CallFunction, so comparisons and boolean connectives dispatch
// dynamically on the operand arrays' types.
func callComparisonKernel(ctx context.Context, funcName string, left, right arrow.Array) (*array.Boolean, error) {
	leftDatum := compute.NewDatum(left)
	defer leftDatum.Release()
	rightDatum := compute.NewDatum(right)
	defer rightDatum.Release()

	result, err := compute.CallFunction(ctx, funcName, nil, leftDatum, rightDatum)
	if err != nil {
		return nil, err
	}
	defer result.Release()
	return datumToBooleanArray(result)
}

func callBooleanKernel(ctx context.Context, funcName string, left, right *array.Boolean) (*array.Boolean, error) {
	leftDatum := compute.NewDatum(left)
	defer leftDatum.Release()
	rightDatum := compute.NewDatum(right)
	defer rightDatum.Release()

	result, err := compute.CallFunction(ctx, funcName, nil, leftDatum, rightDatum)
	if err != nil {
		return nil, err
	}
	defer result.Release()
	return datumToBooleanArray(result)
}

func datumToBooleanArray(result compute.Datum) (*array.Boolean, error) {
	arrDatum, ok := result.(*compute.ArrayDatum)
	if !ok {
		return nil, &NonBooleanPredicateError{Detail: "compute kernel did not return an array"}
	}
	boolArr, ok := arrDatum.MakeArray().(*array.Boolean)
	if !ok {
		return nil, &NonBooleanPredicateError{Detail: "compute kernel did not return a boolean array"}
	}
	return boolArr, nil
}

func broadcastLiteral(mem memory.Allocator, lit *LiteralExpr, length int) (arrow.Array, error) {
	switch lit.Type {
	case Int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		for i := 0; i < length; i++ {
			b.Append(lit.I32)
		}
		return b.NewArray(), nil
	case Int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for i := 0; i < length; i++ {
			b.Append(lit.I64)
		}
		return b.NewArray(), nil
	case Float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for i := 0; i < length; i++ {
			b.Append(lit.F64)
		}
		return b.NewArray(), nil
	case String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for i := 0; i < length; i++ {
			b.Append(lit.Str)
		}
		return b.NewArray(), nil
	case Boolean:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for i := 0; i < length; i++ {
			b.Append(lit.Bool)
		}
		return b.NewArray(), nil
	default:
		return nil, &NonBooleanPredicateError{Detail: "unsupported literal type"}
	}
}
