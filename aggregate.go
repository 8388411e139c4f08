package kestrel

import (
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// AggregateOperator computes a hash-based GROUP BY with COUNT/SUM/AVG/
// MIN/MAX, following the canonical group-key-string algorithm: group rows
// are keyed by a typed, delimited encoding of their group-by values so that
// e.g. an Int32 7 and an Int64 7 never collide.
type AggregateOperator struct {
	groupBy      []string
	groupByIdx   []int
	aggs         []Aggregation
	aggColIdx    []int // -1 for COUNT(*)
	aggColDType  []DType
	outputSchema *Schema
}

// NewAggregateOperator resolves group-by and aggregation column names
// against inputSchema and fixes the output schema: one field per group-by
// column (copied from the input) followed by one field per aggregation
// (Count -> Int64, Sum/Avg/Min/Max -> Float64).
func NewAggregateOperator(groupBy []string, aggs []Aggregation, inputSchema *Schema) (*AggregateOperator, error) {
	groupByIdx := make([]int, len(groupBy))
	fields := make([]Field, 0, len(groupBy)+len(aggs))
	for i, name := range groupBy {
		idx := inputSchema.FieldIndex(name)
		if idx < 0 {
			return nil, &UnknownColumnError{Name: name, Context: "Aggregate"}
		}
		field := inputSchema.Fields[idx]
		if !isSupportedGroupType(field.Type) {
			return nil, &UnsupportedGroupTypeError{Column: name, Type: field.Type}
		}
		groupByIdx[i] = idx
		fields = append(fields, Field{Name: field.Name, Type: field.Type, Nullable: true})
	}

	aggColIdx := make([]int, len(aggs))
	aggColDType := make([]DType, len(aggs))
	for i, agg := range aggs {
		aggColIdx[i] = -1
		if agg.HasColumn {
			idx := inputSchema.FieldIndex(agg.Column)
			if idx < 0 {
				return nil, &UnknownColumnError{Name: agg.Column, Context: "Aggregate"}
			}
			aggColIdx[i] = idx
			aggColDType[i] = inputSchema.Fields[idx].Type
		}
		var dtype DType
		if agg.Function == AggCount {
			dtype = Int64
		} else {
			dtype = Float64
		}
		fields = append(fields, Field{Name: agg.Alias, Type: dtype, Nullable: true})
	}

	return &AggregateOperator{
		groupBy:      groupBy,
		groupByIdx:   groupByIdx,
		aggs:         aggs,
		aggColIdx:    aggColIdx,
		aggColDType:  aggColDType,
		outputSchema: &Schema{Fields: fields},
	}, nil
}

// Schema returns the operator's output schema.
func (a *AggregateOperator) Schema() *Schema { return a.outputSchema }

type groupScalar struct {
	dtype  DType
	isNull bool
	i32    int32
	i64    int64
	f64    float64
	str    string
	b      bool
}

func (g groupScalar) key() string {
	if g.isNull {
		return "null"
	}
	switch g.dtype {
	case Int32:
		return "i32:" + strconv.FormatInt(int64(g.i32), 10)
	case Int64:
		return "i64:" + strconv.FormatInt(g.i64, 10)
	case Float64:
		return "f64:" + strconv.FormatFloat(g.f64, 'g', -1, 64)
	case String:
		return "str:" + g.str
	case Boolean:
		return "bool:" + strconv.FormatBool(g.b)
	default:
		return "null"
	}
}

type aggAccum struct {
	count    int64
	sum      float64
	avgSum   float64
	avgCount int64
	min      float64
	max      float64
}

func newAggAccum() aggAccum {
	return aggAccum{min: math.Inf(1), max: math.Inf(-1)}
}

type groupEntry struct {
	values []groupScalar
	states []aggAccum
}

// ExecuteMany runs the full hash-aggregation algorithm over all input
// batches and returns exactly one output batch, even when there is no
// input: in that case the output has zero rows but is correctly typed.
func (a *AggregateOperator) ExecuteMany(mem memory.Allocator, batches []*Batch) ([]*Batch, error) {
	groups := make(map[string]*groupEntry)
	order := make([]string, 0)

	for _, batch := range batches {
		if batch.IsEmpty() {
			continue
		}
		groupCols := make([]columnReader, len(a.groupByIdx))
		for i, idx := range a.groupByIdx {
			col, err := batch.Column(idx)
			if err != nil {
				return nil, err
			}
			groupCols[i] = newColumnReader(col, a.outputSchema.Fields[i].Type)
		}
		aggCols := make([]columnReader, len(a.aggs))
		for i, idx := range a.aggColIdx {
			if idx < 0 {
				continue
			}
			col, err := batch.Column(idx)
			if err != nil {
				return nil, err
			}
			aggCols[i] = newColumnReader(col, a.aggColDType[i])
		}

		for row := 0; row < int(batch.NumRows()); row++ {
			values := make([]groupScalar, len(groupCols))
			var key strings.Builder
			for i, gc := range groupCols {
				v := gc.scalarAt(row)
				values[i] = v
				if i > 0 {
					key.WriteByte('|')
				}
				key.WriteString(v.key())
			}
			keyStr := key.String()

			entry, ok := groups[keyStr]
			if !ok {
				states := make([]aggAccum, len(a.aggs))
				for i := range states {
					states[i] = newAggAccum()
				}
				entry = &groupEntry{values: values, states: states}
				groups[keyStr] = entry
				order = append(order, keyStr)
			}

			for i, agg := range a.aggs {
				st := &entry.states[i]
				switch agg.Function {
				case AggCount:
					if !agg.HasColumn {
						st.count++
					} else if aggCols[i] != nil && !aggCols[i].isNullAt(row) {
						st.count++
					}
				case AggSum, AggAvg, AggMin, AggMax:
					if aggCols[i] == nil || !a.aggColDType[i].IsNumeric() {
						continue
					}
					if aggCols[i].isNullAt(row) {
						continue
					}
					v := aggCols[i].numericAt(row)
					switch agg.Function {
					case AggSum:
						st.sum += v
					case AggAvg:
						st.avgSum += v
						st.avgCount++
					case AggMin:
						if v < st.min {
							st.min = v
						}
					case AggMax:
						if v > st.max {
							st.max = v
						}
					}
				}
			}
		}
	}

	batch, err := a.buildOutput(mem, groups, order)
	if err != nil {
		return nil, err
	}
	return []*Batch{batch}, nil
}

func (a *AggregateOperator) buildOutput(mem memory.Allocator, groups map[string]*groupEntry, order []string) (*Batch, error) {
	numGroupCols := len(a.groupBy)
	builders := make([]array.Builder, len(a.outputSchema.Fields))
	for i, f := range a.outputSchema.Fields {
		builders[i] = array.NewBuilder(mem, f.Type.ArrowType())
	}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, key := range order {
		entry := groups[key]
		for i, v := range entry.values {
			appendGroupScalar(builders[i], v)
		}
		for i, agg := range a.aggs {
			st := entry.states[i]
			b := builders[numGroupCols+i]
			switch agg.Function {
			case AggCount:
				b.(*array.Int64Builder).Append(st.count)
			case AggSum:
				b.(*array.Float64Builder).Append(st.sum)
			case AggAvg:
				if st.avgCount > 0 {
					b.(*array.Float64Builder).Append(st.avgSum / float64(st.avgCount))
				} else {
					b.AppendNull()
				}
			case AggMin:
				if !math.IsInf(st.min, 1) {
					b.(*array.Float64Builder).Append(st.min)
				} else {
					b.AppendNull()
				}
			case AggMax:
				if !math.IsInf(st.max, -1) {
					b.(*array.Float64Builder).Append(st.max)
				} else {
					b.AppendNull()
				}
			}
		}
	}

	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.NewArray()
	}
	return NewBatch(a.outputSchema, arrays)
}

func appendGroupScalar(b array.Builder, v groupScalar) {
	if v.isNull {
		b.AppendNull()
		return
	}
	switch v.dtype {
	case Int32:
		b.(*array.Int32Builder).Append(v.i32)
	case Int64:
		b.(*array.Int64Builder).Append(v.i64)
	case Float64:
		b.(*array.Float64Builder).Append(v.f64)
	case String:
		b.(*array.StringBuilder).Append(v.str)
	case Boolean:
		b.(*array.BooleanBuilder).Append(v.b)
	}
}

func isSupportedGroupType(d DType) bool {
	switch d {
	case Int32, Int64, Float64, String, Boolean:
		return true
	default:
		return false
	}
}
