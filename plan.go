package kestrel

// LogicalPlan is the sealed set of plan-tree node types. Children are
// owned exclusively by their parent; there are no back-edges. Plans are
// pure values: constructing one does no I/O and touches no batches.
type LogicalPlan interface {
	isLogicalPlan()
}

// ScanPlan is a leaf node reading a Parquet file. Projection is nil to
// read every column; non-nil names are read and returned in that order.
type ScanPlan struct {
	Path       string
	Projection []string
	Filters    []LogicalExpr
}

func (*ScanPlan) isLogicalPlan() {}

// ProjectPlan selects a subset of the input's columns, by name, in order.
type ProjectPlan struct {
	Input   LogicalPlan
	Columns []string
}

func (*ProjectPlan) isLogicalPlan() {}

// FilterPlan keeps only the input rows for which Predicate evaluates true.
type FilterPlan struct {
	Input     LogicalPlan
	Predicate LogicalExpr
}

func (*FilterPlan) isLogicalPlan() {}

// AggregatePlan groups the input by GroupBy column values and computes Aggs
// per group.
type AggregatePlan struct {
	Input   LogicalPlan
	GroupBy []string
	Aggs    []Aggregation
}

func (*AggregatePlan) isLogicalPlan() {}

// SortPlan orders the input globally by OrderBy, left-to-right
// (lexicographic).
type SortPlan struct {
	Input   LogicalPlan
	OrderBy []OrderByExpr
}

func (*SortPlan) isLogicalPlan() {}

// JoinPlan equi-joins Left and Right on (LeftKey, RightKey), with Right as
// the hash-build side.
type JoinPlan struct {
	Left, Right      LogicalPlan
	JoinType         JoinType
	LeftKey, RightKey string
}

func (*JoinPlan) isLogicalPlan() {}

// PartialSchema attempts to derive a plan's output schema without fully
// executing it: Scan reads only Parquet metadata, Project/Filter/Sort
// recurse, and Aggregate/Join return SchemaUnavailableError since their
// output depends on data (group keys, join-produced nulls) that only
// execution can determine.
//
// The executor uses this to type a Left join's right-hand columns when the
// right side produces zero batches.
func PartialSchema(plan LogicalPlan) (*Schema, error) {
	switch p := plan.(type) {
	case *ScanPlan:
		full, err := readParquetSchema(p.Path)
		if err != nil {
			return nil, err
		}
		if p.Projection == nil {
			return full, nil
		}
		return projectSchema(full, p.Projection, "Scan")
	case *ProjectPlan:
		inputSchema, err := PartialSchema(p.Input)
		if err != nil {
			return nil, err
		}
		return projectSchema(inputSchema, p.Columns, "Project")
	case *FilterPlan:
		return PartialSchema(p.Input)
	case *SortPlan:
		return PartialSchema(p.Input)
	case *AggregatePlan:
		return nil, &SchemaUnavailableError{PlanKind: "Aggregate"}
	case *JoinPlan:
		return nil, &SchemaUnavailableError{PlanKind: "Join"}
	default:
		return nil, &SchemaUnavailableError{PlanKind: "unknown"}
	}
}

func projectSchema(input *Schema, columns []string, context string) (*Schema, error) {
	fields := make([]Field, len(columns))
	for i, name := range columns {
		idx := input.FieldIndex(name)
		if idx < 0 {
			return nil, &UnknownColumnError{Name: name, Context: context}
		}
		fields[i] = input.Fields[idx]
	}
	return &Schema{Fields: fields}, nil
}
