package kestrel

// ProjectOperator selects a subset of columns by name, resolved to indices
// once at construction.
type ProjectOperator struct {
	columnIndices []int
	outputSchema  *Schema
}

// NewProjectOperator resolves columnNames against inputSchema, returning
// UnknownColumnError on any miss.
func NewProjectOperator(columnNames []string, inputSchema *Schema) (*ProjectOperator, error) {
	indices := make([]int, len(columnNames))
	for i, name := range columnNames {
		idx := inputSchema.FieldIndex(name)
		if idx < 0 {
			return nil, &UnknownColumnError{Name: name, Context: "Project"}
		}
		indices[i] = idx
	}
	schema, err := inputSchema.Select(indices)
	if err != nil {
		return nil, err
	}
	return &ProjectOperator{columnIndices: indices, outputSchema: schema}, nil
}

// Schema returns the operator's output schema.
func (p *ProjectOperator) Schema() *Schema { return p.outputSchema }

// Execute delegates directly to the batch's vectorized column selection.
func (p *ProjectOperator) Execute(b *Batch) (*Batch, error) {
	return b.SelectColumns(p.columnIndices)
}
