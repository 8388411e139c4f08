package kestrel

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Field is a single named, typed, nullable column descriptor.
type Field struct {
	Name     string
	Type     DType
	Nullable bool
}

// Schema is an ordered list of fields. Equality between schemas is
// structural (field-by-field), not pointer identity.
type Schema struct {
	Fields []Field
}

// NewSchema builds a schema from the given fields, in order.
func NewSchema(fields ...Field) *Schema {
	return &Schema{Fields: fields}
}

// FieldIndex returns the position of name in the schema, or -1 if absent.
func (s *Schema) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Field returns the field at index i.
func (s *Schema) Field(i int) Field { return s.Fields[i] }

// NumFields returns the number of fields in the schema.
func (s *Schema) NumFields() int { return len(s.Fields) }

// Equal reports whether two schemas have the same fields in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range s.Fields {
		g := o.Fields[i]
		if f.Name != g.Name || f.Type != g.Type || f.Nullable != g.Nullable {
			return false
		}
	}
	return true
}

// Select returns a new schema containing only the fields at the given
// indices, in the order supplied.
func (s *Schema) Select(indices []int) (*Schema, error) {
	fields := make([]Field, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(s.Fields) {
			return nil, &SchemaMismatchError{Detail: "select index out of range"}
		}
		fields[i] = s.Fields[idx]
	}
	return &Schema{Fields: fields}, nil
}

// ArrowSchema converts this schema to an *arrow.Schema.
func (s *Schema) ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = arrow.Field{Name: f.Name, Type: f.Type.ArrowType(), Nullable: f.Nullable}
	}
	return arrow.NewSchema(fields, nil)
}

// schemaFromArrow converts an *arrow.Schema to a Schema, rejecting any field
// whose type is outside the supported DType set.
func schemaFromArrow(as *arrow.Schema, context string) (*Schema, error) {
	fields := make([]Field, as.NumFields())
	for i, af := range as.Fields() {
		dt, err := dtypeFromArrow(af.Type, af.Name, context)
		if err != nil {
			return nil, err
		}
		fields[i] = Field{Name: af.Name, Type: dt, Nullable: af.Nullable}
	}
	return &Schema{Fields: fields}, nil
}

func (s *Schema) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Type.String())
	}
	b.WriteByte(']')
	return b.String()
}
