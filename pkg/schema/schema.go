// Package schema holds the field registry: per-model metadata mapping field
// names to their semantic kind and nullability. The query engine validates
// and coerces incoming filter/order tokens against it. Registries are built
// once at model-registration time and never mutated afterwards.
package schema

import "fmt"

// FieldKind is the semantic type of a model field.
type FieldKind string

const (
	KindText       FieldKind = "text"
	KindInteger    FieldKind = "integer"
	KindDatetime   FieldKind = "datetime"
	KindBoolean    FieldKind = "boolean"
	KindForeignKey FieldKind = "foreign_key"
)

// FieldSpec describes one field of a model.
type FieldSpec struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Nullable bool      `json:"nullable"`
}

// Relation declares a child model whose rows reference this model through a
// foreign key. List handlers use it to prefetch related rows in bulk.
type Relation struct {
	Name    string `json:"name"`     // key under which children appear in responses
	Model   string `json:"model"`    // child model name
	FKField string `json:"fk_field"` // field on the child holding the parent id
}

// Registry exposes the fields of one model.
type Registry interface {
	Fields() map[string]FieldSpec
	Field(name string) (FieldSpec, bool)
}

// Model is a registered data model: its table identity plus its field
// registry. Immutable after construction.
type Model struct {
	Name      string     // resource name used in URLs
	Schema    string     // database schema, defaults to "public"
	Table     string     // table name, defaults to Name
	IDField   string     // primary key field, defaults to "id"
	Relations []Relation // prefetch relations

	fields map[string]FieldSpec
}

// NewModel builds a model registry from field specs. Field names must be
// unique; the id field is added implicitly when not declared.
func NewModel(name string, fields []FieldSpec, opts ...ModelOption) (*Model, error) {
	m := &Model{
		Name:    name,
		Schema:  "public",
		Table:   name,
		IDField: "id",
		fields:  make(map[string]FieldSpec, len(fields)+1),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("model %s: field with empty name", name)
		}
		if _, dup := m.fields[f.Name]; dup {
			return nil, fmt.Errorf("model %s: duplicate field %s", name, f.Name)
		}
		m.fields[f.Name] = f
	}

	if _, ok := m.fields[m.IDField]; !ok {
		m.fields[m.IDField] = FieldSpec{Name: m.IDField, Kind: KindInteger}
	}
	return m, nil
}

// MustNewModel is NewModel panicking on error, for static declarations.
func MustNewModel(name string, fields []FieldSpec, opts ...ModelOption) *Model {
	m, err := NewModel(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// ModelOption configures a Model at construction.
type ModelOption func(*Model)

func WithSchema(schema string) ModelOption { return func(m *Model) { m.Schema = schema } }
func WithTable(table string) ModelOption   { return func(m *Model) { m.Table = table } }
func WithIDField(field string) ModelOption { return func(m *Model) { m.IDField = field } }

func WithRelation(rel Relation) ModelOption {
	return func(m *Model) { m.Relations = append(m.Relations, rel) }
}

// Fields returns a copy of the field registry.
func (m *Model) Fields() map[string]FieldSpec {
	out := make(map[string]FieldSpec, len(m.fields))
	for k, v := range m.fields {
		out[k] = v
	}
	return out
}

// Field looks up a single field spec by name.
func (m *Model) Field(name string) (FieldSpec, bool) {
	f, ok := m.fields[name]
	return f, ok
}

func (m *Model) FullTableName() string {
	return fmt.Sprintf("%s.%s", m.Schema, m.Table)
}
