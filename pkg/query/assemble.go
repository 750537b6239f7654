package query

import "github.com/crudr/crudr/pkg/schema"

// Prefetch asks the store to fetch related child rows in one bulk query per
// relation instead of one query per parent row. The assembler only forwards
// it; relation semantics live in the store.
type Prefetch struct {
	Relation schema.Relation
	Model    *schema.Model // child model registry
}

// Query is the single executable request handed to a store: the compiled
// filter conjunction, ordering, pagination and any prefetch relations for
// one model. Built fresh per request, never mutated afterwards.
type Query struct {
	Model    *schema.Model
	Filter   *Filter
	Order    []OrderSpec
	Page     PageSpec
	Prefetch []Prefetch
}

// Assemble composes the compiled parts into one query. When the request
// supplied no ordering, the handler's default order applies.
func Assemble(model *schema.Model, filter *Filter, order, defaultOrder []OrderSpec, page PageSpec, prefetch ...Prefetch) Query {
	if len(order) == 0 {
		order = defaultOrder
	}
	if filter == nil {
		filter = &Filter{}
	}
	return Query{
		Model:    model,
		Filter:   filter,
		Order:    order,
		Page:     page,
		Prefetch: prefetch,
	}
}
