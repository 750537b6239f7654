// Package store defines the storage collaborator contract the REST layer
// executes assembled queries against.
package store

import (
	"context"
	"errors"

	"github.com/crudr/crudr/pkg/query"
	"github.com/crudr/crudr/pkg/schema"
)

// ErrNotFound reports a missed item lookup. Handlers map it to 404.
var ErrNotFound = errors.New("item not found")

// Store executes assembled queries and item-level CRUD against a backend.
// Implementations run requests concurrently without coordination from the
// engine; retry policy, if any, is theirs.
type Store interface {
	// Select returns the rows matching q, with any prefetch relations
	// attached to each row under the relation name.
	Select(ctx context.Context, q query.Query) ([]map[string]any, error)
	// Count returns the total number of rows matching q's filter,
	// ignoring pagination.
	Count(ctx context.Context, q query.Query) (int64, error)

	Get(ctx context.Context, m *schema.Model, id any) (map[string]any, error)
	Insert(ctx context.Context, m *schema.Model, data map[string]any) (map[string]any, error)
	Update(ctx context.Context, m *schema.Model, id any, data map[string]any) (map[string]any, error)
	Delete(ctx context.Context, m *schema.Model, id any) error
}
