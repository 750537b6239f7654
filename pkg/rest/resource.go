package rest

import (
	"fmt"
	"time"

	"github.com/crudr/crudr/pkg/query"
	"github.com/crudr/crudr/pkg/schema"
)

// ResourceOptions configure one registered model. The struct is consumed at
// registration time; defaults are compiled once and shared read-only across
// requests.
type ResourceOptions struct {
	// DefaultFilter holds statically declared filter tokens, e.g.
	// {"tf_integer__gt": "0"}. They are combined with request filters as a
	// strict AND: a request token never overrides a default.
	DefaultFilter map[string]string
	// DefaultOrder applies only when the request carries no order_by, e.g.
	// []string{"tf_text", "-tf_integer"}.
	DefaultOrder []string

	DefaultLimit int
	MaxLimit     int

	// Capability flags. An operation invoked on a resource without the
	// capability yields 405.
	SupportsCreate bool
	SupportsUpdate bool
	SupportsDelete bool

	// RequiredFields must be present in create bodies.
	RequiredFields []string

	// TotalCacheTTL memoizes total counts for this long. Zero disables the
	// cache and every total is counted fresh.
	TotalCacheTTL time.Duration
}

// Resource is one mounted model with its compiled configuration.
type Resource struct {
	Model *schema.Model

	opts          ResourceOptions
	defaultFilter *query.Filter
	defaultOrder  []query.OrderSpec
	pageOpts      query.PageOptions
	totals        *totalsCache
}

func newResource(model *schema.Model, opts ResourceOptions) (*Resource, error) {
	res := &Resource{
		Model: model,
		opts:  opts,
		pageOpts: query.PageOptions{
			DefaultLimit: opts.DefaultLimit,
			MaxLimit:     opts.MaxLimit,
		},
	}
	if opts.TotalCacheTTL > 0 {
		res.totals = newTotalsCache(opts.TotalCacheTTL)
	}

	if len(opts.DefaultFilter) > 0 {
		f, err := query.CompileDefaults(model, opts.DefaultFilter)
		if err != nil {
			return nil, fmt.Errorf("resource %s: default filter: %w", model.Name, err)
		}
		res.defaultFilter = f
	}
	for _, segment := range opts.DefaultOrder {
		specs, err := query.CompileOrder(model, segment)
		if err != nil {
			return nil, fmt.Errorf("resource %s: default order %q: %w", model.Name, segment, err)
		}
		res.defaultOrder = append(res.defaultOrder, specs...)
	}
	return res, nil
}
