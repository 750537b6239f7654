package query

import (
	"net/http"
	"strconv"
)

// PageOptions bound pagination for one resource.
type PageOptions struct {
	DefaultLimit int
	MaxLimit     int
}

// DefaultPageOptions mirror the typical list handler configuration.
func DefaultPageOptions() PageOptions {
	return PageOptions{DefaultLimit: 20, MaxLimit: 100}
}

// PageSpec is the resolved pagination for one request.
type PageSpec struct {
	Limit        int
	Offset       int
	ComputeTotal bool
}

// ResolvePage reads limit and offset from the request. Both must be
// non-negative integers; anything else fails with ErrBadQuery. A limit above
// the configured maximum is clamped silently rather than rejected, so
// clients asking for "everything" get the largest page the server allows.
//
// A total count is computed when the method is HEAD, when a total query
// parameter is present (any value, including empty), or when an X-Total
// request header is present (any value, including empty).
func ResolvePage(r *http.Request, opts PageOptions) (PageSpec, error) {
	if opts.DefaultLimit == 0 && opts.MaxLimit == 0 {
		opts = DefaultPageOptions()
	}

	values := r.URL.Query()
	spec := PageSpec{Limit: opts.DefaultLimit}

	// A present-but-empty value is a parse failure, not an absent parameter.
	if raw, ok := values["limit"]; ok {
		n, err := strconv.Atoi(raw[0])
		if err != nil || n < 0 {
			return PageSpec{}, ErrBadQuery
		}
		spec.Limit = n
	}
	if opts.MaxLimit > 0 && spec.Limit > opts.MaxLimit {
		spec.Limit = opts.MaxLimit
	}

	if raw, ok := values["offset"]; ok {
		n, err := strconv.Atoi(raw[0])
		if err != nil || n < 0 {
			return PageSpec{}, ErrBadQuery
		}
		spec.Offset = n
	}

	_, totalParam := values["total"]
	_, totalHeader := r.Header["X-Total"]
	spec.ComputeTotal = r.Method == http.MethodHead || totalParam || totalHeader

	return spec, nil
}
