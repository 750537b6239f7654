package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/crudr/crudr/pkg/httputil"
	"github.com/crudr/crudr/pkg/httputil/middleware"
	"github.com/crudr/crudr/pkg/metrics"
	"github.com/crudr/crudr/pkg/query"
	"github.com/crudr/crudr/pkg/schema"
	"github.com/crudr/crudr/pkg/store"
)

// Server mounts registered models as CRUD resources on a router and
// executes requests against a store.
type Server struct {
	store     store.Store
	router    *httputil.Router
	api       *httputil.Router
	logger    *zap.Logger
	resources map[string]*Resource
}

type ServerOption func(*Server)

func WithLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithBaseURL mounts all resources under a path prefix, e.g. "/api".
func WithBaseURL(baseURL string) ServerOption {
	return func(s *Server) { s.api = s.router.Group(baseURL) }
}

func NewServer(st store.Store, opts ...ServerOption) *Server {
	router := httputil.NewRouter()
	s := &Server{
		store:     st,
		router:    router,
		api:       router,
		logger:    zap.NewNop(),
		resources: make(map[string]*Resource),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddMiddleware appends middleware applied to every mounted route.
func (s *Server) AddMiddleware(mw httputil.Middleware, additional ...httputil.Middleware) {
	s.router.Use(mw, additional...)
}

// Register mounts a model. List routes always exist; create/update/delete
// routes respond 405 unless the corresponding capability flag is set.
func (s *Server) Register(model *schema.Model, opts ResourceOptions) (*Resource, error) {
	if _, exists := s.resources[model.Name]; exists {
		return nil, fmt.Errorf("resource %s already registered", model.Name)
	}
	res, err := newResource(model, opts)
	if err != nil {
		return nil, err
	}
	s.resources[model.Name] = res

	name := model.Name
	s.api.Handle("GET /"+name, s.instrument(res, s.handleList(res)))
	s.api.Handle("HEAD /"+name, s.instrument(res, s.handleList(res)))
	s.api.Handle("POST /"+name, s.instrument(res, s.handleCreate(res)))
	s.api.Handle("GET /"+name+"/{id}", s.instrument(res, s.handleGet(res)))
	s.api.Handle("PUT /"+name+"/{id}", s.instrument(res, s.handleUpdate(res)))
	s.api.Handle("DELETE /"+name+"/{id}", s.instrument(res, s.handleDelete(res)))

	s.logger.Info("registered resource",
		zap.String("model", name),
		zap.Bool("create", opts.SupportsCreate),
		zap.Bool("update", opts.SupportsUpdate),
		zap.Bool("delete", opts.SupportsDelete))
	return res, nil
}

// Handler returns the router with all middleware applied, for mounting or
// for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(addr string) error {
	s.logger.Info("server starting", zap.String("addr", addr))
	return s.router.ListenAndServe(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.router.Shutdown(ctx)
}

// instrument records request count and duration per resource.
func (s *Server) instrument(res *Resource, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := middleware.NewResponseRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)
		metrics.RequestDuration.WithLabelValues(res.Model.Name, r.Method).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(res.Model.Name, r.Method, strconv.Itoa(rec.StatusCode)).Inc()
	})
}

// handleList serves GET and HEAD collection requests: compile the request's
// filter, order and pagination, assemble one query, execute it. HEAD skips
// row fetching entirely and reports the total through the X-Total header.
func (s *Server) handleList(res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := query.ResolvePage(r, res.pageOpts)
		if err != nil {
			s.badQuery(w, res, err)
			return
		}
		order, err := query.CompileOrder(res.Model, r.URL.Query().Get("order_by"))
		if err != nil {
			s.badQuery(w, res, err)
			return
		}
		filter, err := query.Compile(res.Model, r.URL.Query(), res.defaultFilter)
		if err != nil {
			s.badQuery(w, res, err)
			return
		}

		prefetch, err := s.prefetches(res.Model)
		if err != nil {
			s.internal(w, r, err)
			return
		}
		q := query.Assemble(res.Model, filter, order, res.defaultOrder, page, prefetch...)

		ctx := r.Context()
		var total *int64
		if page.ComputeTotal {
			t, err := s.countTotal(ctx, res, r.URL.Query(), q)
			if err != nil {
				s.internal(w, r, err)
				return
			}
			total = &t
		}

		if r.Method == http.MethodHead {
			w.Header().Set("X-Total", strconv.FormatInt(*total, 10))
			w.WriteHeader(http.StatusOK)
			return
		}

		items, err := s.store.Select(ctx, q)
		if err != nil {
			s.internal(w, r, err)
			return
		}
		if items == nil {
			items = []map[string]any{}
		}
		writeResult(w, http.StatusOK, map[string]any{"items": items}, &Pagination{
			Total:  total,
			Limit:  page.Limit,
			Offset: page.Offset,
		})
	}
}

func (s *Server) handleCreate(res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !res.opts.SupportsCreate {
			writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			return
		}
		data, ok := decodeBody(w, r)
		if !ok {
			return
		}
		if err := validateBody(res.Model, data, res.opts.RequiredFields); err != nil {
			writeError(w, http.StatusBadRequest, msgValidationFailed)
			return
		}

		created, err := s.store.Insert(r.Context(), res.Model, data)
		if err != nil {
			s.internal(w, r, err)
			return
		}
		writeResult(w, http.StatusOK, created, nil)
	}
}

func (s *Server) handleGet(res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.itemID(w, r, res)
		if !ok {
			return
		}
		item, err := s.store.Get(r.Context(), res.Model, id)
		if err != nil {
			s.itemError(w, r, err)
			return
		}
		writeResult(w, http.StatusOK, item, nil)
	}
}

func (s *Server) handleUpdate(res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !res.opts.SupportsUpdate {
			writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			return
		}
		id, ok := s.itemID(w, r, res)
		if !ok {
			return
		}
		data, ok := decodeBody(w, r)
		if !ok {
			return
		}
		// Updates are partial; required fields apply to creation only.
		if err := validateBody(res.Model, data, nil); err != nil {
			writeError(w, http.StatusBadRequest, msgValidationFailed)
			return
		}

		updated, err := s.store.Update(r.Context(), res.Model, id, data)
		if err != nil {
			s.itemError(w, r, err)
			return
		}
		writeResult(w, http.StatusOK, updated, nil)
	}
}

func (s *Server) handleDelete(res *Resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !res.opts.SupportsDelete {
			writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
			return
		}
		id, ok := s.itemID(w, r, res)
		if !ok {
			return
		}
		if err := s.store.Delete(r.Context(), res.Model, id); err != nil {
			s.itemError(w, r, err)
			return
		}
		writeResult(w, http.StatusOK, "Item deleted", nil)
	}
}

// countTotal counts matching rows, consulting the resource's totals cache
// when one is configured.
func (s *Server) countTotal(ctx context.Context, res *Resource, values url.Values, q query.Query) (int64, error) {
	if res.totals == nil {
		return s.store.Count(ctx, q)
	}
	key := totalsKey(res.Model.Name, values)
	if t, ok := res.totals.get(key); ok {
		return t, nil
	}
	t, err := s.store.Count(ctx, q)
	if err != nil {
		return 0, err
	}
	res.totals.set(key, t)
	return t, nil
}

// itemID coerces the path id to the model's primary key kind. A value that
// does not coerce can match no row, so it reports 404 rather than 400.
func (s *Server) itemID(w http.ResponseWriter, r *http.Request, res *Resource) (any, bool) {
	idField, _ := res.Model.Field(res.Model.IDField)
	id, err := query.CoerceValue(idField.Kind, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, msgNotFound)
		return nil, false
	}
	return id, true
}

// prefetches resolves the model's declared relations against registered
// resources.
func (s *Server) prefetches(m *schema.Model) ([]query.Prefetch, error) {
	var specs []query.Prefetch
	for _, rel := range m.Relations {
		child, ok := s.resources[rel.Model]
		if !ok {
			return nil, fmt.Errorf("relation %s: model %s not registered", rel.Name, rel.Model)
		}
		specs = append(specs, query.Prefetch{Relation: rel, Model: child.Model})
	}
	return specs, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return nil, false
	}
	return data, true
}

func (s *Server) badQuery(w http.ResponseWriter, res *Resource, err error) {
	metrics.QueryValidationErrors.WithLabelValues(res.Model.Name).Inc()
	s.logger.Debug("rejected query", zap.String("model", res.Model.Name), zap.Error(err))
	writeError(w, http.StatusBadRequest, msgBadQuery)
}

func (s *Server) itemError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgNotFound)
		return
	}
	s.internal(w, r, err)
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("url", r.URL.String()),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, msgInternal)
}
