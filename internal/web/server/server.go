// Package server exposes compiled procedure collections over HTTP. REST
// routes come from convention dispatch; the alternate single-path RPC
// convention is mounted under a configurable base path. The server is a thin
// I/O shell: all execution semantics live in the procedure engine.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dphaener/relay/dispatch"
	"github.com/dphaener/relay/internal/web/auth"
	"github.com/dphaener/relay/internal/web/middleware"
	"github.com/dphaener/relay/internal/web/response"
	"github.com/dphaener/relay/procedure"
	"github.com/dphaener/relay/schema"
)

// Config holds server configuration
type Config struct {
	// Address is the listen address (e.g. ":8080")
	Address string

	// Logger receives request and lifecycle logs
	Logger *zap.Logger

	// AuthSecret verifies bearer tokens; empty disables auth parsing
	AuthSecret []byte

	// Overrides is the explicit route table applied before inference
	Overrides dispatch.Overrides

	// RPCBasePath mounts the single-path RPC convention (default "/rpc")
	RPCBasePath string

	// Timeouts
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a production-ready configuration
func DefaultConfig() Config {
	return Config{
		Address:         ":8080",
		RPCBasePath:     "/rpc",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server mounts procedure collections on a chi router
type Server struct {
	config     Config
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server

	procedures map[string]map[string]*procedure.CompiledProcedure
}

// New creates a server with the standard middleware stack installed
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.RPCBasePath == "" {
		config.RPCBasePath = "/rpc"
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))

	s := &Server{
		config:     config,
		logger:     config.Logger,
		router:     router,
		procedures: make(map[string]map[string]*procedure.CompiledProcedure),
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.RenderNotFound(w, "")
	})
	return s
}

// Mount registers a collection's REST routes and makes its procedures
// callable through the RPC endpoint. Mounting the same namespace twice is an
// error.
func (s *Server) Mount(c *procedure.Collection) error {
	if _, exists := s.procedures[c.Namespace()]; exists {
		return fmt.Errorf("namespace %q already mounted", c.Namespace())
	}

	byName := make(map[string]*procedure.CompiledProcedure, c.Len())
	for _, route := range dispatch.Routes(c, s.config.Overrides) {
		p, _ := c.Procedure(route.Procedure)
		byName[route.Procedure] = p

		pattern := dispatch.ChiPattern(route.Path)
		s.router.MethodFunc(route.Method, pattern, s.restHandler(route, p))
		s.logger.Debug("route mounted",
			zap.String("method", route.Method),
			zap.String("path", route.Path),
			zap.String("procedure", route.Namespace+"."+route.Procedure))
	}
	s.procedures[c.Namespace()] = byName
	return nil
}

// MountAll mounts every collection, typically the discovery result
func (s *Server) MountAll(collections []*procedure.Collection) error {
	for _, c := range collections {
		if err := s.Mount(c); err != nil {
			return err
		}
	}
	return nil
}

// MountRPC registers the single-path RPC endpoint. Call after all
// collections are mounted.
func (s *Server) MountRPC() {
	base := strings.TrimSuffix(s.config.RPCBasePath, "/")
	s.router.MethodFunc(http.MethodGet, base+"/{call}", s.rpcHandler)
	s.router.MethodFunc(http.MethodPost, base+"/{call}", s.rpcHandler)
}

// Handler returns the underlying HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// restHandler adapts one REST route to a procedure invocation
func (s *Server) restHandler(route dispatch.Route, p *procedure.CompiledProcedure) http.HandlerFunc {
	params := dispatch.PathParams(route.Path)

	return func(w http.ResponseWriter, r *http.Request) {
		input, err := s.decodeInput(r, params, p.InputSchema())
		if err != nil {
			response.RenderBadRequest(w, err.Error())
			return
		}

		base, err := s.baseContext(r)
		if err != nil {
			response.RenderError(w, &procedure.InvocationError{
				Kind:    procedure.ErrorKindGuard,
				Status:  http.StatusUnauthorized,
				Message: err.Error(),
			})
			return
		}

		out, err := p.Invoke(base, input)
		if err != nil {
			response.RenderError(w, err)
			return
		}
		response.RenderData(w, http.StatusOK, out)
	}
}

// rpcHandler serves the {namespace}.{procedure} wire convention: queries as
// GET with the input JSON-encoded in one query parameter, mutations as POST
// with the input as the body.
func (s *Server) rpcHandler(w http.ResponseWriter, r *http.Request) {
	call := chi.URLParam(r, "call")
	namespace, name, ok := strings.Cut(call, ".")
	if !ok {
		response.RenderBadRequest(w, "rpc call must be namespace.procedure")
		return
	}

	byName, ok := s.procedures[namespace]
	if !ok {
		response.RenderNotFound(w, fmt.Sprintf("unknown namespace %q", namespace))
		return
	}
	p, ok := byName[name]
	if !ok {
		response.RenderNotFound(w, fmt.Sprintf("unknown procedure %q", call))
		return
	}

	var input map[string]any
	if r.Method == http.MethodGet {
		if encoded := r.URL.Query().Get("input"); encoded != "" {
			if err := json.Unmarshal([]byte(encoded), &input); err != nil {
				response.RenderBadRequest(w, "input query parameter is not valid JSON")
				return
			}
		}
	} else {
		if err := decodeBody(r, &input); err != nil {
			response.RenderBadRequest(w, err.Error())
			return
		}
	}

	base, err := s.baseContext(r)
	if err != nil {
		response.RenderError(w, &procedure.InvocationError{
			Kind:    procedure.ErrorKindGuard,
			Status:  http.StatusUnauthorized,
			Message: err.Error(),
		})
		return
	}

	out, err := p.Invoke(base, input)
	if err != nil {
		response.RenderError(w, err)
		return
	}
	response.RenderData(w, http.StatusOK, out)
}

// decodeInput assembles the procedure input from path parameters plus either
// the query string (GET) or the JSON body. Query and path values arrive as
// strings and are coerced against the input schema; body values already
// carry JSON types and are left alone.
func (s *Server) decodeInput(r *http.Request, params []string, spec schema.Schema) (map[string]any, error) {
	input := make(map[string]any)

	if r.Method == http.MethodGet {
		for key, values := range r.URL.Query() {
			if len(values) == 1 {
				input[key] = coerceParam(spec, key, values[0])
			} else {
				items := make([]any, len(values))
				for i, v := range values {
					items[i] = coerceParam(spec, key, v)
				}
				input[key] = items
			}
		}
	} else {
		if err := decodeBody(r, &input); err != nil {
			return nil, err
		}
	}

	// Path parameters win over body/query fields of the same name
	for _, param := range params {
		if v := chi.URLParam(r, param); v != "" {
			input[param] = coerceParam(spec, param, v)
		}
	}
	return input, nil
}

// coerceParam converts one string-sourced value to the type the input schema
// declares for its field. Values that do not parse pass through unchanged so
// schema validation reports them per field.
func coerceParam(spec schema.Schema, name, value string) any {
	if spec == nil {
		return value
	}
	for _, f := range spec.Fields() {
		if f.Name != name {
			continue
		}
		switch f.Type {
		case schema.TypeInt:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				return n
			}
		case schema.TypeFloat:
			if n, err := strconv.ParseFloat(value, 64); err == nil {
				return n
			}
		case schema.TypeBool:
			if b, err := strconv.ParseBool(value); err == nil {
				return b
			}
		}
		return value
	}
	return value
}

func decodeBody(r *http.Request, into *map[string]any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return fmt.Errorf("request body is not valid JSON")
	}
	return nil
}

// baseContext builds the per-invocation base context: the request's standard
// context plus caller identity parsed from the Authorization header.
func (s *Server) baseContext(r *http.Request) (*procedure.Context, error) {
	values := map[string]any{
		"request_id": middleware.GetRequestID(r.Context()),
	}

	if len(s.config.AuthSecret) > 0 {
		claims, err := auth.FromRequest(s.config.AuthSecret, r)
		if err != nil {
			return nil, err
		}
		for k, v := range auth.ContextValues(claims) {
			values[k] = v
		}
	}
	return procedure.NewContext(r.Context(), values), nil
}

// ListenAndServe starts the server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("address", s.config.Address))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(shutdownCtx)
}
