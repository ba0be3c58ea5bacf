package dispatch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dphaener/relay/procedure"
)

// Mode selects which wire convention the builder targets
type Mode int

const (
	// ModeAuto detects the mode from the base path suffix
	ModeAuto Mode = iota
	// ModeREST uses convention-dispatch routes
	ModeREST
	// ModeRPC uses the single-path namespace.procedure convention
	ModeRPC
)

// RPCSuffix is the well-known base path suffix that selects RPC mode when
// mode detection is automatic.
const RPCSuffix = "/rpc"

// WireOptions configures the wire builder
type WireOptions struct {
	Mode      Mode
	BasePath  string
	Overrides Overrides
}

// DetectMode resolves ModeAuto from the base path: a base path ending in the
// RPC suffix selects RPC, anything else selects REST.
func DetectMode(opts WireOptions) Mode {
	if opts.Mode != ModeAuto {
		return opts.Mode
	}
	if strings.HasSuffix(strings.TrimSuffix(opts.BasePath, "/"), RPCSuffix) {
		return ModeRPC
	}
	return ModeREST
}

// BuildWireRequest builds a request descriptor for one procedure call under
// the configured convention. REST mode goes through convention dispatch;
// RPC mode addresses every procedure as {namespace}.{name} under the base
// path, with the verb chosen by the name-prefix classifier: query-shaped
// names become GET with the whole input JSON-encoded into the input query
// parameter, everything else becomes POST with the input as the body.
func BuildWireRequest(namespace, name string, kind procedure.Kind, input map[string]any, opts WireOptions) (*Request, error) {
	switch DetectMode(opts) {
	case ModeRPC:
		return buildRPCRequest(namespace, name, input, opts.BasePath)
	default:
		route := Resolve(namespace, name, kind, opts.Overrides)
		req, err := BuildRequest(route, input)
		if err != nil {
			return nil, err
		}
		req.Path = joinPath(opts.BasePath, req.Path)
		return req, nil
	}
}

func buildRPCRequest(namespace, name string, input map[string]any, basePath string) (*Request, error) {
	path := joinPath(basePath, "/"+namespace+"."+name)

	if InferMethod(name) == http.MethodGet {
		req := &Request{Method: http.MethodGet, Path: path, Query: url.Values{}}
		if len(input) > 0 {
			encoded, err := json.Marshal(input)
			if err != nil {
				return nil, fmt.Errorf("cannot encode input for %s.%s: %w", namespace, name, err)
			}
			req.Query.Set("input", string(encoded))
		}
		return req, nil
	}

	body := make(map[string]any, len(input))
	for k, v := range input {
		body[k] = v
	}
	return &Request{Method: http.MethodPost, Path: path, Body: body}, nil
}

func joinPath(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return path
	}
	return base + path
}
