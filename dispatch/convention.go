// Package dispatch derives HTTP routes for procedures from their names.
// Method and path come from an ordered prefix table unless an explicit
// override exists for the (namespace, procedure) pair; overrides always win
// and are never blended with inference. The same metadata also feeds the
// single-path RPC wire convention in wire.go.
package dispatch

import (
	"net/http"
	"sort"
	"strings"

	"github.com/dphaener/relay/procedure"
)

// methodPrefixes is the ordered method inference table. The first matching
// prefix wins; names matching nothing default to POST.
var methodPrefixes = []struct {
	prefix string
	method string
}{
	{"get", http.MethodGet},
	{"list", http.MethodGet},
	{"find", http.MethodGet},
	{"create", http.MethodPost},
	{"add", http.MethodPost},
	{"update", http.MethodPut},
	{"edit", http.MethodPut},
	{"patch", http.MethodPatch},
	{"delete", http.MethodDelete},
	{"remove", http.MethodDelete},
}

// InferMethod derives the HTTP method for a procedure name
func InferMethod(name string) string {
	for _, p := range methodPrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.method
		}
	}
	return http.MethodPost
}

// InferPath derives the route path for a procedure name within a namespace:
// list* maps to the collection path, get*/update*/delete* to the member path
// with an :id parameter, and everything else to the collection path.
func InferPath(namespace, name string) string {
	switch {
	case strings.HasPrefix(name, "list"):
		return "/" + namespace
	case strings.HasPrefix(name, "get"),
		strings.HasPrefix(name, "update"),
		strings.HasPrefix(name, "delete"):
		return "/" + namespace + "/:id"
	default:
		return "/" + namespace
	}
}

// Route binds a derived method/path pair to one procedure
type Route struct {
	Namespace string
	Procedure string
	Method    string
	Path      string
	Kind      procedure.Kind
}

// Override replaces inference for one procedure. A zero Method keeps the
// inferred method while replacing the path, mirroring the bare-path override
// form; a zero Path keeps the inferred path.
type Override struct {
	Method string
	Path   string
}

// PathOverride is the bare-path override form: the path is taken verbatim
// and the method is still inferred from the procedure name.
func PathOverride(path string) Override {
	return Override{Path: path}
}

// Overrides is the explicit route table, keyed by namespace then procedure
// name. Lookups are by exact key; a hit always wins over inference.
type Overrides map[string]map[string]Override

// Resolve produces the route for one procedure, applying overrides first
func Resolve(namespace, name string, kind procedure.Kind, overrides Overrides) Route {
	route := Route{
		Namespace: namespace,
		Procedure: name,
		Kind:      kind,
	}

	if byName, ok := overrides[namespace]; ok {
		if o, ok := byName[name]; ok {
			route.Path = o.Path
			if route.Path == "" {
				route.Path = InferPath(namespace, name)
			}
			route.Method = o.Method
			if route.Method == "" {
				route.Method = InferMethod(name)
			}
			return route
		}
	}

	route.Method = InferMethod(name)
	route.Path = InferPath(namespace, name)
	return route
}

// Routes derives routes for every procedure in a collection, sorted by
// procedure name for deterministic registration order.
func Routes(c *procedure.Collection, overrides Overrides) []Route {
	names := c.Names()
	sort.Strings(names)

	routes := make([]Route, 0, len(names))
	for _, name := range names {
		p, _ := c.Procedure(name)
		routes = append(routes, Resolve(c.Namespace(), name, p.Kind(), overrides))
	}
	return routes
}

// ChiPattern converts a :param style path to the {param} style chi expects
func ChiPattern(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if strings.HasPrefix(seg, ":") {
			segments[i] = "{" + seg[1:] + "}"
		}
	}
	return strings.Join(segments, "/")
}

// PathParams returns the parameter tokens of a :param style path, in order
func PathParams(path string) []string {
	var params []string
	for _, seg := range strings.Split(path, "/") {
		if strings.HasPrefix(seg, ":") {
			params = append(params, seg[1:])
		}
	}
	return params
}
