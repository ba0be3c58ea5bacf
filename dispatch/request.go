package dispatch

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Request is a protocol-level request descriptor built from a route and an
// input object. It carries no transport state; callers hand it to whatever
// HTTP client or server harness they use.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

// URL returns the path with the encoded query string appended
func (r *Request) URL() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Query.Encode()
}

// ParamError reports a path parameter token with no usable input value.
// Missing values are a hard error, never a silently-empty substitution.
type ParamError struct {
	Param string
	Path  string
}

// Error implements the error interface
func (e *ParamError) Error() string {
	return fmt.Sprintf("path %s requires parameter %q but input has no value for it", e.Path, e.Param)
}

// BuildRequest builds a REST request descriptor for a route. Path parameter
// tokens are substituted from the input object, percent-escaped so values
// cannot alter the path structure; for GET the remaining input fields become
// query parameters (arrays repeated, nil values dropped), for every other
// method they become the JSON body.
func BuildRequest(route Route, input map[string]any) (*Request, error) {
	params := PathParams(route.Path)
	consumed := make(map[string]bool, len(params))

	path := route.Path
	for _, param := range params {
		v, ok := input[param]
		if !ok || v == nil {
			return nil, &ParamError{Param: param, Path: route.Path}
		}
		path = strings.Replace(path, ":"+param, url.PathEscape(encodeScalar(v)), 1)
		consumed[param] = true
	}

	req := &Request{Method: route.Method, Path: path}

	if route.Method == http.MethodGet {
		req.Query = url.Values{}
		for key, v := range input {
			if consumed[key] || v == nil {
				continue
			}
			appendQuery(req.Query, key, v)
		}
	} else {
		req.Body = make(map[string]any)
		for key, v := range input {
			if consumed[key] {
				continue
			}
			req.Body[key] = v
		}
	}

	return req, nil
}

// appendQuery adds one input field to the query string. Slices repeat the
// key once per element; nil elements are dropped.
func appendQuery(q url.Values, key string, v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			if elem == nil {
				continue
			}
			q.Add(key, encodeScalar(elem))
		}
		return
	}
	q.Add(key, encodeScalar(v))
}

// encodeScalar renders an input value for use in a path segment or query
// parameter
func encodeScalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
