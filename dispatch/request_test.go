package dispatch

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequestGetSplitsPathAndQuery(t *testing.T) {
	route := Route{Method: http.MethodGet, Path: "/posts/:postId/comments/:id"}
	input := map[string]any{"postId": "abc", "id": "456", "extra": "x"}

	req, err := BuildRequest(route, input)
	require.NoError(t, err)

	assert.Equal(t, "/posts/abc/comments/456", req.Path)
	assert.Equal(t, "x", req.Query.Get("extra"))
	assert.Equal(t, "/posts/abc/comments/456?extra=x", req.URL())
	assert.Nil(t, req.Body)
}

func TestBuildRequestPostExcludesPathParamsFromBody(t *testing.T) {
	route := Route{Method: http.MethodPost, Path: "/posts/:postId/comments/:id"}
	input := map[string]any{"postId": "abc", "id": "456", "extra": "x"}

	req, err := BuildRequest(route, input)
	require.NoError(t, err)

	assert.Equal(t, "/posts/abc/comments/456", req.Path)
	assert.Equal(t, map[string]any{"extra": "x"}, req.Body)
	assert.Empty(t, req.Query)
}

func TestBuildRequestMissingPathParamIsHardError(t *testing.T) {
	route := Route{Method: http.MethodGet, Path: "/posts/:id"}

	tests := []struct {
		name  string
		input map[string]any
	}{
		{"absent", map[string]any{}},
		{"nil value", map[string]any{"id": nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildRequest(route, tt.input)
			require.Error(t, err)

			var pe *ParamError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, "id", pe.Param)
		})
	}
}

func TestBuildRequestQueryArraysRepeat(t *testing.T) {
	route := Route{Method: http.MethodGet, Path: "/posts"}
	input := map[string]any{"tags": []string{"go", "web"}, "limit": 10}

	req, err := BuildRequest(route, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"go", "web"}, req.Query["tags"])
	assert.Equal(t, "10", req.Query.Get("limit"))
}

func TestBuildRequestDropsNilQueryValues(t *testing.T) {
	route := Route{Method: http.MethodGet, Path: "/posts"}
	input := map[string]any{"cursor": nil, "limit": 5}

	req, err := BuildRequest(route, input)
	require.NoError(t, err)

	assert.False(t, req.Query.Has("cursor"))
	assert.Equal(t, "5", req.Query.Get("limit"))
}

func TestBuildRequestScalarEncoding(t *testing.T) {
	route := Route{Method: http.MethodGet, Path: "/posts/:id"}

	tests := []struct {
		name string
		id   any
		path string
	}{
		{"string", "abc", "/posts/abc"},
		{"int", 42, "/posts/42"},
		{"bool", true, "/posts/true"},
		{"float", 1.5, "/posts/1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(route, map[string]any{"id": tt.id})
			require.NoError(t, err)
			assert.Equal(t, tt.path, req.Path)
		})
	}
}

func TestBuildRequestEscapesPathParamValues(t *testing.T) {
	route := Route{Method: http.MethodGet, Path: "/posts/:id"}

	tests := []struct {
		name string
		id   string
		path string
	}{
		{"slash", "a/b", "/posts/a%2Fb"},
		{"question mark", "a?b=c", "/posts/a%3Fb=c"},
		{"space", "a b", "/posts/a%20b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(route, map[string]any{"id": tt.id})
			require.NoError(t, err)
			assert.Equal(t, tt.path, req.Path, "values must not alter the path structure")
		})
	}
}

func TestBuildRequestDoesNotMutateInput(t *testing.T) {
	route := Route{Method: http.MethodPost, Path: "/posts/:id"}
	input := map[string]any{"id": "1", "title": "hello"}

	_, err := BuildRequest(route, input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "1", "title": "hello"}, input)
}
