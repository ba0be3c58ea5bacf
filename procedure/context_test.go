package procedure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextExtend(t *testing.T) {
	base := NewContext(context.Background(), map[string]any{"a": 1})
	extended := base.Extend(map[string]any{"b": 2})

	assert.Equal(t, 1, extended.Value("a"))
	assert.Equal(t, 2, extended.Value("b"))

	// The base never observes the extension
	assert.Nil(t, base.Value("b"))
	assert.False(t, base.Has("b"))
}

func TestContextExtendShadowsKeys(t *testing.T) {
	base := NewContext(context.Background(), map[string]any{"user": "anonymous"})
	extended := base.Extend(map[string]any{"user": "alice"})

	assert.Equal(t, "alice", extended.Value("user"))
	assert.Equal(t, "anonymous", base.Value("user"))
}

func TestContextExtendEmptyReturnsSame(t *testing.T) {
	base := Background()
	assert.Same(t, base, base.Extend(nil))
	assert.Same(t, base, base.Extend(map[string]any{}))
}

func TestContextDoesNotAliasCallerMap(t *testing.T) {
	values := map[string]any{"a": 1}
	ctx := NewContext(context.Background(), values)

	values["a"] = 99
	assert.Equal(t, 1, ctx.Value("a"))

	ext := map[string]any{"b": 2}
	extended := ctx.Extend(ext)
	ext["b"] = 99
	assert.Equal(t, 2, extended.Value("b"))
}

func TestContextCarriesStdContext(t *testing.T) {
	type key struct{}
	std := context.WithValue(context.Background(), key{}, "v")

	ctx := NewContext(std, nil)
	assert.Equal(t, "v", ctx.Context().Value(key{}))

	// Extensions keep the same std context
	assert.Equal(t, "v", ctx.Extend(map[string]any{"x": 1}).Context().Value(key{}))
}

func TestBackgroundContext(t *testing.T) {
	ctx := Background()
	assert.NotNil(t, ctx.Context())
	assert.Nil(t, ctx.Value("anything"))
}
