package procedure

import (
	"context"
)

// Context is the accumulator record threaded through the middleware chain
// into guards and the handler. It grows by explicit extension only: Extend
// produces a new record sharing the parent's storage, so earlier links in the
// chain never observe later extensions and concurrent invocations never
// interfere.
type Context struct {
	parent *Context
	values map[string]any
	std    context.Context
}

// NewContext creates a base context carrying the given values.
// A nil std context defaults to context.Background().
func NewContext(std context.Context, values map[string]any) *Context {
	if std == nil {
		std = context.Background()
	}
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Context{values: copied, std: std}
}

// Background returns an empty base context
func Background() *Context {
	return NewContext(context.Background(), nil)
}

// Extend returns a new context layered over the receiver with the given
// extension values. The receiver is not mutated. A nil or empty extension
// returns the receiver unchanged.
func (c *Context) Extend(extension map[string]any) *Context {
	if len(extension) == 0 {
		return c
	}
	copied := make(map[string]any, len(extension))
	for k, v := range extension {
		copied[k] = v
	}
	return &Context{parent: c, values: copied, std: c.std}
}

// Value returns the value for a key, consulting the most recent extension
// first. Missing keys return nil.
func (c *Context) Value(key string) any {
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.values[key]; ok {
			return v
		}
	}
	return nil
}

// Has reports whether a key is present anywhere in the context chain
func (c *Context) Has(key string) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if _, ok := cur.values[key]; ok {
			return true
		}
	}
	return false
}

// Context returns the standard library context for the invocation, for
// handlers and middleware that perform blocking work.
func (c *Context) Context() context.Context {
	return c.std
}
