// Package procedure implements the declarative procedure layer: a fluent,
// immutable builder compiles named operations into executable units that the
// execution engine runs through their middleware and guard chains. Compiled
// procedures are grouped into namespaced collections and are write-once:
// built at load time, read-only afterwards.
package procedure

import (
	"github.com/dphaener/relay/guard"
	"github.com/dphaener/relay/schema"
)

// Kind distinguishes read procedures from write procedures
type Kind string

const (
	// KindQuery is a read operation
	KindQuery Kind = "query"
	// KindMutation is a write operation
	KindMutation Kind = "mutation"
)

// Valid reports whether the kind is one of the known values
func (k Kind) Valid() bool {
	return k == KindQuery || k == KindMutation
}

// Handler is the application function a procedure executes after its
// middleware and guards have run. It receives the final accumulated context
// and the validated input.
type Handler func(ctx *Context, input any) (any, error)

// Next continues the middleware chain, merging an optional context extension.
// A middleware must call it exactly once to proceed.
type Next func(extension map[string]any)

// MiddlewareFunc is one pre-handler step. Returning an error, or returning
// without calling next, halts the chain and fails the invocation.
type MiddlewareFunc func(ctx *Context, input any, next Next) error

// Middleware is a named pre-handler step
type Middleware struct {
	Name   string
	Handle MiddlewareFunc
}

// CompiledProcedure is the immutable result of finishing a builder chain.
// It is created once by Query or Mutation and never mutated; its middleware
// and guard sequences are private and exposed only as copies.
type CompiledProcedure struct {
	kind         Kind
	inputSchema  schema.Schema
	outputSchema schema.Schema
	middlewares  []Middleware
	guards       []*guard.Guard
	handler      Handler

	deprecated        bool
	deprecationNotice string

	resource *schema.Tagged
}

// Kind returns the procedure kind
func (p *CompiledProcedure) Kind() Kind {
	return p.kind
}

// InputSchema returns the input schema, or nil if none was declared
func (p *CompiledProcedure) InputSchema() schema.Schema {
	return p.inputSchema
}

// OutputSchema returns the output schema, or nil if none was declared
func (p *CompiledProcedure) OutputSchema() schema.Schema {
	return p.outputSchema
}

// Middlewares returns a copy of the middleware chain in application order
func (p *CompiledProcedure) Middlewares() []Middleware {
	out := make([]Middleware, len(p.middlewares))
	copy(out, p.middlewares)
	return out
}

// Guards returns a copy of the guard chain in declaration order
func (p *CompiledProcedure) Guards() []*guard.Guard {
	out := make([]*guard.Guard, len(p.guards))
	copy(out, p.guards)
	return out
}

// Deprecated reports the deprecation flag and notice
func (p *CompiledProcedure) Deprecated() (bool, string) {
	return p.deprecated, p.deprecationNotice
}

// Resource returns the visibility-tagged output view, or nil if none was
// attached
func (p *CompiledProcedure) Resource() *schema.Tagged {
	return p.resource
}
