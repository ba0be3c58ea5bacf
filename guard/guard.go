// Package guard defines the authorization guard contract consumed by the
// procedure execution engine: named predicates with an associated failure
// status and message, plus the allOf/anyOf/not combinators. Combinators build
// values only; evaluation happens in the interpreter in eval.go.
package guard

import (
	"net/http"
)

// Context is the read surface a guard predicate sees. The procedure layer's
// accumulator context satisfies it; tests can use any map-backed stub.
type Context interface {
	Value(key string) any
}

// CheckFunc is a guard predicate. It must be a pure function of the context:
// no shared-state mutation, no ordering assumptions beyond its own inputs.
type CheckFunc func(ctx Context) (bool, error)

type nodeKind int

const (
	kindLeaf nodeKind = iota
	kindAllOf
	kindAnyOf
	kindNot
)

// Guard is a node in the guard combinator tree. Leaves carry a predicate;
// AllOf/AnyOf carry member guards; Not wraps exactly one guard. Guards are
// immutable once constructed.
type Guard struct {
	name    string
	check   CheckFunc
	status  int
	message string

	kind    nodeKind
	members []*Guard
}

// Option configures a leaf guard at construction time
type Option func(*Guard)

// WithStatus overrides the failure status code (default 403)
func WithStatus(status int) Option {
	return func(g *Guard) { g.status = status }
}

// WithMessage overrides the failure message (default "Forbidden")
func WithMessage(message string) Option {
	return func(g *Guard) { g.message = message }
}

// New creates a leaf guard with the given name and predicate
func New(name string, check CheckFunc, opts ...Option) *Guard {
	g := &Guard{
		name:    name,
		check:   check,
		status:  http.StatusForbidden,
		message: "Forbidden",
		kind:    kindLeaf,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AllOf passes iff every member guard passes. Evaluation is in declaration
// order and stops at the first failure, which is the one reported.
func AllOf(members ...*Guard) *Guard {
	return &Guard{
		name:    "allOf",
		status:  http.StatusForbidden,
		message: "Forbidden",
		kind:    kindAllOf,
		members: members,
	}
}

// AnyOf passes iff at least one member guard passes. Every member is
// evaluated; on total failure the last evaluated member's status and message
// are reported.
func AnyOf(members ...*Guard) *Guard {
	return &Guard{
		name:    "anyOf",
		status:  http.StatusForbidden,
		message: "Forbidden",
		kind:    kindAnyOf,
		members: members,
	}
}

// Not inverts the pass/fail polarity of a guard. The wrapped guard's name,
// status, and message are preserved for failure reporting.
func Not(g *Guard) *Guard {
	return &Guard{
		name:    "not:" + g.name,
		status:  g.status,
		message: g.message,
		kind:    kindNot,
		members: []*Guard{g},
	}
}

// Name returns the guard's declared name
func (g *Guard) Name() string {
	return g.name
}

// StatusCode returns the status code reported on failure
func (g *Guard) StatusCode() int {
	return g.status
}

// Message returns the message reported on failure
func (g *Guard) Message() string {
	return g.message
}
