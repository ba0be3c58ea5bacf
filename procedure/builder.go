package procedure

import (
	"fmt"

	"github.com/dphaener/relay/guard"
	"github.com/dphaener/relay/schema"
)

// Builder accumulates a procedure definition. Every fluent step returns a
// new builder value carrying the added constraint; the original remains
// usable but semantically superseded, so shared builder prefixes never alias
// each other's state. Query and Mutation are the terminal steps: they
// validate the definition and compile it into an immutable CompiledProcedure.
type Builder struct {
	inputSchema  schema.Schema
	outputSchema schema.Schema
	middlewares  []Middleware
	guards       []*guard.Guard

	deprecated        bool
	deprecationNotice string

	resource *schema.Tagged

	// contextKeys is the cumulative context shape declared by the middleware
	// chain so far, in application order.
	contextKeys []string

	// terminated is shared across copies of one definition so that calling a
	// terminal step twice is caught even through an intermediate copy.
	terminated *bool
}

// New creates an empty procedure builder
func New() *Builder {
	terminated := false
	return &Builder{terminated: &terminated}
}

// clone copies the builder. Each copy carries its own termination flag so a
// forked prefix stays usable after one branch compiles; only repeat terminal
// calls on the same builder value are rejected.
func (b *Builder) clone() *Builder {
	terminated := *b.terminated
	next := &Builder{
		inputSchema:       b.inputSchema,
		outputSchema:      b.outputSchema,
		deprecated:        b.deprecated,
		deprecationNotice: b.deprecationNotice,
		resource:          b.resource,
		terminated:        &terminated,
	}
	next.middlewares = make([]Middleware, len(b.middlewares))
	copy(next.middlewares, b.middlewares)
	next.guards = make([]*guard.Guard, len(b.guards))
	copy(next.guards, b.guards)
	next.contextKeys = make([]string, len(b.contextKeys))
	copy(next.contextKeys, b.contextKeys)
	return next
}

// Input declares the input schema. Input is validated through the schema
// contract before middleware run; the handler receives the parsed value.
func (b *Builder) Input(s schema.Schema) *Builder {
	next := b.clone()
	next.inputSchema = s
	return next
}

// Output declares the output schema, used for API description generation
func (b *Builder) Output(s schema.Schema) *Builder {
	next := b.clone()
	next.outputSchema = s
	return next
}

// Use appends a middleware to the chain. The optional extends list declares
// the context keys the middleware will add, growing the cumulative context
// shape the handler can rely on.
func (b *Builder) Use(m Middleware, extends ...string) *Builder {
	next := b.clone()
	next.middlewares = append(next.middlewares, m)
	next.contextKeys = append(next.contextKeys, extends...)
	return next
}

// Guard appends a guard to the chain. Guards run after all middleware, in
// declaration order.
func (b *Builder) Guard(g *guard.Guard) *Builder {
	next := b.clone()
	next.guards = append(next.guards, g)
	return next
}

// Deprecated marks the procedure deprecated with an optional notice.
// Deprecation is metadata only; runtime behavior is unchanged.
func (b *Builder) Deprecated(notice string) *Builder {
	next := b.clone()
	next.deprecated = true
	next.deprecationNotice = notice
	return next
}

// Resource attaches a visibility-tagged output view. The handler must return
// the full admin-level shape; the engine projects it through the view after
// the handler runs.
func (b *Builder) Resource(view *schema.Tagged) *Builder {
	next := b.clone()
	next.resource = view
	return next
}

// ContextKeys returns the cumulative context shape declared by the
// middleware chain, in application order.
func (b *Builder) ContextKeys() []string {
	out := make([]string, len(b.contextKeys))
	copy(out, b.contextKeys)
	return out
}

// Query compiles the definition as a read procedure
func (b *Builder) Query(h Handler) (*CompiledProcedure, error) {
	return b.compile(KindQuery, h)
}

// Mutation compiles the definition as a write procedure
func (b *Builder) Mutation(h Handler) (*CompiledProcedure, error) {
	return b.compile(KindMutation, h)
}

// MustQuery compiles as a read procedure, panicking on builder misuse.
// Intended for package-level procedure declarations where a definition error
// should fail at load time.
func (b *Builder) MustQuery(h Handler) *CompiledProcedure {
	p, err := b.Query(h)
	if err != nil {
		panic(err)
	}
	return p
}

// MustMutation compiles as a write procedure, panicking on builder misuse
func (b *Builder) MustMutation(h Handler) *CompiledProcedure {
	p, err := b.Mutation(h)
	if err != nil {
		panic(err)
	}
	return p
}

func (b *Builder) compile(kind Kind, h Handler) (*CompiledProcedure, error) {
	if *b.terminated {
		return nil, newBuildError(CodeAlreadyCompiled,
			"procedure definition already compiled",
			"call .Query or .Mutation exactly once per definition")
	}
	if h == nil {
		return nil, newBuildError(CodeNilHandler,
			fmt.Sprintf("cannot compile %s without a handler", kind),
			"pass a non-nil handler to the terminal step")
	}
	for _, m := range b.middlewares {
		if m.Handle == nil {
			return nil, newBuildError(CodeNilMiddleware,
				fmt.Sprintf("middleware %q has no function", m.Name),
				"set Middleware.Handle before compiling")
		}
	}
	for i, g := range b.guards {
		if g == nil {
			return nil, newBuildError(CodeNilGuard,
				fmt.Sprintf("guard at position %d is nil", i),
				"construct guards with guard.New or a combinator")
		}
	}
	*b.terminated = true

	middlewares := make([]Middleware, len(b.middlewares))
	copy(middlewares, b.middlewares)
	guards := make([]*guard.Guard, len(b.guards))
	copy(guards, b.guards)

	return &CompiledProcedure{
		kind:              kind,
		inputSchema:       b.inputSchema,
		outputSchema:      b.outputSchema,
		middlewares:       middlewares,
		guards:            guards,
		handler:           h,
		deprecated:        b.deprecated,
		deprecationNotice: b.deprecationNotice,
		resource:          b.resource,
	}, nil
}
