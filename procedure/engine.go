package procedure

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dphaener/relay/guard"
	"github.com/dphaener/relay/schema"
)

// State tracks one invocation through the execution pipeline
type State int

const (
	// StatePending is the initial state before validation starts
	StatePending State = iota
	// StateRunningMiddleware covers the sequential middleware chain
	StateRunningMiddleware
	// StateRunningGuards covers ordered guard evaluation
	StateRunningGuards
	// StateRunningHandler covers the application handler
	StateRunningHandler
	// StateProjecting covers visibility projection of the output
	StateProjecting
	// StateDone is the success terminal
	StateDone
	// StateFailed is the failure terminal, reachable from any running state
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunningMiddleware:
		return "running_middleware"
	case StateRunningGuards:
		return "running_guards"
	case StateRunningHandler:
		return "running_handler"
	case StateProjecting:
		return "projecting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// invocation is the per-call state machine. Invocations share nothing with
// each other: the context chain is private to the call and the compiled
// procedure is read-only.
type invocation struct {
	proc  *CompiledProcedure
	state State
}

// Invoke executes the procedure against a base context and raw input:
// validate input, run the middleware chain left to right, evaluate guards in
// declaration order, run the handler, and project the output if a visibility
// view is attached. Every failure surfaces as an *InvocationError; raw
// application errors never escape.
func (p *CompiledProcedure) Invoke(base *Context, input any) (any, error) {
	if base == nil {
		base = Background()
	}
	inv := &invocation{proc: p, state: StatePending}
	out, err := inv.run(base, input)
	if err != nil {
		inv.state = StateFailed
		return nil, err
	}
	inv.state = StateDone
	return out, nil
}

func (inv *invocation) run(ctx *Context, input any) (any, error) {
	p := inv.proc

	if p.inputSchema != nil {
		parsed, err := p.inputSchema.Parse(input)
		if err != nil {
			var ve *schema.ValidationErrors
			if errors.As(err, &ve) {
				return nil, validationError(ve.Fields, err)
			}
			return nil, &InvocationError{
				Kind:    ErrorKindValidation,
				Status:  http.StatusUnprocessableEntity,
				Message: err.Error(),
				Err:     err,
			}
		}
		input = parsed
	}

	inv.state = StateRunningMiddleware
	for _, mw := range p.middlewares {
		next, err := runMiddleware(ctx, input, mw)
		if err != nil {
			return nil, err
		}
		ctx = next
	}

	inv.state = StateRunningGuards
	for _, g := range p.guards {
		if failure := guard.Evaluate(ctx, g); failure != nil {
			return nil, &InvocationError{
				Kind:    ErrorKindGuard,
				Status:  failure.StatusCode,
				Message: failure.Message,
				Guard:   failure.Guard,
				Err:     failure,
			}
		}
	}

	inv.state = StateRunningHandler
	out, err := runHandler(ctx, input, p.handler)
	if err != nil {
		return nil, err
	}

	if p.resource != nil {
		inv.state = StateProjecting
		return projectOutput(out, p.resource)
	}
	return out, nil
}

// runMiddleware executes one middleware step and returns the extended
// context. The middleware must call next exactly once: zero calls stall the
// chain, repeat calls are a contract violation, and either fails the
// invocation.
func runMiddleware(ctx *Context, input any, mw Middleware) (*Context, error) {
	calls := 0
	result := ctx
	next := func(extension map[string]any) {
		calls++
		if calls == 1 {
			result = ctx.Extend(extension)
		}
	}

	if err := mw.Handle(ctx, input, next); err != nil {
		return nil, middlewareError(mw.Name, err)
	}
	switch {
	case calls == 0:
		return nil, middlewareError(mw.Name, errMiddlewareStalled)
	case calls > 1:
		return nil, middlewareError(mw.Name, errMiddlewareRepeated)
	}
	return result, nil
}

var (
	errMiddlewareStalled  = errors.New("middleware did not call next")
	errMiddlewareRepeated = errors.New("middleware called next more than once")
)

// runHandler executes the application handler, converting panics and raw
// errors into classified invocation failures. An *InvocationError returned
// by the handler passes through unchanged so handlers can signal specific
// statuses.
func runHandler(ctx *Context, input any, h Handler) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = handlerError(fmt.Errorf("panic: %v", r))
		}
	}()

	out, herr := h(ctx, input)
	if herr != nil {
		var ie *InvocationError
		if errors.As(herr, &ie) {
			return nil, ie
		}
		return nil, handlerError(herr)
	}
	return out, nil
}

// projectOutput applies the visibility view to the raw handler output. The
// handler contract requires the admin-level superset shape: a single object
// or a list of objects.
func projectOutput(out any, view *schema.Tagged) (any, error) {
	switch v := out.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return schema.Project(v, view), nil
	case []map[string]any:
		items := make([]any, len(v))
		for i, m := range v {
			items[i] = m
		}
		return schema.ProjectSlice(items, view), nil
	case []any:
		return schema.ProjectSlice(v, view), nil
	default:
		return nil, &InvocationError{
			Kind:    ErrorKindProjection,
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("cannot project output of type %T", out),
		}
	}
}
