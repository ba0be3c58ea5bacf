package guard

import (
	"fmt"
	"net/http"
)

// Failure describes a failed guard evaluation: which guard failed and the
// status/message it declared. A nil *Failure means the guard passed.
type Failure struct {
	Guard      string
	StatusCode int
	Message    string
}

// Error implements the error interface
func (f *Failure) Error() string {
	return fmt.Sprintf("guard %s failed (%d): %s", f.Guard, f.StatusCode, f.Message)
}

// Evaluate runs a guard tree against a context. It is the single interpreter
// for all combinator semantics:
//
//   - a leaf predicate returning false fails with the leaf's status/message
//   - a leaf predicate returning an error fails with status 500 and the
//     error's message; errors are never inverted by Not
//   - allOf stops at the first failing member and reports it
//   - anyOf evaluates every member, passes if any passed, otherwise reports
//     the last evaluated member's failure
//   - not flips pass/fail of its wrapped guard, preserving the wrapped
//     guard's name, status, and message in the failure report
func Evaluate(ctx Context, g *Guard) *Failure {
	f, _ := eval(ctx, g)
	return f
}

// eval reports the failure, if any, and whether the failure came from a
// predicate error rather than a boolean result. Errors are not subject to
// polarity inversion.
func eval(ctx Context, g *Guard) (failure *Failure, erred bool) {
	switch g.kind {
	case kindLeaf:
		ok, err := g.check(ctx)
		if err != nil {
			return &Failure{
				Guard:      g.name,
				StatusCode: http.StatusInternalServerError,
				Message:    err.Error(),
			}, true
		}
		if !ok {
			return &Failure{Guard: g.name, StatusCode: g.status, Message: g.message}, false
		}
		return nil, false

	case kindAllOf:
		for _, m := range g.members {
			if f, e := eval(ctx, m); f != nil {
				return f, e
			}
		}
		return nil, false

	case kindAnyOf:
		var last *Failure
		lastErred := false
		passed := false
		for _, m := range g.members {
			f, e := eval(ctx, m)
			if f == nil {
				passed = true
			} else {
				last, lastErred = f, e
			}
		}
		if passed {
			return nil, false
		}
		if last == nil {
			// Empty anyOf has no member that can pass
			return &Failure{
				Guard:      g.name,
				StatusCode: http.StatusForbidden,
				Message:    "Forbidden",
			}, false
		}
		return last, lastErred

	case kindNot:
		wrapped := g.members[0]
		f, e := eval(ctx, wrapped)
		if e {
			return f, true
		}
		if f != nil {
			return nil, false
		}
		return &Failure{
			Guard:      wrapped.name,
			StatusCode: wrapped.status,
			Message:    wrapped.message,
		}, false
	}

	return &Failure{
		Guard:      g.name,
		StatusCode: http.StatusInternalServerError,
		Message:    "unknown guard kind",
	}, true
}
