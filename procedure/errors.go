package procedure

import (
	"fmt"
	"net/http"
)

// Build error codes. Builder misuse fails synchronously at definition time,
// never at call time.
const (
	// CodeNilHandler means a terminal step was called without a handler
	CodeNilHandler = "B001"
	// CodeAlreadyCompiled means a terminal step was called twice
	CodeAlreadyCompiled = "B002"
	// CodeNilMiddleware means Use was called with a nil middleware function
	CodeNilMiddleware = "B003"
	// CodeNilGuard means Guard was called with a nil guard
	CodeNilGuard = "B004"
	// CodeEmptyNamespace means a collection was created without a namespace
	CodeEmptyNamespace = "B010"
	// CodeEmptyProcedureName means a collection entry has an empty name
	CodeEmptyProcedureName = "B011"
	// CodeNilProcedure means a collection entry holds a nil procedure
	CodeNilProcedure = "B012"
)

// BuildError is a construction-time failure with guidance on how to fix the
// definition.
type BuildError struct {
	Code    string
	Message string
	Hint    string
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newBuildError(code, message, hint string) *BuildError {
	return &BuildError{Code: code, Message: message, Hint: hint}
}

// ErrorKind classifies a failed invocation
type ErrorKind string

const (
	// ErrorKindValidation means the input failed schema validation
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindMiddleware means a middleware errored or did not continue
	ErrorKindMiddleware ErrorKind = "middleware"
	// ErrorKindGuard means a guard denied the invocation
	ErrorKindGuard ErrorKind = "guard"
	// ErrorKindHandler means the handler returned or panicked with an error
	ErrorKindHandler ErrorKind = "handler"
	// ErrorKindProjection means the output could not be projected
	ErrorKindProjection ErrorKind = "projection"
)

// InvocationError is the single stable failure shape for a procedure call.
// Raw errors from application code never cross the engine boundary; they are
// caught, classified, and wrapped here.
type InvocationError struct {
	Kind    ErrorKind
	Status  int
	Message string

	// Fields carries per-field messages for validation failures
	Fields map[string][]string

	// Guard is the failing guard's declared name for guard failures
	Guard string

	// Err is the underlying cause, if any
	Err error
}

// Error implements the error interface
func (e *InvocationError) Error() string {
	switch e.Kind {
	case ErrorKindGuard:
		return fmt.Sprintf("%s error: %s denied: %s", e.Kind, e.Guard, e.Message)
	default:
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying cause
func (e *InvocationError) Unwrap() error {
	return e.Err
}

func validationError(fields map[string][]string, err error) *InvocationError {
	return &InvocationError{
		Kind:    ErrorKindValidation,
		Status:  http.StatusUnprocessableEntity,
		Message: "The request contains invalid data",
		Fields:  fields,
		Err:     err,
	}
}

func middlewareError(name string, err error) *InvocationError {
	return &InvocationError{
		Kind:    ErrorKindMiddleware,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("middleware %s failed: %v", name, err),
		Err:     err,
	}
}

func handlerError(err error) *InvocationError {
	return &InvocationError{
		Kind:    ErrorKindHandler,
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		Err:     err,
	}
}
