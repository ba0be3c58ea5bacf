// Package response renders procedure results and failures as stable-shaped
// JSON envelopes. Raw stack traces never reach the wire: invocation errors
// map to status codes by kind, everything else becomes a generic internal
// error.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dphaener/relay/procedure"
)

// ErrorEnvelope is the stable error response shape
type ErrorEnvelope struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Code    string              `json:"code,omitempty"`
	Guard   string              `json:"guard,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// DataEnvelope wraps a successful procedure result
type DataEnvelope struct {
	Data any `json:"data"`
}

// RenderData renders a successful result
func RenderData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(DataEnvelope{Data: data})
}

// RenderError renders any error as an envelope. Invocation errors keep their
// classified status and carry guard names and per-field validation messages;
// unclassified errors render as 500 without leaking internals.
func RenderError(w http.ResponseWriter, err error) {
	var ie *procedure.InvocationError
	if errors.As(err, &ie) {
		renderInvocationError(w, ie)
		return
	}

	render(w, http.StatusInternalServerError, ErrorEnvelope{
		Error:   "error",
		Message: "Internal server error",
		Code:    "internal_error",
	})
}

// RenderBadRequest renders a 400 for malformed requests
func RenderBadRequest(w http.ResponseWriter, message string) {
	render(w, http.StatusBadRequest, ErrorEnvelope{
		Error:   "error",
		Message: message,
		Code:    "bad_request",
	})
}

// RenderNotFound renders a 404 for unknown procedures or routes
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Not found"
	}
	render(w, http.StatusNotFound, ErrorEnvelope{
		Error:   "error",
		Message: message,
		Code:    "not_found",
	})
}

func renderInvocationError(w http.ResponseWriter, ie *procedure.InvocationError) {
	envelope := ErrorEnvelope{
		Message: ie.Message,
		Guard:   ie.Guard,
	}

	switch ie.Kind {
	case procedure.ErrorKindValidation:
		envelope.Error = "validation_failed"
		envelope.Code = "validation_error"
		envelope.Fields = ie.Fields
	case procedure.ErrorKindGuard:
		envelope.Error = "error"
		envelope.Code = codeFromStatus(ie.Status)
	default:
		envelope.Error = "error"
		envelope.Code = codeFromStatus(ie.Status)
	}

	status := ie.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	render(w, status, envelope)
}

func render(w http.ResponseWriter, status int, envelope ErrorEnvelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope)
}

// codeFromStatus maps HTTP status codes to stable error codes
func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return "error"
	}
}
