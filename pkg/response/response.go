// Package response writes the JSON bodies used by the HTTP layer.
//
// Successful responses carry the resource itself, without an envelope.
// Errors use a single "detail" key:
//
//	{"detail": "Item with ID 1 not found"}
package response

import (
	"encoding/json"
	"net/http"
)

// DetailBody is the error payload shape.
type DetailBody struct {
	Detail    string            `json:"detail"`
	RequestID string            `json:"request_id,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Detail sends {"detail": message}.
func Detail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, DetailBody{Detail: message})
}

// ValidationError sends a 422 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, DetailBody{Detail: "Validation failed", Errors: errs})
}

// InternalError sends the generic 500 body tagged with the request id.
func InternalError(w http.ResponseWriter, requestID string) {
	JSON(w, http.StatusInternalServerError, DetailBody{Detail: "Internal server error", RequestID: requestID})
}

// NotFound sends a 404 with the default detail.
func NotFound(w http.ResponseWriter) {
	Detail(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed sends a 405 with the default detail.
func MethodNotAllowed(w http.ResponseWriter) {
	Detail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// NoContent sends an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
