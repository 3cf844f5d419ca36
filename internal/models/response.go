package models

// ErrorResponse is the standard JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
	// FieldErrors carries per-field messages for validation failures so
	// the client can re-render the form inline.
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}
