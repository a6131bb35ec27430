// Package httpx holds the HTTP plumbing shared by tasker's handlers:
// JSON encoding/decoding, the error envelope, request validation and the
// service-error translator.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes int64 = 1 << 20

// FieldError names one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type apiError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

// WriteJSON writes v with status. Responses are never cached.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the uniform error envelope.
func WriteError(w http.ResponseWriter, status int, code, msg string) {
	WriteJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

// WriteFieldErrors writes the envelope with per-field details.
func WriteFieldErrors(w http.ResponseWriter, status int, code, msg string, fields []FieldError) {
	WriteJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg, Fields: fields}})
}

// DecodeError reports a body that is not a single well-formed JSON object of the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "invalid request body: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// DecodeJSON reads exactly one JSON value into dst. Unknown fields are ignored;
// trailing data and bodies over maxBytes are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return &DecodeError{Err: errors.New("empty body")}
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &DecodeError{Err: fmt.Errorf("body exceeds %d bytes", tooLarge.Limit)}
		}
		if errors.Is(err, io.EOF) {
			return &DecodeError{Err: errors.New("empty body")}
		}
		return &DecodeError{Err: err}
	}
	// Ensure there is no extra data after the first JSON value.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &DecodeError{Err: errors.New("extra data after JSON object")}
	}
	return nil
}
