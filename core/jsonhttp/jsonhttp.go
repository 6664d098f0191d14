// Package jsonhttp provides convenience methods to write JSON encoded
// responses in the canonical envelope used by the HTTP API.
package jsonhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
)

var (
	// DefaultContentTypeHeader is the value of Content-Type header for
	// all responses written by this package.
	DefaultContentTypeHeader = "application/json; charset=utf-8"
	// EscapeHTML enables JSON encoder HTML escaping.
	EscapeHTML = false
)

// StatusResponse is the response body for a bare status code.
type StatusResponse struct {
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Respond writes response with the given status code as JSON. A nil
// response is replaced with a StatusResponse for the code; a string
// response becomes the message of a StatusResponse.
func Respond(w http.ResponseWriter, statusCode int, response interface{}) {
	if response == nil {
		response = &StatusResponse{
			Message: http.StatusText(statusCode),
			Code:    statusCode,
		}
	} else if message, ok := response.(string); ok {
		response = &StatusResponse{
			Message: message,
			Code:    statusCode,
		}
	}
	w.Header().Set("Content-Type", DefaultContentTypeHeader)
	w.WriteHeader(statusCode)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(EscapeHTML)
	if err := enc.Encode(response); err != nil {
		panic(fmt.Errorf("json encode response: %w", err))
	}
}

func OK(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusOK, response)
}

func Created(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusCreated, response)
}

func Accepted(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusAccepted, response)
}

func BadRequest(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusBadRequest, response)
}

func Unauthorized(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusUnauthorized, response)
}

func Forbidden(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusForbidden, response)
}

func NotFound(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusNotFound, response)
}

func Conflict(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusConflict, response)
}

func InternalServerError(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusInternalServerError, response)
}

func ServiceUnavailable(w http.ResponseWriter, response interface{}) {
	Respond(w, http.StatusServiceUnavailable, response)
}
