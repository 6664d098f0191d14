package jsonhttp

import (
	"net/http"

	"resenje.org/web"
)

// MethodHandler dispatches a request by HTTP method, responding 405 in
// the JSON envelope for methods without a handler.
type MethodHandler map[string]http.Handler

func (h MethodHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	web.HandleMethods(h, `{"message":"Method Not Allowed","code":405}`, DefaultContentTypeHeader, w, r)
}

func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	NotFound(w, nil)
}
