package logging

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// NewHTTPAccessLogHandler logs one line per served request at the
// given level, with method, path, status and duration fields.
func NewHTTPAccessLogHandler(logger Logger, level logrus.Level, message string) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			h.ServeHTTP(rec, r)

			if logger.GetLevel() < level {
				return
			}
			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"uri":      r.RequestURI,
				"status":   rec.status,
				"duration": time.Since(start).Seconds(),
				"remote":   r.RemoteAddr,
			}).Log(level, message)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.written {
		r.status = status
		r.written = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.written = true
	return r.ResponseWriter.Write(b)
}

// Hijack exposes the underlying writer's http.Hijacker so that
// connection upgrades (websockets) work through this middleware.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}
