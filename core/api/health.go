package api

import (
	"net/http"

	ver "github.com/lodeworks/mooring"
	"github.com/lodeworks/mooring/core/jsonhttp"
)

type statusResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	APIVersion string `json:"apiVersion"`
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonhttp.OK(w, statusResponse{
		Status:     "ok",
		Version:    ver.Version,
		APIVersion: Version,
	})
}

func (s *server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		jsonhttp.ServiceUnavailable(w, statusResponse{
			Status:     "reconciling",
			Version:    ver.Version,
			APIVersion: Version,
		})
		return
	}
	jsonhttp.OK(w, statusResponse{
		Status:     "ok",
		Version:    ver.Version,
		APIVersion: Version,
	})
}
