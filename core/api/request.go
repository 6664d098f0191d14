package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lodeworks/mooring/core/jsonhttp"
	"github.com/lodeworks/mooring/core/storage"
)

type mailboxResponse struct {
	Requests []string `json:"requests"`
}

func (s *server) mailboxHandler(w http.ResponseWriter, r *http.Request) {
	recipient, ok := s.parseAddress(w, mux.Vars(r)["recipient"])
	if !ok {
		return
	}

	reqs := s.Engine.Requests(recipient)
	resp := mailboxResponse{Requests: make([]string, 0, len(reqs))}
	for _, req := range reqs {
		resp.Requests = append(resp.Requests, req.String())
	}
	jsonhttp.OK(w, resp)
}

func (s *server) ackHandler(w http.ResponseWriter, r *http.Request) {
	recipient, ok := s.parseAddress(w, mux.Vars(r)["recipient"])
	if !ok {
		return
	}
	addr, ok := s.parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}

	item, err := s.Engine.Get(r.Context(), addr)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonhttp.NotFound(w, nil)
			return
		}
		jsonhttp.InternalServerError(w, nil)
		return
	}
	if !item.Author.Equal(recipient) {
		jsonhttp.Forbidden(w, "request addressed to another recipient")
		return
	}

	if err := s.Engine.Ack(r.Context(), addr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			jsonhttp.NotFound(w, nil)
			return
		}
		s.respondError(w, err)
		return
	}
	jsonhttp.OK(w, nil)
}
