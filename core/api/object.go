package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lodeworks/mooring/core/jsonhttp"
	"github.com/lodeworks/mooring/core/storage"
)

func (s *server) objectGetHandler(w http.ResponseWriter, r *http.Request) {
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
		s.Logger.Debugf("object get %s: %v", addr, err)
		jsonhttp.InternalServerError(w, nil)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Mooring-Kind", item.Kind.String())
	w.Write(item.Data)
}

type holdersResponse struct {
	Holders []string `json:"holders"`
}

func (s *server) holdersHandler(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}

	holders := s.Engine.Holders(addr)
	resp := holdersResponse{Holders: make([]string, 0, len(holders))}
	for _, h := range holders {
		// The self anchor is bookkeeping, not a holder worth listing.
		if h.Equal(addr) {
			continue
		}
		resp.Holders = append(resp.Holders, h.String())
	}
	jsonhttp.OK(w, resp)
}

type debindingResponse struct {
	Debinding string `json:"debinding"`
}

func (s *server) debindingHandler(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}

	d, ok := s.Engine.DebindingFor(addr)
	if !ok {
		jsonhttp.NotFound(w, nil)
		return
	}
	jsonhttp.OK(w, debindingResponse{Debinding: d.String()})
}

type lineageResponse struct {
	Frame   string `json:"frame"`
	Counter uint64 `json:"counter"`
}

func (s *server) lineageHandler(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}

	frame, counter, ok := s.Engine.Head(addr)
	if !ok {
		jsonhttp.NotFound(w, nil)
		return
	}
	jsonhttp.OK(w, lineageResponse{Frame: frame.String(), Counter: counter})
}
