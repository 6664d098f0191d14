package api

import (
	"io"
	"net/http"

	"github.com/lodeworks/mooring/core/jsonhttp"
	"github.com/lodeworks/mooring/core/object"
	"github.com/lodeworks/mooring/core/tracer"
)

type publishResponse struct {
	Address   string `json:"address"`
	Kind      string `json:"kind"`
	Duplicate bool   `json:"duplicate"`
}

func (s *server) publishHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if c, err := s.Tracer.FromHTTPHeaders(r.Header); err == nil {
		ctx = tracer.WithContext(ctx, c)
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, int64(object.MaxPayloadSize)+1024))
	if err != nil {
		s.Logger.Debugf("publish: read body: %v", err)
		jsonhttp.BadRequest(w, "cannot read request body")
		return
	}
	if len(data) == 0 {
		jsonhttp.BadRequest(w, "empty body")
		return
	}

	receipt, err := s.Engine.Submit(ctx, data)
	if err != nil {
		s.Logger.Debugf("publish: %v", err)
		s.metrics.PublishRejected.Inc()
		s.respondError(w, err)
		return
	}

	resp := publishResponse{
		Address:   receipt.Address.String(),
		Kind:      receipt.Kind.String(),
		Duplicate: receipt.Duplicate,
	}
	if receipt.Duplicate {
		jsonhttp.OK(w, resp)
		return
	}
	s.metrics.PublishAccepted.Inc()
	jsonhttp.Created(w, resp)
}
