package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/lodeworks/mooring/core/jsonhttp"
	"github.com/lodeworks/mooring/core/notifier"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const wsWriteTimeout = 10 * time.Second

type eventMessage struct {
	Subscription string `json:"subscription"`
	Object       string `json:"object"`
	Kind         string `json:"kind"`
}

// wsEndpoint delivers events over one websocket session.
type wsEndpoint struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func (e *wsEndpoint) ID() string { return e.id }

func (e *wsEndpoint) Notify(_ context.Context, ev notifier.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return e.conn.WriteJSON(eventMessage{
		Subscription: ev.Subscription.String(),
		Object:       ev.Object.String(),
		Kind:         ev.Kind.String(),
	})
}

func (s *server) subscribeHandler(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.parseAddress(w, mux.Vars(r)["address"])
	if !ok {
		return
	}

	// Upgrade writes its own error response on failure.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Debugf("subscribe %s: upgrade: %v", addr, err)
		return
	}
	s.metrics.WebsocketSessions.Inc()

	ep := &wsEndpoint{
		id:   fmt.Sprintf("ws-%s-%s", r.RemoteAddr, time.Now().Format(time.RFC3339Nano)),
		conn: conn,
	}
	if err := s.Engine.Subscribe(addr, ep); err != nil {
		s.Logger.Debugf("subscribe %s: %v", addr, err)
		conn.Close()
		return
	}

	// Read loop only detects the peer going away.
	go func() {
		defer func() {
			s.Engine.Unsubscribe(addr, ep.id)
			conn.Close()
			s.metrics.WebsocketSessions.Dec()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// webhookEndpoint posts events to a remote URL.
type webhookEndpoint struct {
	url    string
	client *http.Client
}

func (e *webhookEndpoint) ID() string { return e.url }

func (e *webhookEndpoint) Notify(ctx context.Context, ev notifier.Event) error {
	body, err := json.Marshal(eventMessage{
		Subscription: ev.Subscription.String(),
		Object:       ev.Object.String(),
		Kind:         ev.Kind.String(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", jsonhttp.DefaultContentTypeHeader)
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook %s: status %s", e.url, resp.Status)
	}
	return nil
}

type webhookRequest struct {
	Address string `json:"address"`
	URL     string `json:"url"`
}

func (s *server) webhookCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonhttp.BadRequest(w, "cannot decode request body")
		return
	}
	addr, ok := s.parseAddress(w, req.Address)
	if !ok {
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		jsonhttp.BadRequest(w, "invalid webhook url")
		return
	}

	ep := &webhookEndpoint{url: req.URL, client: http.DefaultClient}
	if err := s.Engine.Subscribe(addr, ep); err != nil {
		s.respondError(w, err)
		return
	}
	s.metrics.WebhooksRegistered.Inc()
	jsonhttp.Created(w, req)
}

func (s *server) webhookDeleteHandler(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonhttp.BadRequest(w, "cannot decode request body")
		return
	}
	addr, ok := s.parseAddress(w, req.Address)
	if !ok {
		return
	}
	s.Engine.Unsubscribe(addr, req.URL)
	jsonhttp.OK(w, nil)
}
