// Package httppeer replicates objects over the peer HTTP API: objects
// are fetched from GET /v1/objects/{address} and offered through
// POST /v1/publish, the same surface local clients use.
package httppeer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lodeworks/mooring/core/logging"
	"github.com/lodeworks/mooring/core/mooring"
	"github.com/lodeworks/mooring/core/replicator"
	"github.com/lodeworks/mooring/core/storage"
	"github.com/lodeworks/mooring/core/tracer"
)

const contentType = "application/octet-stream"

// maxObjectBody bounds how much of a peer response is read.
const maxObjectBody = 8 * 1024 * 1024

// Options configures the peer client.
type Options struct {
	// Peers are base URLs of remote replicas, e.g. http://replica:8080.
	Peers []string
	// Timeout bounds each individual peer call.
	Timeout time.Duration
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// Service talks to a static set of peers. Fetch tries peers in order
// and returns the first hit; Push fans out to all peers concurrently.
type Service struct {
	peers   []string
	client  *http.Client
	timeout time.Duration
	tracer  *tracer.Tracer
	metrics metrics
	logger  logging.Logger
}

// New constructs a peer replicator. tr may be nil.
func New(o Options, tr *tracer.Tracer, logger logging.Logger) *Service {
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	peers := make([]string, 0, len(o.Peers))
	for _, p := range o.Peers {
		peers = append(peers, strings.TrimRight(p, "/"))
	}
	return &Service{
		peers:   peers,
		client:  o.Client,
		timeout: o.Timeout,
		tracer:  tr,
		metrics: newMetrics(),
		logger:  logger,
	}
}

var _ replicator.Interface = (*Service)(nil)

// Fetch asks each peer in turn for the object and returns the first
// successful response.
func (s *Service) Fetch(ctx context.Context, addr mooring.Address) ([]byte, error) {
	if len(s.peers) == 0 {
		return nil, storage.ErrNotFound
	}
	var lastErr error
	for _, peer := range s.peers {
		data, err := s.fetchFrom(ctx, peer, addr)
		if err == nil {
			s.metrics.FetchHits.Inc()
			return data, nil
		}
		if err == storage.ErrNotFound {
			continue
		}
		s.metrics.PeerErrors.Inc()
		s.logger.Debugf("httppeer: fetch %s from %s: %v", addr, peer, err)
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, storage.ErrNotFound
}

func (s *Service) fetchFrom(ctx context.Context, peer string, addr mooring.Address) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer+"/v1/objects/"+addr.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", contentType)
	s.injectTrace(ctx, req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(io.LimitReader(resp.Body, maxObjectBody))
	case http.StatusNotFound:
		return nil, storage.ErrNotFound
	default:
		return nil, fmt.Errorf("peer %s: status %s", peer, resp.Status)
	}
}

// Push offers the object to every peer concurrently. A peer that
// already has the object, or rejects it, is not an error worth
// failing the push for; only transport failures are reported.
func (s *Service) Push(ctx context.Context, item *storage.Item) error {
	if len(s.peers) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, peer := range s.peers {
		peer := peer
		g.Go(func() error {
			if err := s.pushTo(ctx, peer, item); err != nil {
				s.metrics.PeerErrors.Inc()
				return fmt.Errorf("push to %s: %w", peer, err)
			}
			s.metrics.Pushes.Inc()
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) pushTo(ctx context.Context, peer string, item *storage.Item) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer+"/v1/publish", bytes.NewReader(item.Data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	s.injectTrace(ctx, req)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("peer %s: status %s", peer, resp.Status)
	}
	return nil
}

func (s *Service) injectTrace(ctx context.Context, req *http.Request) {
	if s.tracer == nil {
		return
	}
	if err := s.tracer.AddContextHTTPHeader(ctx, req.Header); err != nil && err != tracer.ErrContextNotFound {
		s.logger.Debugf("httppeer: inject trace header: %v", err)
	}
}
