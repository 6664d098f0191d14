package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"resenje.org/web"

	"github.com/lodeworks/mooring/core/jsonhttp"
	"github.com/lodeworks/mooring/core/logging"
)

func (s *server) setupRouting() {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(jsonhttp.NotFoundHandler)

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "mooring node")
	})

	router.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "User-agent: *\nDisallow: /")
	})

	router.HandleFunc("/health", s.healthHandler)
	router.HandleFunc("/readiness", s.readinessHandler)
	router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	router.Handle("/v1/publish", jsonhttp.MethodHandler{
		"POST": http.HandlerFunc(s.publishHandler),
	})

	router.Handle("/v1/objects/{address}", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.objectGetHandler),
	})

	router.Handle("/v1/objects/{address}/holders", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.holdersHandler),
	})

	router.Handle("/v1/objects/{address}/debinding", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.debindingHandler),
	})

	router.Handle("/v1/lineages/{address}", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.lineageHandler),
	})

	router.Handle("/v1/requests/{recipient}", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.mailboxHandler),
	})

	router.Handle("/v1/requests/{recipient}/{address}", jsonhttp.MethodHandler{
		"DELETE": http.HandlerFunc(s.ackHandler),
	})

	router.Handle("/v1/subscribe/{address}", http.HandlerFunc(s.subscribeHandler))

	router.Handle("/v1/webhooks", jsonhttp.MethodHandler{
		"POST":   http.HandlerFunc(s.webhookCreateHandler),
		"DELETE": http.HandlerFunc(s.webhookDeleteHandler),
	})

	s.Handler = web.ChainHandlers(
		logging.NewHTTPAccessLogHandler(s.Logger, logrus.InfoLevel, "api access"),
		handlers.CompressHandler,
		s.pageviewMetricsHandler,
		web.FinalHandler(router),
	)
}

func (s *server) pageviewMetricsHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.PageviewCount.Inc()
		h.ServeHTTP(w, r)
	})
}
