// Package server assembles the HTTP surface: the GraphQL endpoint behind the
// auth gate, the explorer, health and metrics.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/graphql-go/graphql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/groupexpenses/internal/config"
	"github.com/mmynk/groupexpenses/internal/gql"
	"github.com/mmynk/groupexpenses/internal/middleware"
	"github.com/mmynk/groupexpenses/internal/storage"
)

const graphqlPath = "/graphql"

// Deps are the collaborators the router wires together.
type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       storage.Store
	Schema      graphql.Schema
	Tokens      middleware.TokenVerifier
	Metrics     *middleware.Metrics
	Registry    *prometheus.Registry
	RateLimiter *middleware.RateLimiter

	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
}

// NewRouter builds the application's HTTP handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RealIP(deps.TrustedProxies))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Instrument)
	}

	gate := middleware.NewAuthGate(
		deps.Tokens,
		gql.NewAllowList(!deps.Config.Production()),
		deps.Metrics,
		deps.Logger,
	)
	var endpoint http.Handler = gate.Middleware(gql.NewHandler(deps.Schema, deps.Store, deps.Config, deps.Logger))
	if deps.RateLimiter != nil {
		endpoint = deps.RateLimiter.Middleware(endpoint)
	}
	r.Method(http.MethodPost, graphqlPath, endpoint)

	if !deps.Config.Production() {
		r.Get(graphqlPath, gql.Explorer(graphqlPath))
	}

	r.Get("/health_check", healthCheck)

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
