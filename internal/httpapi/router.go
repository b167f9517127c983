// Package httpapi exposes plan generation and modification over JSON HTTP.
package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"household-meal-planner/internal/app"
	"household-meal-planner/internal/auth"
	"household-meal-planner/internal/metrics"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const requestTimeout = 90 * time.Second

// Handler serves the planner API.
type Handler struct {
	service    *app.Service
	verifier   *auth.Verifier
	collectors *metrics.Collectors
	proxies    []netip.Prefix
	dataDir    string
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewHandler creates a Handler. verifier and collectors may be nil; without
// a verifier every caller is anonymous.
func NewHandler(service *app.Service, verifier *auth.Verifier, collectors *metrics.Collectors, dataDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:    service,
		verifier:   verifier,
		collectors: collectors,
		dataDir:    dataDir,
		validate:   validator.New(),
		logger:     logger.Named("http"),
	}
}

// TrustProxies lets requests from these peers name the client address in
// X-Real-IP or X-Forwarded-For. Without it the connection address is used.
func (h *Handler) TrustProxies(proxies []netip.Prefix) *Handler {
	h.proxies = proxies
	return h
}

// Routes builds the router. Callers may mount more routes on the result.
func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(RealIP(h.proxies))
	r.Use(Logger(h.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.handleHealth)
	if h.collectors != nil {
		r.Method(http.MethodGet, "/metrics", h.collectors.Handler())
	}

	r.Route("/v1/plans", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(requestTimeout))
		r.Use(Identity(h.verifier))

		r.Post("/", h.handleGenerate)
		r.Get("/latest", h.handleLatest)
		r.Get("/{id}", h.handleGet)
		r.Post("/{id}/modifications", h.handleModify)
		r.Get("/{id}/shopping-list", h.handleShoppingList)
	})

	return r
}
