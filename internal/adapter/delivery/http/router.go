// Package http provides the HTTP delivery layer for the URL shortener service.
// This package contains the HTTP handlers and related types used for processing
// incoming requests, validating input, and formatting responses.
package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vadimbarashkov/shortlinks/pkg/middleware/recoverer"
)

// ReservedCodes returns the top level path segments routed ahead of
// /{shortCode}. A record stored under one of them could never be reached.
func ReservedCodes() []string {
	return []string{"metrics", "swagger", "docs"}
}

type metricsCollector interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type routerOptions struct {
	baseURL     string
	metrics     metricsCollector
	swaggerPath string
}

type RouterOption func(*routerOptions)

// WithBaseURL sets the prefix used to build short_url in responses.
func WithBaseURL(baseURL string) RouterOption {
	return func(o *routerOptions) {
		o.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithMetrics instruments every route and mounts the collector at /metrics.
func WithMetrics(m metricsCollector) RouterOption {
	return func(o *routerOptions) {
		o.metrics = m
	}
}

func WithSwaggerFile(path string) RouterOption {
	return func(o *routerOptions) {
		if path != "" {
			o.swaggerPath = path
		}
	}
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts ...RouterOption) *chi.Mux {
	o := routerOptions{
		baseURL:     "http://localhost:8080",
		swaggerPath: "./docs/swagger.yml",
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"POST", "GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if o.metrics != nil {
		r.Use(o.metrics.Middleware)
	}
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger, recoverer.WithResponse(serverErrorResponse)))

	if o.metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.metrics.Handler())
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, o.swaggerPath)
	})

	validate := validator.New()
	h := newURLHandler(urlUseCase, validate, o.baseURL)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Get("/stats", h.listStats)

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", h.shortenURLs)
			r.Get("/{shortCode}/stats", h.getURLStats)
		})
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
