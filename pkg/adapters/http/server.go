package http

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/pkg/auth"
	"github.com/aretw0/elementx/pkg/chem"
	"github.com/aretw0/elementx/pkg/observability"
	"github.com/aretw0/elementx/pkg/sanitize"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed openapi.yaml
var rawSpec []byte

// DefaultMaxUploadBytes bounds instrument file uploads.
const DefaultMaxUploadBytes int64 = 10 << 20

// Server serves the ElementX JSON API.
type Server struct {
	lab            *elementx.Lab
	auth           *auth.Service
	spec           *openapi3.T
	metrics        *observability.Metrics
	logger         *slog.Logger
	maxUploadBytes int64
	maxInputSize   int
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics exposes /metrics and times every request.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxUploadBytes bounds the size of multipart uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithMaxInputSize bounds each free-text field (formula, names, notes).
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxInputSize = n
		}
	}
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
}

// NewHandler creates the HTTP handler for the lab.
func NewHandler(lab *elementx.Lab, authSvc *auth.Service, opts ...Option) (http.Handler, error) {
	_, r, err := newServer(lab, authSvc, opts...)
	if err != nil {
		return nil, err
	}
	return enableCORS(r), nil
}

func newServer(lab *elementx.Lab, authSvc *auth.Service, opts ...Option) (*Server, chi.Router, error) {
	if lab == nil || authSvc == nil {
		return nil, nil, fmt.Errorf("lab and auth service are required")
	}
	spec, err := LoadSpec()
	if err != nil {
		return nil, nil, err
	}
	s := &Server{
		lab:            lab,
		auth:           authSvc,
		spec:           spec,
		logger:         slog.New(slog.DiscardHandler),
		maxUploadBytes: DefaultMaxUploadBytes,
		maxInputSize:   sanitize.DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, s.routes(), nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Get("/api/elements", s.ListElements)
	r.Post("/api/calculate", s.Calculate)
	r.Post("/api/auth/register", s.Register)
	r.Post("/api/auth/login", s.Login)

	r.Group(func(r chi.Router) {
		r.Use(s.requireUser)

		r.Get("/api/auth/me", s.Me)

		r.Get("/api/samples", s.ListSamples)
		r.Post("/api/samples", s.CreateSample)
		r.Get("/api/samples/{id}", s.GetSample)
		r.Delete("/api/samples/{id}", s.DeleteSample)
		r.Get("/api/samples/{id}/export.csv", s.ExportSample)

		r.Post("/api/xrd/upload", s.UploadXRD)
		r.Post("/api/magnetic/upload", s.UploadMagnetic)
		r.Get("/api/measurements", s.ListMeasurements)
		r.Get("/api/measurements/{id}", s.GetMeasurement)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "ElementX",
		"version":     strings.TrimSpace(elementx.Version),
		"api_version": apiVersion,
	})
}

// ListElements handles GET /api/elements.
func (s *Server) ListElements(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, chem.Elements())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
