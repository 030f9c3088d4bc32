package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scandocs/docmatch/internal/ocr"
	"github.com/scandocs/docmatch/internal/pipeline"
)

// pipelineInterface defines the methods needed by the server from a pipeline.
type pipelineInterface interface {
	ExtractImage(ctx context.Context, data []byte) (*pipeline.DocumentResult, error)
	ExtractText(text string) *pipeline.DocumentResult
	CompareImages(ctx context.Context, a, b []byte) (*pipeline.CompareResult, error)
	CompareTexts(a, b string) *pipeline.CompareResult
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    pipelineInterface
	sessions    *sessionStore
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	SessionTTL      time.Duration
	PipelineConfig  pipeline.Config
	// Engine overrides the Tesseract engine built from PipelineConfig.
	// Used by tests and text-only deployments.
	Engine ocr.Engine
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// CompareResponse wraps a comparison result for API endpoints.
type CompareResponse struct {
	Success bool                    `json:"success"`
	Result  *pipeline.CompareResult `json:"result,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// SessionResponse wraps a session snapshot for the session endpoints.
type SessionResponse struct {
	Success  bool   `json:"success"`
	Session  any    `json:"session,omitempty"`
	Accepted *bool  `json:"accepted,omitempty"`
	Error    string `json:"error,omitempty"`
}

// NewServer creates a new comparison server instance.
func NewServer(config Config) (*Server, error) {
	cfg := config.PipelineConfig

	nb := pipeline.NewBuilder().
		WithIdentifierLength(cfg.Extract.CanonicalLength).
		WithDigitWindow(cfg.Extract.MinDigits, cfg.Extract.MaxDigits).
		WithSuffixLength(cfg.Match.SuffixLength).
		WithFuzzyMatching(cfg.Match.FuzzyEnabled).
		WithVendorLabels(cfg.Extract.Labels).
		WithAutoOrient(cfg.Preprocess.AutoOrient).
		WithLandscapeRotate(cfg.Preprocess.LandscapeRotate).
		WithGrayscale(cfg.Preprocess.Grayscale).
		WithContrastFactor(cfg.Preprocess.ContrastFactor).
		WithUpscaleFactor(cfg.Preprocess.UpscaleFactor).
		WithOCRLanguages(cfg.OCR.Languages).
		WithDigitsOnly(cfg.OCR.DigitsOnly).
		WithSparseText(cfg.OCR.SparseText).
		WithOCRTimeout(cfg.OCRTimeout).
		WithPDFInput(cfg.AcceptPDF)
	if config.Engine != nil {
		nb = nb.WithOCREngine(config.Engine)
	}

	pl, err := nb.Build()
	if err != nil {
		return nil, err
	}

	ttl := config.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Server{
		pipeline:    pl,
		sessions:    newSessionStore(ttl),
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	s.sessions.Close()
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/compare", s.corsMiddleware(s.compareHandler))
	mux.HandleFunc("/session", s.corsMiddleware(s.sessionStatusHandler))
	mux.HandleFunc("/session/begin", s.corsMiddleware(s.sessionBeginHandler))
	mux.HandleFunc("/session/images", s.corsMiddleware(s.sessionImageHandler))
	mux.HandleFunc("/session/texts", s.corsMiddleware(s.sessionTextHandler))
	mux.HandleFunc("/session/reset", s.corsMiddleware(s.sessionResetHandler))
	mux.HandleFunc("/session/events", s.sessionEventsHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
