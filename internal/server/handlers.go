package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/scandocs/docmatch/internal/pipeline"
)

const formatText = "text"

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}

// compareHandler runs a stateless two-document comparison. Documents arrive
// either as multipart files "doc1" and "doc2" (image or PDF) or as form
// values "text1" and "text2" carrying OCR text directly.
func (s *Server) compareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	// Text-only comparisons may arrive urlencoded rather than multipart.
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	var (
		res  *pipeline.CompareResult
		mode string
	)

	start := time.Now()
	if t1, t2 := r.FormValue("text1"), r.FormValue("text2"); t1 != "" || t2 != "" {
		mode = "text"
		res = s.pipeline.CompareTexts(t1, t2)
	} else {
		mode = "image"
		doc1, ok := s.readUpload(w, r, "doc1")
		if !ok {
			return
		}
		doc2, ok := s.readUpload(w, r, "doc2")
		if !ok {
			return
		}

		ctx, cancel := s.requestContext(r)
		defer cancel()

		var err error
		res, err = s.pipeline.CompareImages(ctx, doc1, doc2)
		if err != nil {
			compareRequestsTotal.WithLabelValues(mode, "error").Inc()
			s.writeErrorResponse(w, fmt.Sprintf("Comparison failed: %v", err), http.StatusInternalServerError)
			return
		}
	}

	compareRequestsTotal.WithLabelValues(mode, "success").Inc()
	compareDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	observeOutcome(res.Matched)

	s.writeCompareResult(w, r, res)
}

// readUpload pulls one multipart file field and returns its bytes. On failure
// it writes the error response and returns ok=false.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	_, header, err := r.FormFile(field)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("No %s file provided", field), http.StatusBadRequest)
		return nil, false
	}
	return s.readUploadPart(w, header)
}

// readUploadPart reads the bytes of one multipart file part, enforcing the
// upload size limit.
func (s *Server) readUploadPart(w http.ResponseWriter, header *multipart.FileHeader) ([]byte, bool) {
	file, err := header.Open()
	if err != nil {
		s.writeErrorResponse(w, "Failed to read file data", http.StatusInternalServerError)
		return nil, false
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUploadMB*1024*1024 {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read file data", http.StatusInternalServerError)
		return nil, false
	}

	uploadSizeBytes.Observe(float64(len(data)))
	return data, true
}

// requestContext derives a processing context bounded by the server timeout.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeoutSec > 0 {
		return context.WithTimeout(r.Context(), time.Duration(s.timeoutSec)*time.Second)
	}
	return context.WithCancel(r.Context())
}

// writeCompareResult renders a comparison result as JSON or plain text,
// depending on the 'format' query or form value.
func (s *Server) writeCompareResult(w http.ResponseWriter, r *http.Request, res *pipeline.CompareResult) {
	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}

	if format == formatText {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		out, err := pipeline.ToPlainText(res)
		if err != nil {
			http.Error(w, fmt.Sprintf("formatting failed: %v", err), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(out))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(CompareResponse{Success: true, Result: res}); err != nil {
		slog.Error("Failed to encode compare response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := CompareResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
