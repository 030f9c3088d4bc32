package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scandocs/docmatch/internal/session"
)

// sessionBeginHandler starts an acquisition cycle for the client's session.
// The form value "mode" selects camera, upload, or text acquisition. A session
// already past Home is reset first, so Begin is always safe to call.
func (s *Server) sessionBeginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mode := session.Mode(r.FormValue("mode"))
	switch mode {
	case session.ModeCamera, session.ModeUpload, session.ModeText:
	case "":
		mode = session.ModeUpload
	default:
		s.writeErrorResponse(w, "Unknown acquisition mode", http.StatusBadRequest)
		return
	}

	e := s.sessions.get(s.sessionID(w, r))
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sess.Reset()
	if err := e.sess.Begin(mode); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusConflict)
		return
	}
	e.notify()

	s.writeSessionResponse(w, e.sess.Snapshot(), nil)
}

// sessionImageHandler appends an uploaded document image to the session.
// Once both documents are present, processing runs in the same request and
// the response carries the comparison outcome.
func (s *Server) sessionImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		return
	}

	// A single upload event may carry several files; the session keeps the
	// first two by arrival order and silently ignores the rest.
	headers := r.MultipartForm.File["image"]
	if len(headers) == 0 {
		s.writeErrorResponse(w, "No image file provided", http.StatusBadRequest)
		return
	}

	uploads := make([][]byte, 0, len(headers))
	for _, h := range headers {
		data, ok := s.readUploadPart(w, h)
		if !ok {
			return
		}
		uploads = append(uploads, data)
	}

	source := session.SourceUpload
	if r.FormValue("source") == string(session.SourceCamera) {
		source = session.SourceCamera
	}

	e := s.sessions.get(s.sessionID(w, r))
	e.mu.Lock()
	defer e.mu.Unlock()

	accepted := false
	for _, data := range uploads {
		ok, _, err := e.sess.AddImage(data, source)
		if err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusConflict)
			return
		}
		accepted = accepted || ok
	}
	e.notify()

	s.finishAcquisition(w, r, e, accepted)
}

// sessionTextHandler appends directly supplied OCR text to the session,
// bypassing the OCR adapter.
func (s *Server) sessionTextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	text := r.FormValue("text")
	if text == "" {
		s.writeErrorResponse(w, "No text provided", http.StatusBadRequest)
		return
	}

	e := s.sessions.get(s.sessionID(w, r))
	e.mu.Lock()
	defer e.mu.Unlock()

	accepted, _, err := e.sess.AddText(text)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusConflict)
		return
	}
	e.notify()

	s.finishAcquisition(w, r, e, accepted)
}

// finishAcquisition processes the session when both documents are present,
// otherwise reports the acquisition progress. Called with e.mu held.
func (s *Server) finishAcquisition(w http.ResponseWriter, r *http.Request, e *sessionEntry, accepted bool) {
	if !e.sess.Ready() {
		s.writeSessionResponse(w, e.sess.Snapshot(), &accepted)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	e.notify() // processing state is observable before the result lands

	start := time.Now()
	res, err := e.sess.Process(ctx, s.pipeline)
	e.notify()

	if err != nil {
		compareRequestsTotal.WithLabelValues("session", "error").Inc()
		if errors.Is(err, session.ErrInsufficientImages) {
			s.writeErrorResponse(w, err.Error(), http.StatusConflict)
			return
		}
		s.writeErrorResponse(w, fmt.Sprintf("Processing failed: %v", err), http.StatusInternalServerError)
		return
	}

	compareRequestsTotal.WithLabelValues("session", "success").Inc()
	compareDuration.WithLabelValues("session").Observe(time.Since(start).Seconds())
	observeOutcome(res.Matched)

	s.writeSessionResponse(w, e.sess.Snapshot(), &accepted)
}

// sessionStatusHandler returns the current session snapshot.
func (s *Server) sessionStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	e := s.sessions.get(s.sessionID(w, r))
	e.mu.Lock()
	snap := e.sess.Snapshot()
	e.mu.Unlock()

	s.writeSessionResponse(w, snap, nil)
}

// sessionResetHandler discards all session state and returns to Home.
func (s *Server) sessionResetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	e := s.sessions.get(s.sessionID(w, r))
	e.mu.Lock()
	e.sess.Reset()
	e.notify()
	snap := e.sess.Snapshot()
	e.mu.Unlock()

	s.writeSessionResponse(w, snap, nil)
}

func (s *Server) writeSessionResponse(w http.ResponseWriter, snap session.Snapshot, accepted *bool) {
	w.Header().Set("Content-Type", "application/json")
	resp := SessionResponse{Success: true, Session: snap, Accepted: accepted}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to encode session response", "error", err)
	}
}
