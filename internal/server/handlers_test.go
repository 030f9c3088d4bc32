package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/scandocs/docmatch/internal/ocr"
	"github.com/scandocs/docmatch/internal/pipeline"
	"github.com/scandocs/docmatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, texts ...string) *Server {
	t.Helper()

	srv, err := NewServer(Config{
		CORSOrigin:     "*",
		MaxUploadMB:    10,
		TimeoutSec:     5,
		PipelineConfig: pipeline.DefaultConfig(),
		Engine:         ocr.NewStatic(texts...),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func serveRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(t)

	w := serveRequest(srv, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Time)
}

func TestHealthHandlerMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	w := serveRequest(srv, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCompareTextsMatch(t *testing.T) {
	srv := newTestServer(t)

	w := serveRequest(srv, postForm("/compare", url.Values{
		"text1": {"Invoice No: 4210001234567"},
		"text2": {"noise 4210001234567 noise"},
	}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.Matched)
	assert.Equal(t, []string{"4210001234567"}, resp.Result.Values)
}

func TestCompareTextsNoMatch(t *testing.T) {
	srv := newTestServer(t)

	w := serveRequest(srv, postForm("/compare", url.Values{
		"text1": {"Invoice No: 4210001234567"},
		"text2": {"Invoice No: 5559998887776"},
	}))
	require.Equal(t, http.StatusOK, w.Code)

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.Matched)
	// Candidate lists are exposed for human review even on no-match.
	assert.Len(t, resp.Result.Documents[0].Candidates, 1)
	assert.Len(t, resp.Result.Documents[1].Candidates, 1)
}

func TestCompareTextFormat(t *testing.T) {
	srv := newTestServer(t)

	w := serveRequest(srv, postForm("/compare?format=text", url.Values{
		"text1": {"Invoice No: 4210001234567"},
		"text2": {"4210001234567"},
	}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "MATCH FOUND")
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestCompareImages(t *testing.T) {
	srv := newTestServer(t,
		"Invoice No: 4210001234567",
		"Invoice No: 4210001234567",
	)

	img := testutil.DocumentPNG(t)
	body, contentType := multipartBody(t, map[string][]byte{"doc1": img, "doc2": img})

	req := httptest.NewRequest(http.MethodPost, "/compare", body)
	req.Header.Set("Content-Type", contentType)
	w := serveRequest(srv, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.Matched)
}

func TestCompareMissingFile(t *testing.T) {
	srv := newTestServer(t)

	img := testutil.DocumentPNG(t)
	body, contentType := multipartBody(t, map[string][]byte{"doc1": img})

	req := httptest.NewRequest(http.MethodPost, "/compare", body)
	req.Header.Set("Content-Type", contentType)
	w := serveRequest(srv, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "doc2")
}

func TestCompareInvalidImage(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, map[string][]byte{
		"doc1": []byte("not an image"),
		"doc2": []byte("also not an image"),
	})

	req := httptest.NewRequest(http.MethodPost, "/compare", body)
	req.Header.Set("Content-Type", contentType)
	w := serveRequest(srv, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCompareMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	w := serveRequest(srv, httptest.NewRequest(http.MethodGet, "/compare", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	w := serveRequest(srv, httptest.NewRequest(http.MethodOptions, "/compare", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}
