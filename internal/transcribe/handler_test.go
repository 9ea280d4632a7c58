package transcribe

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"spyglass/pkg/logging"
)

func newTestRouter(sttURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/api/spyglass")
	RegisterRoutes(group, NewHandler(sttURL, logging.NewLogger()))
	return router
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestTranscribeProxiesAudio(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("backend did not receive audio: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "question.wav" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"how were errors last week","words":[{"word":"how","start":0,"end":0.3}]}`))
	}))
	defer backend.Close()

	router := newTestRouter(backend.URL)
	body, contentType := multipartBody(t, "audio", "question.wav", []byte("RIFF fake audio"))

	req := httptest.NewRequest("POST", "/api/spyglass/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var transcript Transcript
	if err := json.Unmarshal(w.Body.Bytes(), &transcript); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if transcript.Text != "how were errors last week" {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
	if len(transcript.Words) != 1 || transcript.Words[0].Word != "how" {
		t.Fatalf("word timings not passed through: %+v", transcript.Words)
	}
}

func TestTranscribeRejectsOversizedUpload(t *testing.T) {
	backendHit := false
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backendHit = true
	}))
	defer backend.Close()

	router := newTestRouter(backend.URL)
	big := make([]byte, maxUploadSize+1)
	body, contentType := multipartBody(t, "audio", "big.wav", big)

	req := httptest.NewRequest("POST", "/api/spyglass/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized audio, got %d", w.Code)
	}
	if backendHit {
		t.Fatal("oversized audio must be rejected before proxying")
	}
}

func TestTranscribeRejectsMissingFile(t *testing.T) {
	router := newTestRouter("http://stt.invalid")

	req := httptest.NewRequest("POST", "/api/spyglass/transcribe", bytes.NewReader(nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a file, got %d", w.Code)
	}
}

func TestTranscribeRejectsUnsupportedType(t *testing.T) {
	router := newTestRouter("http://stt.invalid")
	body, contentType := multipartBody(t, "audio", "notes.txt", []byte("not audio"))

	req := httptest.NewRequest("POST", "/api/spyglass/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported type, got %d", w.Code)
	}
}

func TestTranscribeUnconfigured(t *testing.T) {
	router := newTestRouter("")
	body, contentType := multipartBody(t, "audio", "question.wav", []byte("RIFF"))

	req := httptest.NewRequest("POST", "/api/spyglass/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when STT is not configured, got %d", w.Code)
	}
}

func TestTranscribeBackendErrorRedacted(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`invalid key sk1234567890abcdefghijklmnop`))
	}))
	defer backend.Close()

	router := newTestRouter(backend.URL)
	body, contentType := multipartBody(t, "audio", "question.wav", []byte("RIFF"))

	req := httptest.NewRequest("POST", "/api/spyglass/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("sk1234567890abcdefghijklmnop")) {
		t.Fatalf("backend secret leaked: %s", w.Body.String())
	}
}
