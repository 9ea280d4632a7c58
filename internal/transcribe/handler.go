// Package transcribe proxies audio uploads to the configured
// speech-to-text backend. It is not part of the analytics core; it
// exists so the chat surface can accept voice questions.
package transcribe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"spyglass/pkg/clients"
	"spyglass/pkg/logging"
	"spyglass/pkg/redact"
)

// maxUploadSize caps audio uploads at 10MB, enforced before any byte is
// proxied to the backend.
const maxUploadSize int64 = 10 << 20

var allowedAudioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".webm": true,
}

// WordTiming is one word of the transcript with its time bounds.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the passthrough response from the speech-to-text backend.
type Transcript struct {
	Text  string       `json:"text"`
	Words []WordTiming `json:"words,omitempty"`
}

// Handler proxies audio to the speech-to-text backend.
type Handler struct {
	sttURL     string
	httpClient *http.Client
	logger     logging.Logger
}

func NewHandler(sttURL string, logger logging.Logger) *Handler {
	return &Handler{
		sttURL: sttURL,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: clients.DefaultTransport(),
		},
		logger: logger,
	}
}

// RegisterRoutes mounts the transcribe endpoint on the given route group.
func RegisterRoutes(router gin.IRoutes, handler *Handler) {
	router.POST("/transcribe", handler.HandleTranscribe)
}

func (h *Handler) HandleTranscribe(c *gin.Context) {
	if h.sttURL == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "transcription is not configured"})
		return
	}

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	if header != nil && header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("audio too large (max %d MB)", maxUploadSize>>20)})
		return
	}

	filename := "audio"
	if header != nil && header.Filename != "" {
		filename = filepath.Base(header.Filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" && !allowedAudioExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported audio type %q; allowed: .wav, .mp3, .m4a, .ogg, .flac, .webm", ext)})
		return
	}

	body, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		h.logger.WithError(err).Warn("Failed to read audio upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read audio"})
		return
	}
	if int64(len(body)) > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("audio too large (max %d MB)", maxUploadSize>>20)})
		return
	}

	transcript, err := h.proxy(c, filename, body)
	if err != nil {
		h.logger.WithError(err).Warn("Transcription backend failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": redact.Error(err)})
		return
	}

	c.JSON(http.StatusOK, transcript)
}

// proxy forwards the audio to the speech-to-text backend as a fresh
// multipart request and decodes the transcript.
func (h *Handler) proxy(c *gin.Context, filename string, audio []byte) (*Transcript, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), "POST", h.sttURL+"/transcribe", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call transcription backend: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("transcription backend returned status %d: %s", resp.StatusCode, redact.String(string(respBody)))
	}

	var transcript Transcript
	if err := json.Unmarshal(respBody, &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcription response: %w", err)
	}
	return &transcript, nil
}
