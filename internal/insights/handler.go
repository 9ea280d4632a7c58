package insights

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"spyglass/pkg/logging"
)

// Handler exposes the analytics tools over HTTP for an external agent
// runtime.
type Handler struct {
	Service *Service
	Logger  logging.Logger
}

func NewHandler(service *Service, logger logging.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

// RegisterRoutes mounts the tool surface on the given route group.
func RegisterRoutes(router gin.IRoutes, handler *Handler) {
	router.GET("/tools", handler.HandleListTools)
	router.POST("/metrics", handler.HandleGetStreamingMetrics)
	router.POST("/errors", handler.HandleListErrors)
	router.POST("/video-views", handler.HandleListVideoViews)
	router.POST("/breakdown", handler.HandleGetMetricBreakdown)
}

// HandleListTools serves the machine-readable tool registry.
func (h *Handler) HandleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": ToolDefinitions})
}

// bindToolRequest decodes the invocation payload. An empty body is a
// valid request meaning "all defaults".
func bindToolRequest(c *gin.Context) (ToolRequest, bool) {
	var req ToolRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return ToolRequest{}, false
	}
	return req, true
}

func (h *Handler) HandleGetStreamingMetrics(c *gin.Context) {
	req, ok := bindToolRequest(c)
	if !ok {
		return
	}
	result := h.Service.GetStreamingMetrics(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleListErrors(c *gin.Context) {
	req, ok := bindToolRequest(c)
	if !ok {
		return
	}
	result := h.Service.ListErrors(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleListVideoViews(c *gin.Context) {
	req, ok := bindToolRequest(c)
	if !ok {
		return
	}
	result := h.Service.ListVideoViews(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HandleGetMetricBreakdown(c *gin.Context) {
	req, ok := bindToolRequest(c)
	if !ok {
		return
	}
	result := h.Service.GetMetricBreakdown(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}
