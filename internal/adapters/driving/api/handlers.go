package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
	"github.com/custodia-labs/askdocs/internal/logger"
)

// Handler serves the question and upload endpoints.
type Handler struct {
	query  driving.QueryService
	ingest driving.IngestionService
	status driving.StatusService
}

// NewHandler creates a handler. status may be nil, which disables /health details.
func NewHandler(query driving.QueryService, ingest driving.IngestionService, status driving.StatusService) *Handler {
	return &Handler{query: query, ingest: ingest, status: status}
}

// AskRequest is the /ask body.
type AskRequest struct {
	Query string `json:"query"`
}

// AskResponse is a successful /ask answer.
type AskResponse struct {
	Answer  string            `json:"answer"`
	Sources []domain.Citation `json:"sources"`
}

// UploadResponse reports a newly ingested file.
type UploadResponse struct {
	Status string `json:"status"`
	File   string `json:"file"`
	Chunks int    `json:"chunks"`
}

// DuplicateResponse reports an upload whose file was already ingested.
type DuplicateResponse struct {
	Warning string `json:"warning"`
	File    string `json:"file"`
}

// HealthResponse reports index state.
type HealthResponse struct {
	Status string `json:"status"`
	driving.IndexStatus
}

// HandleAsk answers a question from the knowledge base.
func (h *Handler) HandleAsk(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError(MsgQueryRequired)
	}
	if strings.TrimSpace(req.Query) == "" {
		return NewBadRequestError(MsgQueryRequired)
	}

	result, err := h.query.Answer(c.Request().Context(), req.Query)
	if err != nil {
		logger.Error("Query failed for %q: %v", req.Query, err)
		return FromDomain(err, MsgProcessing)
	}

	sources := result.Sources
	if sources == nil {
		sources = []domain.Citation{}
	}
	return c.JSON(http.StatusOK, AskResponse{Answer: result.Answer, Sources: sources})
}

// HandleUpload stores and ingests a PDF posted as multipart field "file".
func (h *Handler) HandleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil || fh.Filename == "" {
		return NewBadRequestError(MsgNoFile)
	}

	f, err := fh.Open()
	if err != nil {
		logger.Error("Open upload %s: %v", fh.Filename, err)
		return NewInternalError(MsgFileProcessing)
	}
	defer f.Close()

	result, err := h.ingest.Upload(c.Request().Context(), fh.Filename, f)
	if err != nil {
		logger.Error("Error processing %s: %v", fh.Filename, err)
		return FromDomain(err, MsgFileProcessing)
	}

	if result.AlreadyProcessed {
		return c.JSON(http.StatusOK, DuplicateResponse{Warning: MsgAlreadyIngested, File: result.File})
	}
	return c.JSON(http.StatusOK, UploadResponse{Status: MsgProcessed, File: result.File, Chunks: result.Chunks})
}

// HandleHealth reports liveness and index state.
func (h *Handler) HandleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if h.status != nil {
		st, err := h.status.Status(c.Request().Context())
		if err != nil {
			logger.Error("Health check failed: %v", err)
			return c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "degraded"})
		}
		resp.IndexStatus = *st
	}
	return c.JSON(http.StatusOK, resp)
}
