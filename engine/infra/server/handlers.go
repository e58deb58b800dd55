package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/engine/ingest"
	"github.com/shadabshaukat/searchd/engine/retriever"
	"github.com/shadabshaukat/searchd/engine/store"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	defaultTopK      = 10
)

// Ingestor runs one uploaded file through the ingestion pipeline.
type Ingestor interface {
	IngestFile(ctx context.Context, sourcePath, filename string, data []byte, metadata map[string]any) (*ingest.Result, error)
}

// Retriever answers search requests.
type Retriever interface {
	Search(ctx context.Context, req retriever.Request) (*retriever.Response, error)
}

// DocumentStore covers the document CRUD and readiness probes the handlers
// need from the database layer.
type DocumentStore interface {
	GetDocument(ctx context.Context, id uuid.UUID) (*core.Document, error)
	ListDocuments(ctx context.Context, limit, offset int) ([]store.DocumentSummary, error)
	UpdateDocumentMetadata(ctx context.Context, id uuid.UUID, metadata map[string]any) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	CheckReadiness(ctx context.Context) (*store.Readiness, error)
	HealthCheck(ctx context.Context) error
}

type handlers struct {
	ingestor       Ingestor
	searcher       Retriever
	docs           DocumentStore
	maxUploadBytes int64
}

// health handles GET /health. It reports process liveness plus database
// connectivity so probes catch a wedged pool before readiness flips.
func (h *handlers) health(c *gin.Context) {
	if err := h.docs.HealthCheck(c.Request.Context()); err != nil {
		core.RespondProblem(c, &core.Problem{Status: http.StatusServiceUnavailable, Detail: err.Error()})
		return
	}
	respondOK(c, "healthy", gin.H{"status": "ok"})
}

// ready handles GET /ready. A half-initialized schema answers 503 with the
// per-item breakdown so the missing piece is visible from the response.
func (h *handlers) ready(c *gin.Context) {
	readiness, err := h.docs.CheckReadiness(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if !readiness.Ready {
		c.JSON(http.StatusServiceUnavailable, Response{
			Status:  http.StatusServiceUnavailable,
			Message: "schema not ready",
			Data:    readiness,
		})
		return
	}
	respondOK(c, "ready", readiness)
}

// uploadDocuments handles POST /documents. It accepts one or more files in
// the "files" multipart field plus an optional "metadata" JSON object applied
// to every file. Files fail independently; one corrupt PDF never aborts the
// rest of the batch.
func (h *handlers) uploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		core.RespondProblem(c, &core.Problem{
			Status: http.StatusBadRequest,
			Detail: fmt.Sprintf("invalid multipart form: %v", err),
		})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		core.RespondProblem(c, &core.Problem{Status: http.StatusBadRequest, Detail: "no files provided"})
		return
	}
	metadata, err := parseMetadataField(form.Value["metadata"])
	if err != nil {
		core.RespondProblem(c, &core.Problem{Status: http.StatusBadRequest, Detail: err.Error()})
		return
	}
	out := UploadResponse{Files: make([]UploadFileResult, 0, len(files))}
	for _, fh := range files {
		result := UploadFileResult{Filename: fh.Filename}
		ingested, ingestErr := h.ingestOne(c.Request.Context(), fh.Filename, fh, metadata)
		if ingestErr != nil {
			logger.FromContext(c.Request.Context()).With(
				"filename", fh.Filename,
				"error", ingestErr,
			).Warn("File rejected during upload")
			result.Error = ingestErr.Error()
			out.Failed++
		} else {
			result.Ingested = ingested
			out.Accepted++
		}
		out.Files = append(out.Files, result)
	}
	if out.Accepted == 0 {
		c.JSON(http.StatusBadRequest, Response{
			Status:  http.StatusBadRequest,
			Message: "no files ingested",
			Data:    out,
		})
		return
	}
	respondCreated(c, "files ingested", out)
}

func (h *handlers) ingestOne(
	ctx context.Context,
	sourcePath string,
	fh *multipart.FileHeader,
	metadata map[string]any,
) (*ingest.Result, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds %d byte upload limit", core.ErrInvalidInput, h.maxUploadBytes)
	}
	return h.ingestor.IngestFile(ctx, sourcePath, sourcePath, data, metadata)
}

func parseMetadataField(values []string) (map[string]any, error) {
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return nil, nil
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(values[0]), &metadata); err != nil {
		return nil, fmt.Errorf("%w: metadata must be a JSON object: %v", core.ErrInvalidInput, err)
	}
	return metadata, nil
}

// search handles POST /search.
func (h *handlers) search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.RespondProblem(c, &core.Problem{
			Status: http.StatusBadRequest,
			Detail: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	mode, err := retriever.ParseMode(req.Mode)
	if err != nil {
		respondError(c, err)
		return
	}
	// An omitted top_k defaults here; a negative one reaches the retriever
	// and is rejected there.
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	resp, err := h.searcher.Search(c.Request.Context(), retriever.Request{
		Query: req.Query,
		Mode:  mode,
		TopK:  req.TopK,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "search completed", SearchResponse{
		Query:                req.Query,
		Mode:                 string(resp.Mode),
		TopK:                 len(resp.Results),
		Answer:               resp.Answer,
		SynthesisUnavailable: resp.SynthesisUnavailable,
		SynthesisFailure:     resp.SynthesisFailure,
		Results:              resp.Results,
	})
}

// listDocuments handles GET /documents.
func (h *handlers) listDocuments(c *gin.Context) {
	limit := queryInt(c, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	docs, err := h.docs.ListDocuments(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "documents retrieved", DocumentListResponse{Documents: docs, Limit: limit, Offset: offset})
}

// getDocument handles GET /documents/:id.
func (h *handlers) getDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, err := h.docs.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "document retrieved", doc)
}

// patchDocumentMetadata handles PATCH /documents/:id/metadata. The supplied
// object replaces the stored metadata wholesale.
func (h *handlers) patchDocumentMetadata(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req MetadataPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		core.RespondProblem(c, &core.Problem{
			Status: http.StatusBadRequest,
			Detail: fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	if err := h.docs.UpdateDocumentMetadata(c.Request.Context(), id, req.Metadata); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "metadata updated", gin.H{"document_id": id})
}

// deleteDocument handles DELETE /documents/:id. Chunks go with the document
// via the cascading foreign key.
func (h *handlers) deleteDocument(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.docs.DeleteDocument(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, "document deleted", gin.H{"document_id": id})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		core.RespondProblem(c, &core.Problem{
			Status: http.StatusBadRequest,
			Detail: fmt.Sprintf("invalid document id %q", c.Param("id")),
		})
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
