package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mdherunjalal99/ShopeeTracker/internal/job"
	"github.com/mdherunjalal99/ShopeeTracker/internal/model"
	"github.com/mdherunjalal99/ShopeeTracker/internal/store"
)

// MaxUploadBytes caps uploaded workbook size.
const MaxUploadBytes = 16 << 20

// Handlers wires the HTTP surface to the job engine.
type Handlers struct {
	engine   *job.Engine
	registry *job.Registry
	history  *store.Store
	uploads  string
	workers  int
	logger   *slog.Logger
}

// NewHandlers creates the API handlers. history may be nil.
func NewHandlers(engine *job.Engine, registry *job.Registry, history *store.Store, uploadsDir string, defaultWorkers int, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultWorkers <= 0 {
		defaultWorkers = job.DefaultWorkers
	}
	return &Handlers{
		engine:   engine,
		registry: registry,
		history:  history,
		uploads:  uploadsDir,
		workers:  defaultWorkers,
		logger:   logger,
	}
}

// Response is the common API envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

func errorResponse(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{Code: code, Message: message})
}

// RegisterRoutes mounts the API.
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/health", h.Health)
	api.POST("/jobs", h.SubmitJob)
	api.GET("/jobs/:id", h.GetJob)
	api.GET("/jobs/:id/download", h.DownloadJob)
	api.GET("/runs", h.ListRuns)
}

// Health reports liveness.
// GET /api/health
func (h *Handlers) Health(c *gin.Context) {
	success(c, gin.H{"ok": true})
}

// SubmitJob accepts a workbook upload and starts a tracking run.
// POST /api/jobs  (multipart: file, workers)
func (h *Handlers) SubmitJob(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, 1001, "missing workbook file")
		return
	}
	if file.Size > MaxUploadBytes {
		errorResponse(c, http.StatusBadRequest, 1002, "workbook exceeds the upload limit")
		return
	}
	name := filepath.Base(file.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		errorResponse(c, http.StatusBadRequest, 1003, "only .xlsx workbooks are accepted")
		return
	}

	workers := h.workers
	if v := c.PostForm("workers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errorResponse(c, http.StatusBadRequest, 1004, "workers must be a positive integer")
			return
		}
		workers = n
	}

	// Prefix with a fresh id so concurrent uploads of the same file
	// never collide.
	path := filepath.Join(h.uploads, fmt.Sprintf("%s-%s", uuid.New().String(), name))
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.logger.Error("upload save failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, 2001, "could not store the uploaded workbook")
		return
	}

	status := h.engine.Submit(path, workers)
	h.logger.Info("job submitted", "job", status.ID(), "workbook", name, "workers", workers)

	success(c, gin.H{"jobId": status.ID()})
}

// jobView is the poll payload. Prices stay null until fetched; a null
// price renders as unavailable, never as zero.
type jobView struct {
	ID       string            `json:"id"`
	Status   model.JobState    `json:"status"`
	Progress int               `json:"progress"`
	Total    int               `json:"total"`
	Results  []model.RowResult `json:"results"`
	Error    string            `json:"error,omitempty"`
}

// GetJob returns the current snapshot of a run.
// GET /api/jobs/:id
func (h *Handlers) GetJob(c *gin.Context) {
	status, ok := h.registry.Get(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, 3001, "job not found")
		return
	}

	snap := status.Snapshot()
	success(c, jobView{
		ID:       snap.ID,
		Status:   snap.State,
		Progress: snap.Progress,
		Total:    snap.Total,
		Results:  snap.Results,
		Error:    snap.Error,
	})
}

// DownloadJob streams the updated workbook of a completed run.
// GET /api/jobs/:id/download
func (h *Handlers) DownloadJob(c *gin.Context) {
	status, ok := h.registry.Get(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, 3001, "job not found")
		return
	}

	snap := status.Snapshot()
	if snap.State != model.JobCompleted {
		errorResponse(c, http.StatusConflict, 3002, "job has not completed")
		return
	}

	c.FileAttachment(snap.OutputPath, filepath.Base(snap.OutputPath))
}

// ListRuns returns recent run history.
// GET /api/runs?limit=20
func (h *Handlers) ListRuns(c *gin.Context) {
	if h.history == nil {
		errorResponse(c, http.StatusServiceUnavailable, 4001, "run history is not available")
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := h.history.ListRuns(limit)
	if err != nil {
		h.logger.Error("run history query failed", "error", err)
		errorResponse(c, http.StatusInternalServerError, 4002, "could not read run history")
		return
	}
	success(c, runs)
}
