package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/card-thumbnails/app/batch"
	"github.com/lysyi3m/card-thumbnails/app/tasks"
)

func NewHandler(nodes NodeReader, files FileCounter, previewer Previewer, runs RunReader,
	scheduler tasks.TaskSchedulerInterface, styleName, version string) *Handler {
	return &Handler{
		nodes:     nodes,
		files:     files,
		previewer: previewer,
		runs:      runs,
		scheduler: scheduler,
		styleName: styleName,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":         time.Now().In(time.Local).Format(time.RFC3339),
		"style":             h.styleName,
		"default_thumbnail": h.previewer.DefaultPath(),
		"version":           h.version,
	}

	if nodeCount, err := h.nodes.Count(); err == nil {
		health["nodes"] = nodeCount
	} else {
		slog.Error("Database error", "operation", "count_nodes", "error", err)
	}

	if fileCount, err := h.files.Count(); err == nil {
		health["files"] = fileCount
	} else {
		slog.Error("Database error", "operation", "count_files", "error", err)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APICreateRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing content_type"})
		return
	}

	run, err := h.scheduler.QueueRun(req.ContentType)
	if err != nil {
		slog.Error("Error enqueueing run", "type", req.ContentType, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, newRunResponse(run))
}

func (h *Handler) APIListRuns(c *gin.Context) {
	runs := h.runs.List()

	response := make([]runResponse, 0, len(runs))
	for _, run := range runs {
		response = append(response, newRunResponse(run))
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  response,
		"total": len(response),
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	run, ok := h.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}

	c.JSON(http.StatusOK, newRunResponse(run))
}

func (h *Handler) APIPreviewThumbnail(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		return
	}

	node, err := h.nodes.Load(id)
	if err != nil {
		slog.Error("Database error", "operation", "load_node", "nid", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if node == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}

	langcode := c.DefaultQuery("lang", node.DefaultLangcode)
	if node.Translation(langcode) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Translation not found"})
		return
	}

	res, err := h.previewer.ResolveMarkup(node, langcode)
	if err != nil {
		slog.Error("Thumbnail resolution failed", "nid", id, "langcode", langcode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Thumbnail resolution failed"})
		return
	}

	c.JSON(http.StatusOK, previewResponse{
		NodeID:           id,
		Langcode:         langcode,
		Markup:           res.Markup,
		DerivativeSource: res.DerivativeSource,
		DerivativeURI:    res.DerivativeURI,
	})
}

func (h *Handler) APIBuildThumbnail(c *gin.Context) {
	id, ok := nodeID(c)
	if !ok {
		return
	}

	taskID, err := h.scheduler.QueueBuild(id)
	if err != nil {
		slog.Error("Error enqueueing build task", "nid", id, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue build task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   taskID,
			"type": tasks.TaskTypeBuildNode,
			"nid":  id,
		},
	})
}

func nodeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid node ID"})
		return 0, false
	}
	return id, true
}

func newRunResponse(run batch.Run) runResponse {
	return runResponse{
		Run:   run,
		Items: len(run.Results),
		Built: run.Built(),
	}
}
