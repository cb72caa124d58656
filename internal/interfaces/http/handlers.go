package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/billing-assistant/internal/application/workflow"
	"github.com/garyjia/billing-assistant/internal/domain/entity"
	"github.com/garyjia/billing-assistant/internal/outbox"
	"github.com/garyjia/billing-assistant/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	runs   RunService
	outbox OutboxReader
	health HealthFunc
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(runs RunService, outbox OutboxReader, health HealthFunc, logger Logger) *Handlers {
	return &Handlers{
		runs:   runs,
		outbox: outbox,
		health: health,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// StartRunRequest is the body of POST /api/runs
type StartRunRequest struct {
	Task         string `json:"task" binding:"required"`
	Account      string `json:"account"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	ContactEmail string `json:"contact_email"`
}

// ResumeRunRequest is the body of POST /api/runs/resume
type ResumeRunRequest struct {
	State       *entity.WorkflowState `json:"state" binding:"required"`
	EditedDraft *string               `json:"edited_draft"`
	Approved    bool                  `json:"approved"`
}

// OutboxResponse lists recorded emails
type OutboxResponse struct {
	Count   int            `json:"count"`
	Entries []outbox.Entry `json:"entries"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	status := http.StatusOK
	if h.health != nil {
		healthy, details := h.health()
		response.Components = details
		if !healthy {
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// StartRun handles POST /api/runs
func (h *Handlers) StartRun(c *gin.Context) {
	var req StartRunRequest
	if !h.bind(c, &req) {
		return
	}

	st, err := h.runs.Start(c.Request.Context(), workflow.StartRequest{
		Task:         entity.TaskKind(utils.SanitizeLine(req.Task)),
		Account:      utils.SanitizeLine(req.Account),
		StartDate:    utils.SanitizeLine(req.StartDate),
		EndDate:      utils.SanitizeLine(req.EndDate),
		ContactEmail: utils.SanitizeLine(req.ContactEmail),
	})
	tagRun(c, st)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}

		h.logger.Error("Run failed", "task", req.Task, "error", err)
		c.JSON(http.StatusInternalServerError, failure(st, "run failed"))
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    st,
	})
}

// ResumeRun handles POST /api/runs/resume
func (h *Handlers) ResumeRun(c *gin.Context) {
	var req ResumeRunRequest
	if !h.bind(c, &req) {
		return
	}

	st, err := h.runs.Resume(c.Request.Context(), req.State, req.EditedDraft, req.Approved)
	tagRun(c, st)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidApprovalState) {
			c.JSON(http.StatusConflict, Response{
				Success: false,
				Data:    st,
				Error:   "run is not awaiting approval",
			})
			return
		}
		if errors.Is(err, workflow.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Data:    st,
				Error:   err.Error(),
			})
			return
		}

		h.logger.Error("Resume failed", "stage", req.State.Stage, "error", err)
		c.JSON(http.StatusInternalServerError, failure(st, "resume failed"))
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    st,
	})
}

// ListOutbox handles GET /api/outbox
func (h *Handlers) ListOutbox(c *gin.Context) {
	entries, err := h.outbox.Entries(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read outbox", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to read outbox",
		})
		return
	}
	if entries == nil {
		entries = []outbox.Entry{}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: OutboxResponse{
			Count:   len(entries),
			Entries: entries,
		},
	})
}

// bind decodes the JSON body into dst and writes the error response on failure
func (h *Handlers) bind(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, Response{
			Success: false,
			Error:   fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return false
	}

	h.logger.Error("Invalid request body", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   "invalid request body",
	})
	return false
}

func tagRun(c *gin.Context, st *entity.WorkflowState) {
	if st != nil && st.RunID != "" {
		c.Set(runIDKey, st.RunID)
	}
}

// failure reports the run's own plain-language message when there is one
func failure(st *entity.WorkflowState, fallback string) Response {
	resp := Response{Success: false, Error: fallback}
	if st != nil {
		resp.Data = st
		if st.UIMessage != "" {
			resp.Error = st.UIMessage
		}
	}
	return resp
}
