package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogapp "github.com/m13/backoffice/internal/application/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/scheduler"
)

// JobQueue is the part of the scheduler the API talks to
type JobQueue interface {
	Submit(t scheduler.JobType, target string) (*scheduler.Job, error)
	Active() []scheduler.Job
	History(limit int) []scheduler.Job
}

// JobLog reads the persisted job records
type JobLog interface {
	RecentJobs(ctx context.Context, limit int) ([]catalogapp.JobResponse, error)
}

// allMarketplaces is the path value that targets every enabled marketplace
const allMarketplaces = "all"

// syncKinds maps the last path segment of /sync to a job type
var syncKinds = map[string]scheduler.JobType{
	"orders": scheduler.JobOrderImport,
	"stock":  scheduler.JobStockSync,
	"prices": scheduler.JobPriceSync,
}

// SyncHandler enqueues marketplace jobs and reports their state
type SyncHandler struct {
	BaseHandler
	queue JobQueue
	log   JobLog
}

// NewSyncHandler creates a new SyncHandler. log may be nil.
func NewSyncHandler(queue JobQueue, log JobLog) *SyncHandler {
	return &SyncHandler{queue: queue, log: log}
}

// QueuedJobResponse is a scheduler job in API responses
type QueuedJobResponse struct {
	ID          uuid.UUID  `json:"id"`
	Type        string     `json:"type"`
	Target      string     `json:"target,omitempty"`
	Status      string     `json:"status"`
	Summary     string     `json:"summary,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// JobsResponse lists the scheduler state and the persisted job records
type JobsResponse struct {
	Active  []QueuedJobResponse      `json:"active"`
	History []QueuedJobResponse      `json:"history"`
	Records []catalogapp.JobResponse `json:"records,omitempty"`
}

func toQueuedJob(j *scheduler.Job) QueuedJobResponse {
	return QueuedJobResponse{
		ID:          j.ID,
		Type:        string(j.Type),
		Target:      j.Target,
		Status:      string(j.Status),
		Summary:     j.Summary,
		Error:       j.Error,
		RetryCount:  j.RetryCount,
		EnqueuedAt:  j.EnqueuedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		NextRetryAt: j.NextRetryAt,
	}
}

func toQueuedJobs(jobs []scheduler.Job) []QueuedJobResponse {
	out := make([]QueuedJobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toQueuedJob(&jobs[i]))
	}
	return out
}

// Enqueue godoc
// @Summary      Queue an order import, stock sync or price sync
// @Description  "all" as marketplace targets every enabled marketplace.
// @Tags         sync
// @Param        marketplace path string true "Marketplace code or all"
// @Param        kind        path string true "orders, stock or prices"
// @Success      202
// @Failure      409 "The same job is already queued"
// @Router       /sync/{marketplace}/{kind} [post]
func (h *SyncHandler) Enqueue(c *gin.Context) {
	jobType, ok := syncKinds[c.Param("kind")]
	if !ok {
		h.BadRequest(c, "Kind must be one of: orders stock prices")
		return
	}

	target := ""
	if raw := c.Param("marketplace"); !strings.EqualFold(raw, allMarketplaces) {
		m, err := integration.ParseMarketplace(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		target = string(m)
	}

	job, err := h.queue.Submit(jobType, target)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toQueuedJob(job))
}

// ListJobs godoc
// @Summary      Show running, queued and finished jobs
// @Tags         jobs
// @Param        limit query int false "History entries"
// @Router       /jobs [get]
func (h *SyncHandler) ListJobs(c *gin.Context) {
	limit := limitQuery(c, 50)
	resp := JobsResponse{
		Active:  toQueuedJobs(h.queue.Active()),
		History: toQueuedJobs(h.queue.History(limit)),
	}
	if h.log != nil {
		records, err := h.log.RecentJobs(c.Request.Context(), limit)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		resp.Records = records
	}
	h.Success(c, resp)
}
