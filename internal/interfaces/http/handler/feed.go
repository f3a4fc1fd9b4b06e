package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	integrationapp "github.com/m13/backoffice/internal/application/integration"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/scheduler"
)

// FeedRunner builds feeds in the request and lists past runs
type FeedRunner interface {
	UploadZalandoFeed(ctx context.Context, opts integrationapp.FeedRunOptions) (*integration.FeedUpload, error)
	ListFeedUploads(ctx context.Context, m integration.Marketplace, limit int) ([]*integration.FeedUpload, error)
}

// FeedHandler triggers the Zalando and Galeria feeds
type FeedHandler struct {
	BaseHandler
	feeds FeedRunner
	queue JobQueue
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feeds FeedRunner, queue JobQueue) *FeedHandler {
	return &FeedHandler{feeds: feeds, queue: queue}
}

// UploadZalando godoc
// @Summary      Upload the Zalando feed
// @Description  Queues a feed_upload job. With dry_run=true the feed is built and
// @Description  validated in the request and nothing is uploaded.
// @Tags         feeds
// @Param        dry_run query bool false "Validate only"
// @Router       /feeds/zalando [post]
func (h *FeedHandler) UploadZalando(c *gin.Context) {
	dryRun, _ := strconv.ParseBool(c.Query("dry_run"))
	if dryRun {
		upload, err := h.feeds.UploadZalandoFeed(c.Request.Context(), integrationapp.FeedRunOptions{DryRun: true})
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, integrationapp.ToFeedUploadResponse(upload))
		return
	}
	h.enqueue(c, "zalando")
}

// BuildGaleria godoc
// @Summary      Build the Galeria feed
// @Tags         feeds
// @Router       /feeds/galeria [post]
func (h *FeedHandler) BuildGaleria(c *gin.Context) {
	h.enqueue(c, "galeria")
}

func (h *FeedHandler) enqueue(c *gin.Context, feed string) {
	job, err := h.queue.Submit(scheduler.JobFeedUpload, feed)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toQueuedJob(job))
}

// List godoc
// @Summary      List feed runs
// @Tags         feeds
// @Param        marketplace query string false "ZALANDO or GALERIA"
// @Router       /feeds [get]
func (h *FeedHandler) List(c *gin.Context) {
	m, ok := h.optionalMarketplace(c, c.Query("marketplace"))
	if !ok {
		return
	}
	uploads, err := h.feeds.ListFeedUploads(c.Request.Context(), m, limitQuery(c, 50))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, integrationapp.ToFeedUploadResponses(uploads))
}
