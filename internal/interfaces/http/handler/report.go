package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	reportapp "github.com/m13/backoffice/internal/application/report"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/infrastructure/logger"
)

// xlsxContentType is the media type of the stats workbook
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportFiles stores and imports Zalando report files
type ReportFiles interface {
	Upload(ctx context.Context, kind report.FileKind, fileName string, data []byte) (*report.TransactionFile, error)
	ImportPending(ctx context.Context) (*reportapp.ImportResult, error)
	ListFiles(ctx context.Context, limit int) ([]*report.TransactionFile, error)
	DownloadURL(ctx context.Context, f *report.TransactionFile) (string, error)
}

// DATEVExporter renders monthly DATEV batches
type DATEVExporter interface {
	Export(ctx context.Context, m integration.Marketplace, period report.Period) (*reportapp.Export, error)
}

// ArticleStatsSource computes the article statistics
type ArticleStatsSource interface {
	ArticleStats(ctx context.Context, since time.Time) (*reportapp.ArticleStatsReport, error)
}

// ReportHandler serves report uploads, accounting exports and statistics
type ReportHandler struct {
	BaseHandler
	files ReportFiles
	datev DATEVExporter
	stats ArticleStatsSource
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(files ReportFiles, datev DATEVExporter, stats ArticleStatsSource) *ReportHandler {
	return &ReportHandler{files: files, datev: datev, stats: stats}
}

// TransactionFileResponse is an uploaded report file
type TransactionFileResponse struct {
	ID          uuid.UUID  `json:"id"`
	Kind        string     `json:"kind"`
	FileName    string     `json:"file_name"`
	Processed   bool       `json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Rows        int        `json:"rows"`
	DownloadURL string     `json:"download_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toTransactionFileResponse(f *report.TransactionFile) TransactionFileResponse {
	return TransactionFileResponse{
		ID:          f.ID,
		Kind:        string(f.Kind),
		FileName:    f.FileName,
		Processed:   f.Processed,
		ProcessedAt: f.ProcessedAt,
		Rows:        f.Rows,
		CreatedAt:   f.CreatedAt,
	}
}

// UploadFile godoc
// @Summary      Upload a Zalando report file
// @Tags         reports
// @Accept       multipart/form-data
// @Param        kind formData string true "daily or sales"
// @Param        file formData file   true "Report CSV"
// @Failure      409 "A file with this name was already uploaded"
// @Router       /reports/zalando/files [post]
func (h *ReportHandler) UploadFile(c *gin.Context) {
	kind, err := report.ParseFileKind(c.PostForm("kind"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Multipart field 'file' is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.BadRequest(c, "Cannot read uploaded file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		h.BadRequest(c, "Cannot read uploaded file")
		return
	}

	file, err := h.files.Upload(c.Request.Context(), kind, fh.Filename, data)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toTransactionFileResponse(file))
}

// ListFiles godoc
// @Summary      List uploaded report files with a temporary download link
// @Tags         reports
// @Router       /reports/zalando/files [get]
func (h *ReportHandler) ListFiles(c *gin.Context) {
	ctx := c.Request.Context()
	files, err := h.files.ListFiles(ctx, limitQuery(c, 50))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]TransactionFileResponse, 0, len(files))
	for _, f := range files {
		resp := toTransactionFileResponse(f)
		if url, err := h.files.DownloadURL(ctx, f); err == nil {
			resp.DownloadURL = url
		} else {
			logger.L(ctx).Warn("No download link for report file", zap.String("file", f.FileName), zap.Error(err))
		}
		out = append(out, resp)
	}
	h.Success(c, out)
}

// Import godoc
// @Summary      Import every unprocessed report file
// @Tags         reports
// @Router       /reports/zalando/import [post]
func (h *ReportHandler) Import(c *gin.Context) {
	result, err := h.files.ImportPending(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// DATEVQuery selects the export month
type DATEVQuery struct {
	Year  int `form:"year" binding:"required,min=2000,max=2100"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

// DATEV godoc
// @Summary      Download the DATEV batch of a month
// @Tags         reports
// @Produce      text/csv
// @Param        marketplace path  string true "OTTO or ZALANDO"
// @Param        year        query int    true "Year"
// @Param        month       query int    true "Month"
// @Router       /reports/datev/{marketplace} [get]
func (h *ReportHandler) DATEV(c *gin.Context) {
	m, ok := h.marketplaceParam(c)
	if !ok {
		return
	}
	var q DATEVQuery
	if !h.bindQuery(c, &q) {
		return
	}
	period, err := report.NewPeriod(q.Year, q.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	export, err := h.datev.Export(c.Request.Context(), m, period)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	c.Header("X-Bookings", fmt.Sprint(export.Bookings))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", export.Data)
}

// StatsQuery selects the stats window and output format
type StatsQuery struct {
	Start  string `form:"start" binding:"required,datetime=2006-01-02"`
	Format string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// ArticleStats godoc
// @Summary      Article statistics per category
// @Tags         stats
// @Produce      json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        start  query string true  "First day, YYYY-MM-DD"
// @Param        format query string false "json (default) or xlsx"
// @Router       /stats/articles [get]
func (h *ReportHandler) ArticleStats(c *gin.Context) {
	var q StatsQuery
	if !h.bindQuery(c, &q) {
		return
	}
	since, _ := time.Parse(time.DateOnly, q.Start)
	stats, err := h.stats.ArticleStats(c.Request.Context(), since)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if q.Format != "xlsx" {
		h.Success(c, stats)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="article-stats-%s.xlsx"`, q.Start))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := stats.WriteXLSX(c.Writer); err != nil {
		_ = c.Error(err)
		logger.L(c.Request.Context()).Error("Writing stats workbook failed", zap.Error(err))
	}
}
