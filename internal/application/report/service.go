// Package reportapp imports Zalando report files and produces the accounting
// exports and article statistics built from them.
package reportapp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/report"
	"github.com/m13/backoffice/internal/domain/shared"
	"github.com/m13/backoffice/internal/infrastructure/reportcsv"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// storagePrefix is where uploaded report files are archived
const storagePrefix = "reports/zalando"

// ImportResult summarises one import run over all pending files
type ImportResult struct {
	Files    int           `json:"files"`
	Imported int           `json:"imported"`
	NewRows  int           `json:"new_rows"`
	Failed   []FileFailure `json:"failed,omitempty"`
}

// FileFailure is a transaction file that could not be imported
type FileFailure struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// TransactionFileService stores uploaded Zalando report files and imports them.
// Daily shipment imports register unknown article numbers as prices so the
// article stats can see them.
type TransactionFileService struct {
	files   report.TransactionFileRepository
	daily   report.DailyShipmentRepository
	sales   report.SalesLineRepository
	prices  catalog.PriceRepository
	configs catalog.MarketplaceConfigRepository
	store   shared.FileStore
	logger  *zap.Logger
}

// NewTransactionFileService creates a new TransactionFileService
func NewTransactionFileService(
	files report.TransactionFileRepository,
	daily report.DailyShipmentRepository,
	sales report.SalesLineRepository,
	prices catalog.PriceRepository,
	configs catalog.MarketplaceConfigRepository,
	store shared.FileStore,
	logger *zap.Logger,
) *TransactionFileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionFileService{
		files:   files,
		daily:   daily,
		sales:   sales,
		prices:  prices,
		configs: configs,
		store:   store,
		logger:  logger,
	}
}

// Upload archives a report file and registers it for import. File names are unique.
func (s *TransactionFileService) Upload(ctx context.Context, kind report.FileKind, fileName string, data []byte) (*report.TransactionFile, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	existing, err := s.files.FindByName(ctx, name)
	switch {
	case err == nil && existing != nil:
		return nil, fmt.Errorf("%w: %s", report.ErrFileAlreadyUploaded, name)
	case err != nil && !errors.Is(err, report.ErrFileNotFound):
		return nil, err
	}

	key := fmt.Sprintf("%s/%s/%s", storagePrefix, strings.ToLower(string(kind)), name)
	file, err := report.NewTransactionFile(kind, name, key)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, key, data, "text/csv"); err != nil {
		return nil, fmt.Errorf("archive %s: %w", name, err)
	}
	if err := s.files.Save(ctx, file); err != nil {
		return nil, err
	}
	s.logger.Info("Transaction file uploaded",
		zap.String("file", name),
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(data)))
	return file, nil
}

// ImportPending imports every unprocessed file, oldest first. A broken file is
// reported and left unprocessed; the others are still imported.
func (s *TransactionFileService) ImportPending(ctx context.Context) (*ImportResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "reports", "import")
	defer span.End()

	pending, err := s.files.FindUnprocessed(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	res := &ImportResult{Files: len(pending)}
	for _, f := range pending {
		n, err := s.importFile(ctx, f)
		if err != nil {
			s.logger.Error("Transaction file import failed", zap.String("file", f.FileName), zap.Error(err))
			res.Failed = append(res.Failed, FileFailure{FileName: f.FileName, Reason: err.Error()})
			continue
		}
		res.Imported++
		res.NewRows += n
	}
	s.logger.Info("Transaction files imported",
		zap.Int("files", res.Files),
		zap.Int("imported", res.Imported),
		zap.Int("new_rows", res.NewRows),
		zap.Int("failed", len(res.Failed)))
	return res, nil
}

func (s *TransactionFileService) importFile(ctx context.Context, f *report.TransactionFile) (int, error) {
	data, err := s.store.Get(ctx, f.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", f.StorageKey, err)
	}

	var (
		rows    int
		rowErrs *reportcsv.ErrorCollection
	)
	switch f.Kind {
	case report.FileKindDaily:
		lines, errs, err := reportcsv.ParseDailyShipments(bytes.NewReader(data))
		if err != nil {
			return 0, err
		}
		configID, err := s.activeZalandoConfig(ctx)
		if err != nil {
			return 0, err
		}
		for _, l := range lines {
			l.FileID = f.ID
			l.MarketplaceConfigID = configID
		}
		if err := s.ensurePrices(ctx, lines); err != nil {
			return 0, err
		}
		rowErrs = errs
		if rows, err = s.daily.SaveAll(ctx, lines); err != nil {
			return 0, err
		}
	case report.FileKindSales:
		lines, errs, err := reportcsv.ParseSalesReport(bytes.NewReader(data))
		if err != nil {
			return 0, err
		}
		for _, l := range lines {
			l.FileID = f.ID
		}
		rowErrs = errs
		if rows, err = s.sales.SaveAll(ctx, lines); err != nil {
			return 0, err
		}
	default:
		return 0, report.ErrInvalidFileKind
	}

	if rowErrs != nil && rowErrs.HasErrors() {
		s.logger.Warn("Skipped invalid report rows",
			zap.String("file", f.FileName),
			zap.Int("errors", rowErrs.TotalCount()),
			zap.String("details", rowErrs.String()))
	}
	f.MarkProcessed(rows)
	if err := s.files.Save(ctx, f); err != nil {
		return rows, err
	}
	return rows, nil
}

// activeZalandoConfig returns the id of the active Zalando cost config, or nil
// when none is configured yet
func (s *TransactionFileService) activeZalandoConfig(ctx context.Context) (*uuid.UUID, error) {
	cfg, err := s.configs.FindActive(ctx, catalog.ConfigMarketplaceZalando)
	switch {
	case err == nil:
		id := cfg.ID
		return &id, nil
	case errors.Is(err, catalog.ErrConfigNotFound):
		s.logger.Warn("No active Zalando config, daily lines stay unlinked")
		return nil, nil
	default:
		return nil, fmt.Errorf("load zalando config: %w", err)
	}
}

// ensurePrices creates price rows for article numbers seen for the first time
func (s *TransactionFileService) ensurePrices(ctx context.Context, lines []*report.DailyShipment) error {
	seen := make(map[string]bool, len(lines))
	created := 0
	for _, l := range lines {
		sku := strings.TrimSpace(l.ArticleNumber)
		key := strings.ToLower(sku)
		if sku == "" || seen[key] {
			continue
		}
		seen[key] = true
		ok, err := s.prices.EnsureSKU(ctx, sku, l.EAN)
		if err != nil {
			return fmt.Errorf("ensure price %s: %w", sku, err)
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		s.logger.Info("Prices created from daily shipments", zap.Int("count", created))
	}
	return nil
}

// ListFiles lists the latest uploads
func (s *TransactionFileService) ListFiles(ctx context.Context, limit int) ([]*report.TransactionFile, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.files.FindRecent(ctx, limit)
}

// DownloadURL returns a temporary link to the archived original
func (s *TransactionFileService) DownloadURL(ctx context.Context, f *report.TransactionFile) (string, error) {
	return s.store.URL(ctx, f.StorageKey, 15*time.Minute)
}
