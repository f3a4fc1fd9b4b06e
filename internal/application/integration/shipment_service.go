package integrationapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/m13/backoffice/internal/domain/catalog"
	"github.com/m13/backoffice/internal/domain/integration"
	"github.com/m13/backoffice/internal/infrastructure/csvutil"
	"github.com/m13/backoffice/internal/infrastructure/telemetry"
)

// TrackingIssue is a tracking line that was not uploaded
type TrackingIssue struct {
	Line        int                     `json:"line"`
	Marketplace integration.Marketplace `json:"marketplace"`
	OrderID     string                  `json:"order_id"`
	Reason      string                  `json:"reason"`
}

// TrackingUploadResult summarises one tracking file
type TrackingUploadResult struct {
	Lines     int                     `json:"lines"`
	Routed    int                     `json:"routed"`
	Uploaded  int                     `json:"uploaded"`
	Rejected  int                     `json:"rejected"`
	Issues    []TrackingIssue         `json:"issues,omitempty"`
	Shipments []*integration.Shipment `json:"-"`
}

func (r *TrackingUploadResult) addIssue(row integration.TrackingRow, reason string) {
	r.Issues = append(r.Issues, TrackingIssue{
		Line:        row.Line,
		Marketplace: row.Marketplace,
		OrderID:     row.OrderID,
		Reason:      reason,
	})
}

// ShipmentService uploads tracking numbers from the shop export to the marketplaces
type ShipmentService struct {
	registry  integration.Registry
	orders    integration.OrderRepository
	shipments integration.ShipmentRepository
	failures  failureLog
	logger    *zap.Logger
	now       func() time.Time
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(
	registry integration.Registry,
	orders integration.OrderRepository,
	shipments integration.ShipmentRepository,
	errorRepo catalog.ErrorRecordRepository,
	logger *zap.Logger,
) *ShipmentService {
	logger = nopIfNil(logger)
	return &ShipmentService{
		registry:  registry,
		orders:    orders,
		shipments: shipments,
		failures:  failureLog{repo: errorRepo, logger: logger},
		logger:    logger,
		now:       time.Now,
	}
}

// UploadTrackingFile reads the latin1, `;` separated shop export and uploads every
// routed line. Lines without tracking or a known order are recorded and skipped.
func (s *ShipmentService) UploadTrackingFile(ctx context.Context, r io.Reader) (*TrackingUploadResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "shipments", "upload_tracking")
	defer span.End()

	reader := csvutil.NewLatin1Reader(r, ';')
	res := &TrackingUploadResult{}
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			err = fmt.Errorf("read tracking file line %d: %w", line, err)
			telemetry.RecordError(span, err)
			return res, err
		}
		res.Lines++
		row, ok := RouteTrackingRow(line, rec)
		if !ok {
			continue
		}
		res.Routed++
		s.uploadRow(ctx, row, res)
	}

	s.logger.Info("Tracking file processed",
		zap.Int("lines", res.Lines),
		zap.Int("routed", res.Routed),
		zap.Int("uploaded", res.Uploaded),
		zap.Int("rejected", res.Rejected),
		zap.Int("issues", len(res.Issues)))
	return res, nil
}

func (s *ShipmentService) uploadRow(ctx context.Context, row integration.TrackingRow, res *TrackingUploadResult) {
	where := fmt.Sprintf("tracking upload line %d", row.Line)
	if row.TrackingNumber == "" {
		s.logger.Warn("Tracking number missing", zap.Int("line", row.Line), zap.String("order_id", row.OrderID))
		res.addIssue(row, "tracking number missing")
		return
	}

	target, err := s.registry.ShipmentTarget(row.Marketplace)
	if err != nil {
		res.addIssue(row, err.Error())
		s.failures.record(ctx, row.Marketplace, where, err)
		return
	}
	order, err := s.orders.FindByMarketplaceOrderID(ctx, row.Marketplace, row.OrderID)
	if err != nil {
		res.addIssue(row, err.Error())
		s.failures.record(ctx, row.Marketplace, where, fmt.Errorf("order %s: %w", row.OrderID, err))
		return
	}

	req := integration.ShipmentRequest{
		Order:                order,
		Carrier:              row.Carrier,
		TrackingNumber:       row.TrackingNumber,
		ReturnTrackingNumber: row.ReturnTrackingNumber,
		ShipDate:             s.now(),
	}
	result, err := target.UploadShipment(ctx, req)
	if err != nil {
		res.Rejected++
		res.addIssue(row, err.Error())
		s.failures.record(ctx, row.Marketplace, where, fmt.Errorf("order %s: %w", row.OrderID, err))
		return
	}

	shipment := integration.NewShipment(req, result)
	if err := s.shipments.Save(ctx, shipment); err != nil {
		s.logger.Warn("Failed to store shipment", zap.String("order_id", row.OrderID), zap.Error(err))
	}
	res.Shipments = append(res.Shipments, shipment)

	if !result.Accepted() {
		res.Rejected++
		res.addIssue(row, fmt.Sprintf("HTTP %d", result.StatusCode))
		s.failures.record(ctx, row.Marketplace, where,
			fmt.Errorf("%w: order %s: HTTP %d: %s", integration.ErrShipmentUploadRejected, row.OrderID, result.StatusCode, result.Response))
		return
	}

	order.MarkShipped(req.Carrier, req.TrackingNumber, req.ShipDate)
	if err := s.orders.Save(ctx, order); err != nil {
		s.logger.Warn("Failed to mark order shipped", zap.String("order_id", row.OrderID), zap.Error(err))
	}
	res.Uploaded++
	s.logger.Info("Tracking uploaded",
		zap.String("marketplace", string(row.Marketplace)),
		zap.String("order_id", row.OrderID),
		zap.String("carrier", req.Carrier),
		zap.String("tracking", req.TrackingNumber))
}

// ListShipments lists stored tracking uploads, newest first
func (s *ShipmentService) ListShipments(ctx context.Context, m integration.Marketplace, limit int) ([]*integration.Shipment, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	return s.shipments.FindAll(ctx, m, limit)
}
