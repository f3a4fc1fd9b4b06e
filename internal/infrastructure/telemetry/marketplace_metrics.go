package telemetry

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MarketplaceMetrics counts outbound marketplace calls, synced records and
// scheduler runs.
type MarketplaceMetrics struct {
	calls        *Counter
	callFailures *Counter
	callDuration *Histogram
	ordersSynced *Counter
	stockPushed  *Counter
	stockFailed  *Counter
	jobRuns      *Counter
	jobDuration  *Histogram
}

// NewMarketplaceMetrics creates the instruments on meter
func NewMarketplaceMetrics(meter metric.Meter) (*MarketplaceMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		m   MarketplaceMetrics
		err error
	)
	if m.calls, err = NewCounter(meter, "m13_marketplace_calls_total", "Outbound marketplace API calls", "{call}"); err != nil {
		return nil, err
	}
	if m.callFailures, err = NewCounter(meter, "m13_marketplace_call_failures_total", "Marketplace API calls without a response or with a 5xx status", "{call}"); err != nil {
		return nil, err
	}
	if m.callDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "m13_marketplace_call_duration_seconds",
		Description: "Duration of marketplace API calls",
		Unit:        "s",
		Boundaries:  CallDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.ordersSynced, err = NewCounter(meter, "m13_orders_synced_total", "Orders imported from marketplaces", "{order}"); err != nil {
		return nil, err
	}
	if m.stockPushed, err = NewCounter(meter, "m13_stock_items_pushed_total", "Stock and price items accepted by marketplaces", "{item}"); err != nil {
		return nil, err
	}
	if m.stockFailed, err = NewCounter(meter, "m13_stock_items_failed_total", "Stock and price items rejected by marketplaces", "{item}"); err != nil {
		return nil, err
	}
	if m.jobRuns, err = NewCounter(meter, "m13_scheduler_job_runs_total", "Finished scheduler jobs", "{job}"); err != nil {
		return nil, err
	}
	if m.jobDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "m13_scheduler_job_duration_seconds",
		Description: "Duration of scheduler jobs",
		Unit:        "s",
		Boundaries:  JobDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordCall records one marketplace API call. status is 0 when no response arrived.
func (m *MarketplaceMetrics) RecordCall(ctx context.Context, marketplace string, status int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{AttrMarketplace.String(marketplace), AttrStatusClass.String(statusClass(status))}
	m.calls.Inc(ctx, attrs...)
	if err != nil || status == 0 || status >= 500 {
		m.callFailures.Inc(ctx, AttrMarketplace.String(marketplace))
	}
	if duration > 0 {
		m.callDuration.RecordDuration(ctx, duration, attrs...)
	}
}

// RecordOrdersSynced adds n imported orders
func (m *MarketplaceMetrics) RecordOrdersSynced(ctx context.Context, marketplace string, n int) {
	if n > 0 {
		m.ordersSynced.Add(ctx, int64(n), AttrMarketplace.String(marketplace))
	}
}

// RecordItemsPushed adds the outcome of a stock or price push
func (m *MarketplaceMetrics) RecordItemsPushed(ctx context.Context, marketplace string, ok, failed int) {
	if ok > 0 {
		m.stockPushed.Add(ctx, int64(ok), AttrMarketplace.String(marketplace))
	}
	if failed > 0 {
		m.stockFailed.Add(ctx, int64(failed), AttrMarketplace.String(marketplace))
	}
}

// RecordJob records a finished scheduler job
func (m *MarketplaceMetrics) RecordJob(ctx context.Context, jobType string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.jobRuns.Inc(ctx, AttrJobType.String(jobType), AttrJobResult.String(result))
	m.jobDuration.RecordDuration(ctx, duration, AttrJobType.String(jobType))
}

func statusClass(status int) string {
	if status <= 0 {
		return "none"
	}
	return strconv.Itoa(status/100) + "xx"
}
