package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds the gorm tracing settings
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bind variables in db.statement
	SlowQueryThresh time.Duration
	DBName          string
}

// DBTracingPlugin registers otelgorm and flags slow statements on their span
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a DBTracingPlugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBName == "" {
		cfg.DBName = "m13"
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// Register installs otelgorm and the timing callbacks on db
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		return nil
	}
	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	// the annotating callbacks run before otelgorm ends the span
	cb := db.Callback()
	if err := errors.Join(
		cb.Create().Before("gorm:create").Register("m13_timing:before_create", markQueryStart),
		cb.Query().Before("gorm:query").Register("m13_timing:before_query", markQueryStart),
		cb.Update().Before("gorm:update").Register("m13_timing:before_update", markQueryStart),
		cb.Delete().Before("gorm:delete").Register("m13_timing:before_delete", markQueryStart),
		cb.Row().Before("gorm:row").Register("m13_timing:before_row", markQueryStart),
		cb.Raw().Before("gorm:raw").Register("m13_timing:before_raw", markQueryStart),
		cb.Create().After("gorm:create").Before("otel:after:create").Register("m13_timing:after_create", p.annotateSpan),
		cb.Query().After("gorm:query").Before("otel:after:query").Register("m13_timing:after_query", p.annotateSpan),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("m13_timing:after_update", p.annotateSpan),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("m13_timing:after_delete", p.annotateSpan),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("m13_timing:after_row", p.annotateSpan),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("m13_timing:after_raw", p.annotateSpan),
	); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) annotateSpan(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	// not found is a normal answer for FindBy* lookups
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		p.logger.Warn("Slow query",
			zap.String("table", db.Statement.Table),
			zap.Duration("elapsed", elapsed),
		)
	}
}
