package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Kit line operations used as the operation attribute of catalogo_kit_lines_total
const (
	KitLineInserted = "inserted"
	KitLineUpdated  = "updated"
	KitLineDeleted  = "deleted"
)

// CatalogMetrics tracks kit reconciliation, optimistic-lock rejections,
// event publication and catalog size.
type CatalogMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	kitLinesTotal        *Counter
	staleRejectionsTotal *Counter
	eventsPublishedTotal *Counter
	eventsFailedTotal    *Counter

	produtosCount *Gauge
	kitsCount     *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	statsProvider CatalogStatsProvider
}

// CatalogStatsProvider answers the aggregate queries behind the catalog gauges
type CatalogStatsProvider interface {
	// CountProdutos returns the number of stored products
	CountProdutos(ctx context.Context) (int64, error)

	// CountKits returns the number of products that have at least one kit line
	CountKits(ctx context.Context) (int64, error)
}

// CatalogMetricsConfig holds configuration for catalog metrics.
type CatalogMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StatsProvider CatalogStatsProvider
}

// NewCatalogMetrics creates the catalog instruments on the given meter
func NewCatalogMetrics(cfg CatalogMetricsConfig) (*CatalogMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &CatalogMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		statsProvider: cfg.StatsProvider,
	}

	var err error
	cm.kitLinesTotal, err = NewCounter(
		cfg.Meter,
		"catalogo_kit_lines_total",
		"Kit lines written by reconciliation, by operation",
		"{lines}",
	)
	if err != nil {
		return nil, err
	}

	cm.staleRejectionsTotal, err = NewCounter(
		cfg.Meter,
		"catalogo_stale_rejections_total",
		"Updates rejected because the product or a kit line was stale",
		"{updates}",
	)
	if err != nil {
		return nil, err
	}

	cm.eventsPublishedTotal, err = NewCounter(
		cfg.Meter,
		"catalogo_product_events_published_total",
		"Product events delivered to the event bus",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	cm.eventsFailedTotal, err = NewCounter(
		cfg.Meter,
		"catalogo_product_events_failed_total",
		"Product events that could not be published",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	cm.produtosCount, err = NewGauge(
		cfg.Meter,
		"catalogo_produtos_count",
		"Number of stored products",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	cm.kitsCount, err = NewGauge(
		cfg.Meter,
		"catalogo_kits_count",
		"Number of products with a non-empty kit",
		"{products}",
	)
	if err != nil {
		return nil, err
	}

	return cm, nil
}

// RecordKitChanges records the kit lines written by one successful reconciliation
func (cm *CatalogMetrics) RecordKitChanges(ctx context.Context, inserted, updated, deleted int) {
	if inserted > 0 {
		cm.kitLinesTotal.Add(ctx, int64(inserted), AttrKitOperation.String(KitLineInserted))
	}
	if updated > 0 {
		cm.kitLinesTotal.Add(ctx, int64(updated), AttrKitOperation.String(KitLineUpdated))
	}
	if deleted > 0 {
		cm.kitLinesTotal.Add(ctx, int64(deleted), AttrKitOperation.String(KitLineDeleted))
	}
}

// RecordStaleRejection records an update refused by the version check
func (cm *CatalogMetrics) RecordStaleRejection(ctx context.Context) {
	cm.staleRejectionsTotal.Inc(ctx)
}

// RecordEventPublished records a product event handed to the bus
func (cm *CatalogMetrics) RecordEventPublished(ctx context.Context, eventType string) {
	cm.eventsPublishedTotal.Inc(ctx, AttrEventType.String(eventType))
}

// RecordEventFailed records a product event the bus refused
func (cm *CatalogMetrics) RecordEventFailed(ctx context.Context, eventType string) {
	cm.eventsFailedTotal.Inc(ctx, AttrEventType.String(eventType))
}

// StartPeriodicCollection refreshes the catalog gauges every interval.
// It is non-blocking and only starts once; use Stop to end it.
func (cm *CatalogMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	cm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go cm.runPeriodicCollection(ctx, interval)
	})
}

func (cm *CatalogMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cm.collectCatalogStats(ctx)

	for {
		select {
		case <-cm.stopChan:
			cm.logger.Info("Stopping periodic catalog metrics collection")
			return
		case <-ctx.Done():
			cm.logger.Info("Context cancelled, stopping periodic catalog metrics collection")
			return
		case <-ticker.C:
			cm.collectCatalogStats(ctx)
		}
	}
}

func (cm *CatalogMetrics) collectCatalogStats(ctx context.Context) {
	if cm.statsProvider == nil {
		cm.logger.Debug("No stats provider configured, skipping catalog metrics collection")
		return
	}

	produtos, err := cm.statsProvider.CountProdutos(ctx)
	if err != nil {
		cm.logger.Warn("Failed to count products", zap.Error(err))
	} else {
		cm.produtosCount.Record(ctx, produtos)
	}

	kits, err := cm.statsProvider.CountKits(ctx)
	if err != nil {
		cm.logger.Warn("Failed to count kits", zap.Error(err))
	} else {
		cm.kitsCount.Record(ctx, kits)
	}
}

// Stop stops the periodic collection.
func (cm *CatalogMetrics) Stop() {
	cm.stopOnce.Do(func() {
		close(cm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewCatalogMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
