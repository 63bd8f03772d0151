package telemetry

import (
	"context"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// CatalogStatsProvider supplies point-in-time figures observed on each
// collection cycle.
type CatalogStatsProvider interface {
	LowStockVariantCount(ctx context.Context) (int64, error)
	PendingOrderCount(ctx context.Context) (int64, error)
}

// BusinessMetrics tracks marketplace activity: orders with their revenue
// and platform commission, stock conflicts, status transitions, and how
// notification events are delivered.
type BusinessMetrics struct {
	logger *zap.Logger

	ordersCreated      *Counter
	orderRevenue       *FloatCounter
	platformCommission *FloatCounter
	stockConflicts     *Counter
	statusTransitions  *Counter
	outboxDeliveries   *Counter
	handlerOutcomes    *Counter

	registration metric.Registration
}

// BusinessMetricsConfig configures NewBusinessMetrics. Stats is optional.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
	Stats  CatalogStatsProvider
}

func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BusinessMetrics{logger: logger}

	var err error
	if bm.ordersCreated, err = NewCounter(cfg.Meter, "orders_created_total", "Orders placed", "{order}"); err != nil {
		return nil, err
	}
	if bm.orderRevenue, err = NewFloatCounter(cfg.Meter, "order_revenue_total", "Order totals including delivery fees", "{currency}"); err != nil {
		return nil, err
	}
	if bm.platformCommission, err = NewFloatCounter(cfg.Meter, "platform_commission_total", "Platform commission on placed orders", "{currency}"); err != nil {
		return nil, err
	}
	if bm.stockConflicts, err = NewCounter(cfg.Meter, "stock_conflicts_total", "Order attempts rejected for insufficient stock", "{conflict}"); err != nil {
		return nil, err
	}
	if bm.statusTransitions, err = NewCounter(cfg.Meter, "order_status_transitions_total", "Applied order status transitions", "{transition}"); err != nil {
		return nil, err
	}
	if bm.outboxDeliveries, err = NewCounter(cfg.Meter, "outbox_deliveries_total", "Outbox delivery attempts by outcome", "{attempt}"); err != nil {
		return nil, err
	}

	if bm.handlerOutcomes, err = NewCounter(cfg.Meter, "event_handler_outcomes_total", "Notification handler deliveries by outcome", "{delivery}"); err != nil {
		return nil, err
	}

	if cfg.Stats != nil {
		if err := bm.observeStats(cfg.Meter, cfg.Stats); err != nil {
			return nil, err
		}
	}
	return bm, nil
}

func (bm *BusinessMetrics) observeStats(meter metric.Meter, stats CatalogStatsProvider) error {
	lowStock, err := meter.Int64ObservableGauge("catalog_low_stock_variants",
		metric.WithDescription("Available variants at or below the low stock threshold"))
	if err != nil {
		return err
	}
	pending, err := meter.Int64ObservableGauge("orders_pending",
		metric.WithDescription("Orders waiting for vendor confirmation"))
	if err != nil {
		return err
	}

	bm.registration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		if n, err := stats.LowStockVariantCount(ctx); err == nil {
			o.ObserveInt64(lowStock, n)
		} else {
			bm.logger.Warn("collect low stock count", zap.Error(err))
		}
		if n, err := stats.PendingOrderCount(ctx); err == nil {
			o.ObserveInt64(pending, n)
		} else {
			bm.logger.Warn("collect pending order count", zap.Error(err))
		}
		return nil
	}, lowStock, pending)
	return err
}

// RecordOrderCreated counts a placed order and its money figures
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, orderType string, total, commission decimal.Decimal) {
	attr := AttrOrderType.String(orderType)
	bm.ordersCreated.Inc(ctx, attr)
	bm.orderRevenue.Add(ctx, total.InexactFloat64(), attr)
	bm.platformCommission.Add(ctx, commission.InexactFloat64(), attr)
}

func (bm *BusinessMetrics) RecordStockConflict(ctx context.Context) {
	bm.stockConflicts.Inc(ctx)
}

func (bm *BusinessMetrics) RecordStatusTransition(ctx context.Context, from, to string) {
	bm.statusTransitions.Inc(ctx, AttrFromStatus.String(from), AttrToStatus.String(to))
}

// RecordOutboxDelivery lets the outbox processor report attempt outcomes
func (bm *BusinessMetrics) RecordOutboxDelivery(ctx context.Context, eventType string, status shared.OutboxStatus) {
	bm.outboxDeliveries.Inc(ctx, AttrEventType.String(eventType), AttrStatus.String(string(status)))
}

// RecordHandlerOutcome counts processed, duplicate and failed handler runs
func (bm *BusinessMetrics) RecordHandlerOutcome(ctx context.Context, eventType, outcome string) {
	bm.handlerOutcomes.Inc(ctx, AttrEventType.String(eventType), AttrStatus.String(outcome))
}

// Stop unregisters the stats callback
func (bm *BusinessMetrics) Stop() error {
	if bm.registration == nil {
		return nil
	}
	return bm.registration.Unregister()
}
