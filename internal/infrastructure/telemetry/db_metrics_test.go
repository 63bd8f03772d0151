package telemetry_test

import (
	"context"
	"testing"

	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRegisterDBMetrics(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	reader, provider := newManualMeter(t)
	m, err := telemetry.RegisterDBMetrics(db, sqlDB, provider.Meter("db"))
	require.NoError(t, err)
	defer m.Stop()

	var vendors []models.VendorModel
	require.NoError(t, db.WithContext(context.Background()).Find(&vendors).Error)

	data := collect(t, reader)

	hist, ok := data["db_query_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.NotEmpty(t, hist.DataPoints)
	op, _ := hist.DataPoints[0].Attributes.Value("db.operation")
	assert.Equal(t, "select", op.AsString())

	open := int64Points(t, data["db_pool_open_connections"])
	assert.GreaterOrEqual(t, open[0].Value, int64(1))
}

func TestRegisterDBMetrics_NilMeter(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	_, err := telemetry.RegisterDBMetrics(db, nil, nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestGormCatalogStatsProvider(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	fx := testutil.NewCatalogFixture(t, db)

	vendor := fx.Vendor("Stats Vendor", "10")
	product := fx.Product(vendor, "Mug", "12.00")
	fx.Variant(product, "MUG-LOW", 2, "")
	fx.Variant(product, "MUG-OK", 50, "")
	hidden := fx.Variant(product, "MUG-HIDDEN", 0, "")
	fx.SetVariantAvailable(hidden, false)

	stats := telemetry.NewGormCatalogStatsProvider(db, 5)
	ctx := context.Background()

	low, err := stats.LowStockVariantCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), low)

	pending, err := stats.PendingOrderCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}
