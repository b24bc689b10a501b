package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/catalogo/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type meteredEstoque struct {
	ID        uint `gorm:"primaryKey"`
	EmEstoque int
}

func (meteredEstoque) TableName() string { return "estoques" }

func TestNewDBMetrics_NilMeter(t *testing.T) {
	m, err := telemetry.NewDBMetrics(nil, telemetry.DBMetricsConfig{}, nil)
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	reader, provider := newManualMeter()
	m, err := telemetry.NewDBMetrics(provider.Meter("db.client"), telemetry.DBMetricsConfig{
		SlowQueryThreshold: 50 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordQuery(ctx, "select", "produtos", 10*time.Millisecond)
	m.RecordQuery(ctx, "SELECT", "produtos", 100*time.Millisecond)
	m.RecordQuery(ctx, "", "", time.Second)

	metrics := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, metrics["db_query_total"], telemetry.AttrDBOperation.String("SELECT")))
	assert.Equal(t, int64(1), sumFor(t, metrics["db_query_total"], telemetry.AttrDBOperation.String("OTHER")))
	assert.Equal(t, int64(1), sumFor(t, metrics["db_slow_query_total"], telemetry.AttrDBTable.String("produtos")))
	assert.Equal(t, int64(1), sumFor(t, metrics["db_slow_query_total"], telemetry.AttrDBTable.String("unknown")))
}

func TestDBMetrics_Instrument(t *testing.T) {
	reader, provider := newManualMeter()
	m, err := telemetry.NewDBMetrics(provider.Meter("db.client"), telemetry.DBMetricsConfig{
		PoolStatsInterval: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&meteredEstoque{}))
	require.NoError(t, m.Instrument(db))

	require.NoError(t, db.Create(&meteredEstoque{EmEstoque: 5}).Error)
	require.NoError(t, db.Model(&meteredEstoque{}).Where("id = ?", 1).Update("em_estoque", 4).Error)
	var rows []meteredEstoque
	require.NoError(t, db.Find(&rows).Error)
	require.NoError(t, db.Exec("DELETE FROM estoques").Error)

	metrics := collect(t, reader)
	total := metrics["db_query_total"]
	for _, op := range []string{"INSERT", "UPDATE", "SELECT", "DELETE"} {
		assert.GreaterOrEqual(t, sumFor(t, total, telemetry.AttrDBOperation.String(op)), int64(1), op)
	}

	m.StartPoolStatsCollection(context.Background())
	require.Eventually(t, func() bool {
		_, ok := collect(t, reader)["db_pool_connections_max"]
		return ok
	}, time.Second, 10*time.Millisecond)

	pool := collect(t, reader)["db_pool_connections"].Data.(metricdata.Gauge[int64])
	assert.Len(t, pool.DataPoints, 3)

	m.Stop()
	m.Stop()
}

func TestDBMetrics_StartWithoutInstrument(t *testing.T) {
	_, provider := newManualMeter()
	m, err := telemetry.NewDBMetrics(provider.Meter("db.client"), telemetry.DBMetricsConfig{}, zap.NewNop())
	require.NoError(t, err)

	m.StartPoolStatsCollection(context.Background())
	m.Stop()
}
