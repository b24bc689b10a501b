package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormCatalogStatsProvider implements CatalogStatsProvider with GORM.
// It queries the catalog tables directly.
type GormCatalogStatsProvider struct {
	db *gorm.DB
}

// NewGormCatalogStatsProvider creates a new GormCatalogStatsProvider.
func NewGormCatalogStatsProvider(db *gorm.DB) *GormCatalogStatsProvider {
	return &GormCatalogStatsProvider{db: db}
}

// CountProdutos returns the number of stored products.
func (p *GormCatalogStatsProvider) CountProdutos(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).Table("produtos").Count(&count).Error
	return count, err
}

// CountKits returns the number of products referenced as a kit by at least one line.
func (p *GormCatalogStatsProvider) CountKits(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("itens_kit").
		Distinct("kit_id").
		Count(&count).Error
	return count, err
}
