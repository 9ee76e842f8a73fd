// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// RunAutoMigrations runs GORM auto-migrations for the catalog models
func (m *Migration) RunAutoMigrations() error {
	models := []interface{}{
		&catalog.Product{},
	}

	for _, model := range models {
		m.logger.Debugf("migrating model %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.logger.Info("database auto-migrations completed")
	return nil
}

// CreateIndexes creates the indexes AutoMigrate does not express
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_catalog_products_active_id ON catalog_products(id) WHERE is_active",
		"CREATE INDEX IF NOT EXISTS idx_catalog_products_updated_at ON catalog_products(updated_at DESC)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.logger.WithError(err).Warn("failed to create index")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed", failed, len(indexes))
	}
	return nil
}

// SeedInitialData inserts a few catalog products for local development.
// Existing rows are left untouched.
func (m *Migration) SeedInitialData() error {
	products := []catalog.Product{
		{ID: "mug-classic", Name: "Classic Mug", Price: decimal.RequireFromString("12.50"), Currency: "EUR", Weight: decimal.RequireFromString("0.4"), IsActive: true},
		{ID: "poster-a2", Name: "A2 Poster", Price: decimal.RequireFromString("19.95"), Currency: "EUR", Weight: decimal.RequireFromString("0.2"), IsActive: true},
		{ID: "tee-organic", Name: "Organic T-Shirt", Price: decimal.RequireFromString("29.00"), Currency: "EUR", Weight: decimal.RequireFromString("0.25"), IsActive: true},
	}

	result := m.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&products)
	if result.Error != nil {
		return fmt.Errorf("failed to seed catalog: %w", result.Error)
	}

	m.logger.WithField("inserted", result.RowsAffected).Info("catalog seed completed")
	return nil
}
