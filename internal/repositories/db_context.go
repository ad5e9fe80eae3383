package repositories

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agromarket/search-alerts/internal/entities"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(entities.Category{})
	if err != nil {
		return fmt.Errorf("failed to migrate Category entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.SavedSearch{})
	if err != nil {
		return fmt.Errorf("failed to migrate SavedSearch entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.Listing{})
	if err != nil {
		return fmt.Errorf("failed to migrate Listing entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.AlertRecord{})
	if err != nil {
		return fmt.Errorf("failed to migrate AlertRecord entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.EmitFailure{})
	if err != nil {
		return fmt.Errorf("failed to migrate EmitFailure entity: %w", err)
	}

	err = c.DB.AutoMigrate(entities.Notification{})
	if err != nil {
		return fmt.Errorf("failed to migrate Notification entity: %w", err)
	}

	var categoriesCount int64
	if err = c.DB.Model(entities.Category{}).Count(&categoriesCount).Error; err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}

	if categoriesCount == 0 {
		if err = c.PopulateCategories(); err != nil {
			return fmt.Errorf("failed to populate categories: %w", err)
		}
	}

	// the ledger relies on this index for atomic insert-if-absent
	if err = c.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_search_listing " +
		"ON alert_records (saved_search_id, listing_id);").
		Error; err != nil {
		return fmt.Errorf("failed to create alert record index: %w", err)
	}

	return nil
}

var marketplaceCategories = []string{
	"Farm Animals",
	"Poultry",
	"Crops",
	"Seeds & Seedlings",
	"Fertilizers",
	"Farm Machinery",
	"Animal Feed",
	"Fresh Produce",
}

func (c *DbContext) PopulateCategories() error {

	var categories []entities.Category
	for i, name := range marketplaceCategories {
		categories = append(categories, entities.NewCategory(fmt.Sprintf("cat-%d", i+1), name))
	}

	if err := c.DB.Create(categories).Error; err != nil {
		return fmt.Errorf("failed to create categories in the database: %w", err)
	}
	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
