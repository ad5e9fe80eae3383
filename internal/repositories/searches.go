package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agromarket/search-alerts/internal/entities"
)

type Searches struct {
	db *gorm.DB
}

func NewSearchRepository(db *gorm.DB) *Searches {
	return &Searches{db: db}
}

func (repo *Searches) Add(ctx context.Context, search entities.SavedSearch) error {
	return repo.db.WithContext(ctx).Create(&search).Error
}

func (repo *Searches) GetByOwner(ctx context.Context, ownerID string) ([]entities.SavedSearch, error) {

	var searches []entities.SavedSearch
	if err := repo.db.WithContext(ctx).Find(&searches, "owner_id = ?", ownerID).Error; err != nil {
		return nil, err
	}
	return searches, nil
}

func (repo *Searches) GetByID(ctx context.Context, id string) (*entities.SavedSearch, error) {

	var search entities.SavedSearch
	if err := repo.db.WithContext(ctx).First(&search, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &search, nil
}

// Update persists the editable criteria only. The watermark and the
// alerts toggle have dedicated writers and are never touched here, so a
// concurrent scan can't be stomped by a criteria edit.
func (repo *Searches) Update(ctx context.Context, search entities.SavedSearch) error {
	return repo.db.WithContext(ctx).Model(&entities.SavedSearch{}).
		Where("id = ?", search.ID).
		Select("QueryText", "Category", "Location", "PriceMin", "PriceMax").
		Updates(search).Error
}

func (repo *Searches) SetAlertsEnabled(ctx context.Context, id string, enabled bool) error {
	return repo.db.WithContext(ctx).Model(&entities.SavedSearch{}).Where("id = ?", id).
		Update("alerts_enabled", enabled).Error
}

// GetAlertEnabled pages through searches participating in scan runs.
// Disabled searches are excluded entirely; their watermark is never touched.
func (repo *Searches) GetAlertEnabled(ctx context.Context, limit int, offset int) ([]entities.SavedSearch, error) {

	var searches []entities.SavedSearch
	if err := repo.db.WithContext(ctx).
		Where("alerts_enabled = ?", true).
		Limit(limit).
		Offset(offset).
		Find(&searches).Error; err != nil {
		return nil, err
	}
	return searches, nil
}

// AdvanceWatermark moves last_matched_at forward with compare-and-swap
// semantics: the update applies only if the stored watermark still equals
// expectedOld and the new value is actually ahead of it. Returns false when
// a concurrent run won the race.
func (repo *Searches) AdvanceWatermark(ctx context.Context, id string, expectedOld, advanceTo time.Time) (bool, error) {

	if !advanceTo.After(expectedOld) {
		return false, nil
	}

	res := repo.db.WithContext(ctx).Model(&entities.SavedSearch{}).
		Where("id = ? AND last_matched_at = ?", id, expectedOld.UTC()).
		Update("last_matched_at", advanceTo.UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (repo *Searches) Remove(ctx context.Context, id string) error {
	return repo.db.WithContext(ctx).Delete(&entities.SavedSearch{}, "id = ?", id).Error
}
