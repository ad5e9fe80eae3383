package repositories

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agromarket/search-alerts/internal/entities"
)

// Alerts is the dedup ledger: the single source of truth for whether a
// (saved search, listing) pair has already produced a notification. The
// scan watermark only narrows the candidate window; this ledger decides.
type Alerts struct {
	db *gorm.DB
}

func NewAlertsRepository(db *gorm.DB) *Alerts {
	return &Alerts{db: db}
}

func (a Alerts) HasAlerted(ctx context.Context, searchID, listingID string) (bool, error) {
	var record entities.AlertRecord
	err := a.db.WithContext(ctx).
		Where("saved_search_id = ? AND listing_id = ?", searchID, listingID).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RecordAlerted inserts the pair if absent. The composite key makes the
// insert atomic: concurrent or retried calls for the same pair leave
// exactly one record. Returns true when this call created the record.
func (a Alerts) RecordAlerted(ctx context.Context, searchID, listingID string) (bool, error) {
	res := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entities.AlertRecord{
			SavedSearchID: searchID,
			ListingID:     listingID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (a Alerts) RecordEmitFailure(ctx context.Context, searchID, listingID, errMsg string) error {
	now := time.Now()
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "saved_search_id"}, {Name: "listing_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"error":      errMsg,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			}),
		}).
		Create(&entities.EmitFailure{
			SavedSearchID: searchID,
			ListingID:     listingID,
			Error:         errMsg,
		}).Error
}

func (a Alerts) GetEmitFailures(ctx context.Context) ([]entities.EmitFailure, error) {
	var failures []entities.EmitFailure
	if err := a.db.WithContext(ctx).Find(&failures).Error; err != nil {
		return nil, err
	}
	return failures, nil
}

func (a Alerts) ResolveEmitFailure(ctx context.Context, searchID, listingID string) error {
	return a.db.WithContext(ctx).
		Delete(&entities.EmitFailure{}, "saved_search_id = ? AND listing_id = ?", searchID, listingID).Error
}

func (a Alerts) RemoveOldRecords(ctx context.Context, olderThan time.Time) (int64, error) {
	res := a.db.WithContext(ctx).Delete(&entities.AlertRecord{}, "created_at < ?", olderThan)
	return res.RowsAffected, res.Error
}
