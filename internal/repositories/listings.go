package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agromarket/search-alerts/internal/entities"
)

// Listings is the read-only listing feed. The alert engine never writes
// through this repository; listings are created elsewhere in the
// marketplace.
type Listings struct {
	db *gorm.DB
}

func NewListingsRepository(db *gorm.DB) *Listings {
	return &Listings{db: db}
}

// FetchSince returns Active listings created strictly after the given
// time, in ascending creation order, capped at limit. Ascending order is
// what lets the scanner advance its watermark over a contiguous prefix.
func (l *Listings) FetchSince(ctx context.Context, after time.Time, limit int) ([]entities.Listing, error) {

	var listings []entities.Listing
	if err := l.db.WithContext(ctx).
		Where("status = ? AND created_at > ?", entities.ListingActive, after.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (l *Listings) GetByID(ctx context.Context, id string) (*entities.Listing, error) {

	var listing entities.Listing
	if err := l.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}
