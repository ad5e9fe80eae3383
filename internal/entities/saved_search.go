package entities

import (
	"time"

	"github.com/google/uuid"
)

// SavedSearch is a stored user query. LastMatchedAt is the scan watermark:
// every listing created at or before it has already been evaluated for this
// search. Only the scanner advances it, and only monotonically.
type SavedSearch struct {
	ID            string `gorm:"primaryKey"`
	OwnerID       string `gorm:"index"`
	QueryText     string
	Category      string
	Location      string
	PriceMin      *int64
	PriceMax      *int64
	AlertsEnabled bool `gorm:"index"`
	LastMatchedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewSavedSearch(ownerID, queryText string) *SavedSearch {
	return &SavedSearch{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		QueryText:     queryText,
		AlertsEnabled: true,
	}
}

func (s *SavedSearch) WithCategory(category string) *SavedSearch {
	s.Category = category
	return s
}

func (s *SavedSearch) WithLocation(location string) *SavedSearch {
	s.Location = location
	return s
}

func (s *SavedSearch) WithPriceRange(min, max *int64) *SavedSearch {
	s.PriceMin = min
	s.PriceMax = max
	return s
}
