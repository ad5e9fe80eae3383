package entities

import "time"

// AlertRecord marks that a notification was emitted for a
// (saved search, listing) pair. The composite primary key makes
// recording idempotent: at most one record per pair, ever.
type AlertRecord struct {
	SavedSearchID string `gorm:"primaryKey"`
	ListingID     string `gorm:"primaryKey"`
	CreatedAt     time.Time
}

// EmitFailure is an audit row for a match whose notification could not be
// fully processed: either the sink emit failed, or the emit succeeded but
// the ledger write did not. The scanner retries the pair on a later run.
type EmitFailure struct {
	SavedSearchID string `gorm:"primaryKey"`
	ListingID     string `gorm:"primaryKey"`
	Error         string
	Attempts      int `gorm:"default:1"`
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
