package entities

import "time"

type ListingStatus string

const (
	ListingActive   ListingStatus = "Active"
	ListingPending  ListingStatus = "Pending"
	ListingSold     ListingStatus = "Sold"
	ListingArchived ListingStatus = "Archived"
)

// Listing is a marketplace ad. This subsystem treats listings as immutable;
// CreatedAt is the scan cursor key and must be assigned in insertion order
// by the listing source.
type Listing struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"index"`
	Title       string
	Description string
	Category    string
	Location    string
	Price       int64
	Status      ListingStatus
	CreatedAt   time.Time `gorm:"index"`
}
