package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const NotificationTypeSearchAlert = "search_alert"

type Notification struct {
	ID            string `gorm:"primaryKey"`
	UserID        string `gorm:"index"`
	SavedSearchID string
	ListingID     string
	Type          string
	Title         string
	Message       string
	Read          bool
	CreatedAt     time.Time
}

func NewSearchAlertNotification(search SavedSearch, listing Listing) Notification {
	return Notification{
		ID:            uuid.NewString(),
		UserID:        search.OwnerID,
		SavedSearchID: search.ID,
		ListingID:     listing.ID,
		Type:          NotificationTypeSearchAlert,
		Title:         "New listing matches your search",
		Message:       fmt.Sprintf("New listing %q matches your saved search %q", listing.Title, search.QueryText),
	}
}
