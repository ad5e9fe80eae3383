package events

import "github.com/agromarket/search-alerts/internal/entities"

var MatchFoundTopic = "MatchFoundEvent"

type MatchFound struct {
	Search       entities.SavedSearch
	ListingID    string
	ListingTitle string
	Price        int64
	Location     string
}
