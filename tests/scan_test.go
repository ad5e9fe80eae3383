package tests

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agromarket/search-alerts/internal/config"
	"github.com/agromarket/search-alerts/internal/entities"
	"github.com/agromarket/search-alerts/internal/repositories"
	"github.com/agromarket/search-alerts/internal/services"
)

func scannerConfig() config.ScannerConfig {
	return config.ScannerConfig{
		PageSize:        50,
		InitialLookback: 24 * time.Hour,
		SearchTimeout:   30 * time.Second,
	}
}

func newScanner(t *testing.T, sink *flakySink) *services.Scanner {
	searches := repositories.NewSearchRepository(dbCtx.DB)
	listings := repositories.NewListingsRepository(dbCtx.DB)
	alerts := repositories.NewAlertsRepository(dbCtx.DB)

	scanner, err := services.NewScanner(EventBus.New(), searches, listings, alerts, sink, alerts, scannerConfig())
	require.NoError(t, err)
	return scanner
}

func notifyingSink(failures map[string]int) *flakySink {
	notifications := repositories.NewNotificationsRepository(dbCtx.DB)
	return newFlakySink(services.NewNotifier(notifications, EventBus.New()), failures)
}

func addSearch(t *testing.T, search *entities.SavedSearch) {
	require.NoError(t, repositories.NewSearchRepository(dbCtx.DB).Add(context.Background(), *search))
}

func addListing(t *testing.T, id, ownerID, title string, price int64, createdAt time.Time) entities.Listing {
	listing := entities.Listing{
		ID:          id,
		OwnerID:     ownerID,
		Title:       title,
		Description: title,
		Category:    "Fresh Produce",
		Location:    "Ibadan, Oyo",
		Price:       price,
		Status:      entities.ListingActive,
		CreatedAt:   createdAt.UTC(),
	}
	require.NoError(t, dbCtx.DB.Create(&listing).Error)
	return listing
}

func notificationCount(t *testing.T) int64 {
	var count int64
	require.NoError(t, dbCtx.DB.Model(&entities.Notification{}).Count(&count).Error)
	return count
}

func watermarkOf(t *testing.T, searchID string) time.Time {
	search, err := repositories.NewSearchRepository(dbCtx.DB).GetByID(context.Background(), searchID)
	require.NoError(t, err)
	return search.LastMatchedAt
}

func int64Ptr(v int64) *int64 { return &v }

func Test_Scan_TomatoSearchAlertsOnceAndAdvancesWatermark(t *testing.T) {

	defer clearDb()

	base := time.Now().UTC().Add(-time.Hour)

	search := entities.NewSavedSearch("U1", "tomato").WithPriceRange(nil, int64Ptr(5000))
	addSearch(t, search)

	addListing(t, "L1", "U2", "Fresh tomatoes", 3000, base.Add(1*time.Second))
	addListing(t, "L2", "U2", "Tomato seeds", 8000, base.Add(2*time.Second))
	yams := addListing(t, "L3", "U1", "Yam tubers", 1000, base.Add(3*time.Second))

	sink := notifyingSink(nil)
	scanner := newScanner(t, sink)

	scanComplete := make(chan struct{})
	scanner.WithScanCompleteCallback(func() {
		scanComplete <- struct{}{}
	})

	go scanner.RunOnce(context.Background())

	select {
	case <-time.After(30 * time.Second):
		require.Fail(t, "timed out")
	case <-scanComplete:
	}

	assert.Equal(t, []string{"L1"}, sink.emittedIDs())
	assert.EqualValues(t, 1, notificationCount(t))

	// non-matching candidates are resolved too: the watermark covers L2
	// and L3 so they are never re-fetched
	assert.WithinDuration(t, yams.CreatedAt, watermarkOf(t, search.ID), time.Second)

	notifications, err := repositories.NewNotificationsRepository(dbCtx.DB).
		GetByUser(context.Background(), "U1", 10)
	assert.NoError(t, err)
	if assert.Len(t, notifications, 1) {
		assert.Equal(t, "L1", notifications[0].ListingID)
		assert.Equal(t, search.ID, notifications[0].SavedSearchID)
		assert.Equal(t, entities.NotificationTypeSearchAlert, notifications[0].Type)
	}
}

func Test_Scan_RerunEmitsNoDuplicates(t *testing.T) {

	defer clearDb()

	base := time.Now().UTC().Add(-time.Hour)

	search := entities.NewSavedSearch("U1", "maize")
	addSearch(t, search)
	addListing(t, "L1", "U2", "Yellow maize, 50kg bags", 12000, base.Add(1*time.Second))
	addListing(t, "L2", "U3", "Maize sheller", 45000, base.Add(2*time.Second))

	scanner := newScanner(t, notifyingSink(nil))
	scanner.RunOnce(context.Background())
	assert.EqualValues(t, 2, notificationCount(t))

	// a fresh scanner has no warm pair cache, so this proves the ledger
	// itself suppresses the duplicates
	scanner = newScanner(t, notifyingSink(nil))
	scanner.RunOnce(context.Background())

	assert.EqualValues(t, 2, notificationCount(t))
}

func Test_Scan_EmissionFailureIsRetriedWithoutDuplicates(t *testing.T) {

	defer clearDb()

	base := time.Now().UTC().Add(-time.Hour)

	search := entities.NewSavedSearch("U1", "cassava")
	addSearch(t, search)

	var last entities.Listing
	for i, id := range []string{"L1", "L2", "L3", "L4", "L5"} {
		last = addListing(t, id, "U2", "Cassava tubers", 2000, base.Add(time.Duration(i+1)*time.Second))
	}

	// the 3rd emission fails once, simulating a crash mid-batch
	sink := notifyingSink(map[string]int{"L3": 1})
	scanner := newScanner(t, sink)

	scanner.RunOnce(context.Background())

	assert.EqualValues(t, 4, notificationCount(t))
	beforeFailure := base.Add(2 * time.Second)
	assert.WithinDuration(t, beforeFailure, watermarkOf(t, search.ID), time.Second,
		"watermark must stop before the failed listing")

	alerts := repositories.NewAlertsRepository(dbCtx.DB)
	failures, err := alerts.GetEmitFailures(context.Background())
	assert.NoError(t, err)
	if assert.Len(t, failures, 1) {
		assert.Equal(t, "L3", failures[0].ListingID)
	}

	scanner.RunOnce(context.Background())

	assert.EqualValues(t, 5, notificationCount(t), "exactly 5 notifications total, not 7, not 4")
	assert.WithinDuration(t, last.CreatedAt, watermarkOf(t, search.ID), time.Second)

	retried, err := repositories.NewNotificationsRepository(dbCtx.DB).
		CountForPair(context.Background(), search.ID, "L3")
	assert.NoError(t, err)
	assert.EqualValues(t, 1, retried)

	failures, err = alerts.GetEmitFailures(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, failures, "retried emission resolves the audit row")
}

func Test_Scan_DisabledSearchIsSkippedEntirely(t *testing.T) {

	defer clearDb()

	base := time.Now().UTC().Add(-time.Hour)

	search := entities.NewSavedSearch("U1", "tomato")
	search.AlertsEnabled = false
	addSearch(t, search)
	addListing(t, "L1", "U2", "Fresh tomatoes", 3000, base.Add(time.Second))

	scanner := newScanner(t, notifyingSink(nil))
	scanner.RunOnce(context.Background())

	assert.EqualValues(t, 0, notificationCount(t))
	assert.True(t, watermarkOf(t, search.ID).IsZero(), "disabled search's watermark must not move")
}

func Test_Scan_WatermarkIsMonotonic(t *testing.T) {

	defer clearDb()

	base := time.Now().UTC().Add(-time.Hour)

	search := entities.NewSavedSearch("U1", "goat")
	addSearch(t, search)
	addListing(t, "L1", "U2", "West African dwarf goats", 30000, base.Add(1*time.Second))

	scanner := newScanner(t, notifyingSink(nil))
	scanner.RunOnce(context.Background())
	first := watermarkOf(t, search.ID)

	// nothing new: a second run must not move the watermark backwards
	scanner.RunOnce(context.Background())
	second := watermarkOf(t, search.ID)
	assert.False(t, second.Before(first))

	addListing(t, "L2", "U2", "Goat feed", 5000, base.Add(2*time.Second))
	scanner.RunOnce(context.Background())
	third := watermarkOf(t, search.ID)
	assert.True(t, third.After(second))
}
