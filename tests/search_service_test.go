package tests

import (
	"context"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agromarket/search-alerts/internal/events"
	"github.com/agromarket/search-alerts/internal/repositories"
	"github.com/agromarket/search-alerts/internal/services"
)

func newSearchService(bus EventBus.Bus) *services.SearchService {
	searches := repositories.NewSearchRepository(dbCtx.DB)
	categories := repositories.NewCachedCategories(repositories.NewCategoriesRepository(dbCtx.DB))
	return services.NewSearchService(searches, categories, bus)
}

func Test_SearchService_CreateValidatesCriteria(t *testing.T) {

	defer clearDb()

	service := newSearchService(EventBus.New())

	_, err := service.Create(context.Background(), services.SearchCriteria{OwnerID: "U1", QueryText: "   "})
	assert.ErrorIs(t, err, services.ErrBlankQueryText)

	_, err = service.Create(context.Background(), services.SearchCriteria{
		OwnerID: "U1", QueryText: "tomato", PriceMin: int64Ptr(5000), PriceMax: int64Ptr(1000),
	})
	assert.ErrorIs(t, err, services.ErrInvalidPriceRange)

	_, err = service.Create(context.Background(), services.SearchCriteria{
		OwnerID: "U1", QueryText: "tomato", Category: "Spaceships",
	})
	assert.ErrorIs(t, err, services.ErrUnknownCategory)

	search, err := service.Create(context.Background(), services.SearchCriteria{
		OwnerID: "U1", QueryText: "tomato", Category: "fresh produce",
	})
	assert.NoError(t, err)
	assert.Equal(t, "Fresh Produce", search.Category, "category is stored in canonical form")
	assert.True(t, search.AlertsEnabled)
}

func Test_SearchService_ToggleAndDeleteEnforceOwnership(t *testing.T) {

	defer clearDb()

	bus := EventBus.New()
	service := newSearchService(bus)

	search, err := service.Create(context.Background(),
		services.SearchCriteria{OwnerID: "U1", QueryText: "tomato"})
	require.NoError(t, err)

	assert.ErrorIs(t, service.ToggleAlerts(context.Background(), search.ID, "U2", false), services.ErrNotOwner)
	assert.NoError(t, service.ToggleAlerts(context.Background(), search.ID, "U1", false))

	stored, err := repositories.NewSearchRepository(dbCtx.DB).GetByID(context.Background(), search.ID)
	require.NoError(t, err)
	assert.False(t, stored.AlertsEnabled)

	deleted := ""
	require.NoError(t, bus.Subscribe(events.SearchDeletedTopic, func(event events.SearchDeleted) {
		deleted = event.SearchID
	}))

	assert.ErrorIs(t, service.Delete(context.Background(), search.ID, "U2"), services.ErrNotOwner)
	assert.NoError(t, service.Delete(context.Background(), search.ID, "U1"))
	assert.Equal(t, search.ID, deleted, "deletion is announced so in-flight scans cancel")
}
