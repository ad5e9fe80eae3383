package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agromarket/search-alerts/internal/entities"
)

func int64Ptr(v int64) *int64 { return &v }

func activeListing() entities.Listing {
	return entities.Listing{
		ID:          "L1",
		OwnerID:     "U2",
		Title:       "Fresh tomatoes",
		Description: "Basket of ripe organic tomatoes",
		Category:    "Crops",
		Location:    "Ibadan, Oyo",
		Price:       3000,
		Status:      entities.ListingActive,
		CreatedAt:   time.Now(),
	}
}

func Test_Matches_TextIsCaseInsensitiveOnTitleAndDescription(t *testing.T) {
	search := *entities.NewSavedSearch("U1", "TOMATO")
	assert.True(t, Matches(search, activeListing()))

	listing := activeListing()
	listing.Title = "Produce box"
	assert.True(t, Matches(search, listing), "term in description only should match")

	listing.Description = "Assorted vegetables"
	assert.False(t, Matches(search, listing))
}

func Test_Matches_OwnListingIsExcluded(t *testing.T) {
	search := *entities.NewSavedSearch("U2", "tomato")
	assert.False(t, Matches(search, activeListing()))
}

func Test_Matches_OnlyActiveListingsAreEligible(t *testing.T) {
	search := *entities.NewSavedSearch("U1", "tomato")
	for _, status := range []entities.ListingStatus{
		entities.ListingPending, entities.ListingSold, entities.ListingArchived,
	} {
		listing := activeListing()
		listing.Status = status
		assert.False(t, Matches(search, listing), "status %v should not match", status)
	}
}

func Test_Matches_CategoryIsExact(t *testing.T) {
	search := *entities.NewSavedSearch("U1", "tomato").WithCategory("Crops")
	assert.True(t, Matches(search, activeListing()))

	search.Category = "crops"
	assert.False(t, Matches(search, activeListing()), "category filter is exact, not case-folded")
}

func Test_Matches_LocationIsSubstringCaseInsensitive(t *testing.T) {
	search := *entities.NewSavedSearch("U1", "tomato").WithLocation("ibadan")
	assert.True(t, Matches(search, activeListing()))

	search.Location = "Lagos"
	assert.False(t, Matches(search, activeListing()))
}

func Test_Matches_PriceBoundsAreIndependentAndInclusive(t *testing.T) {
	listing := activeListing()

	search := *entities.NewSavedSearch("U1", "tomato").WithPriceRange(int64Ptr(3000), nil)
	assert.True(t, Matches(search, listing))

	search = *entities.NewSavedSearch("U1", "tomato").WithPriceRange(int64Ptr(3001), nil)
	assert.False(t, Matches(search, listing))

	search = *entities.NewSavedSearch("U1", "tomato").WithPriceRange(nil, int64Ptr(3000))
	assert.True(t, Matches(search, listing))

	search = *entities.NewSavedSearch("U1", "tomato").WithPriceRange(nil, int64Ptr(2999))
	assert.False(t, Matches(search, listing))
}

func Test_Matches_FiltersAreConjunctive(t *testing.T) {
	full := *entities.NewSavedSearch("U1", "tomato").
		WithCategory("Crops").
		WithLocation("Ibadan").
		WithPriceRange(int64Ptr(1000), int64Ptr(5000))

	listing := activeListing()
	assert.True(t, Matches(full, listing))

	// Breaking any single clause breaks the whole match.
	broken := listing
	broken.Category = "Machinery"
	assert.False(t, Matches(full, broken))

	broken = listing
	broken.Location = "Kano"
	assert.False(t, Matches(full, broken))

	broken = listing
	broken.Price = 9000
	assert.False(t, Matches(full, broken))

	// Unsetting a filter only weakens the predicate: everything the full
	// search matched is still matched with fewer clauses.
	relaxed := full
	relaxed.Category = ""
	relaxed.PriceMin = nil
	assert.True(t, Matches(relaxed, listing))
	assert.Len(t, ClausesFor(relaxed), 3)
}

func Test_ClausesFor_UnsetFiltersContributeNoClause(t *testing.T) {
	search := *entities.NewSavedSearch("U1", "tomato")
	assert.Len(t, ClausesFor(search), 1)

	search = *search.WithCategory("Crops").WithLocation("Oyo").WithPriceRange(int64Ptr(1), int64Ptr(2))
	assert.Len(t, ClausesFor(search), 5)
}

func Test_Matches_PriceCapAndSelfExclusionCombined(t *testing.T) {
	search := *entities.NewSavedSearch("U1", "tomato").WithPriceRange(nil, int64Ptr(5000))

	fresh := activeListing() // "Fresh tomatoes", 3000, owned by U2
	assert.True(t, Matches(search, fresh))

	seeds := activeListing()
	seeds.ID = "L2"
	seeds.Title = "Tomato seeds"
	seeds.Price = 8000
	assert.False(t, Matches(search, seeds), "price cap filters out the seeds")

	yams := activeListing()
	yams.ID = "L3"
	yams.OwnerID = "U1"
	yams.Title = "Yam tubers"
	yams.Price = 1000
	assert.False(t, Matches(search, yams), "own listing is excluded")
}
