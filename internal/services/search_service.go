package services

import (
	"context"
	"strings"

	"github.com/asaskevich/EventBus"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/agromarket/search-alerts/internal/entities"
	"github.com/agromarket/search-alerts/internal/events"
)

var (
	ErrBlankQueryText    = errors.New("query text must not be blank")
	ErrInvalidPriceRange = errors.New("price min must not exceed price max")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrNotOwner          = errors.New("saved search belongs to another user")
)

type searchStore interface {
	Add(ctx context.Context, search entities.SavedSearch) error
	GetByID(ctx context.Context, id string) (*entities.SavedSearch, error)
	GetByOwner(ctx context.Context, ownerID string) ([]entities.SavedSearch, error)
	Update(ctx context.Context, search entities.SavedSearch) error
	SetAlertsEnabled(ctx context.Context, id string, enabled bool) error
	Remove(ctx context.Context, id string) error
}

type categoryCatalog interface {
	GetByName(ctx context.Context, name string) (*entities.Category, error)
}

// SearchService is the query store mutation surface used by the rest of
// the marketplace. Invalid criteria are rejected here so the scanner never
// sees them.
type SearchService struct {
	searches   searchStore
	categories categoryCatalog
	bus        EventBus.Bus
	validate   *validator.Validate
}

func NewSearchService(searches searchStore, categories categoryCatalog, bus EventBus.Bus) *SearchService {
	return &SearchService{
		searches:   searches,
		categories: categories,
		bus:        bus,
		validate:   validator.New(),
	}
}

type SearchCriteria struct {
	OwnerID   string `validate:"required"`
	QueryText string `validate:"required"`
	Category  string
	Location  string
	PriceMin  *int64 `validate:"omitempty,gte=0"`
	PriceMax  *int64 `validate:"omitempty,gte=0"`
}

func (s *SearchService) Create(ctx context.Context, criteria SearchCriteria) (*entities.SavedSearch, error) {

	category, err := s.checkCriteria(ctx, &criteria)
	if err != nil {
		return nil, err
	}

	search := entities.NewSavedSearch(criteria.OwnerID, criteria.QueryText).
		WithLocation(criteria.Location).
		WithPriceRange(criteria.PriceMin, criteria.PriceMax)
	if category != nil {
		search.WithCategory(category.Name)
	}

	if err = s.searches.Add(ctx, *search); err != nil {
		return nil, errors.Wrap(err, "failed to save search")
	}
	return search, nil
}

func (s *SearchService) Update(ctx context.Context, searchID string, criteria SearchCriteria) error {

	existing, err := s.getOwned(ctx, searchID, criteria.OwnerID)
	if err != nil {
		return err
	}

	category, err := s.checkCriteria(ctx, &criteria)
	if err != nil {
		return err
	}

	existing.QueryText = criteria.QueryText
	existing.Location = criteria.Location
	existing.PriceMin = criteria.PriceMin
	existing.PriceMax = criteria.PriceMax
	existing.Category = ""
	if category != nil {
		existing.Category = category.Name
	}

	return s.searches.Update(ctx, *existing)
}

func (s *SearchService) GetByOwner(ctx context.Context, ownerID string) ([]entities.SavedSearch, error) {
	return s.searches.GetByOwner(ctx, ownerID)
}

func (s *SearchService) ToggleAlerts(ctx context.Context, searchID, ownerID string, enabled bool) error {

	if _, err := s.getOwned(ctx, searchID, ownerID); err != nil {
		return err
	}
	return s.searches.SetAlertsEnabled(ctx, searchID, enabled)
}

func (s *SearchService) Delete(ctx context.Context, searchID, ownerID string) error {

	if _, err := s.getOwned(ctx, searchID, ownerID); err != nil {
		return err
	}

	if err := s.searches.Remove(ctx, searchID); err != nil {
		return err
	}

	// cancels an in-flight scan for the deleted search
	s.bus.Publish(events.SearchDeletedTopic, events.SearchDeleted{SearchID: searchID})
	return nil
}

func (s *SearchService) checkCriteria(ctx context.Context, criteria *SearchCriteria) (*entities.Category, error) {

	if err := s.validate.Struct(criteria); err != nil {
		return nil, err
	}

	criteria.QueryText = strings.TrimSpace(criteria.QueryText)
	if criteria.QueryText == "" {
		return nil, ErrBlankQueryText
	}

	if criteria.PriceMin != nil && criteria.PriceMax != nil && *criteria.PriceMin > *criteria.PriceMax {
		return nil, ErrInvalidPriceRange
	}

	if criteria.Category == "" {
		return nil, nil
	}

	category, err := s.categories.GetByName(ctx, criteria.Category)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up category")
	}
	if category == nil {
		return nil, ErrUnknownCategory
	}
	return category, nil
}

func (s *SearchService) getOwned(ctx context.Context, searchID, ownerID string) (*entities.SavedSearch, error) {

	search, err := s.searches.GetByID(ctx, searchID)
	if err != nil {
		return nil, err
	}
	if search.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return search, nil
}
