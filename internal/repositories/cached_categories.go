package repositories

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/agromarket/search-alerts/internal/entities"
)

type categoryRepository interface {
	GetByName(ctx context.Context, name string) (*entities.Category, error)
}

type CachedCategories struct {
	repo  categoryRepository
	cache *gocache.Cache
}

func NewCachedCategories(repo categoryRepository) *CachedCategories {
	return &CachedCategories{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
}

func (c CachedCategories) GetByName(ctx context.Context, name string) (*entities.Category, error) {
	if value, found := c.cache.Get(name); found {
		category := value.(entities.Category)
		return &category, nil
	}

	category, err := c.repo.GetByName(ctx, name)
	if category != nil {
		if err = c.cache.Add(name, *category, gocache.DefaultExpiration); err != nil {
			return category, err
		}
	}

	return category, err
}
