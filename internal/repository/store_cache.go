package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
)

// CachedStores decorates a StoreRepository with an in-process cache for
// lookups by id. Writes through this wrapper invalidate the affected entry.
type CachedStores struct {
	StoreRepository
	cache *gocache.Cache
}

// NewCachedStores caches positive lookups for ttl. A zero cleanup interval
// disables the background janitor; expired entries are still ignored on read.
func NewCachedStores(repo StoreRepository, ttl, cleanup time.Duration) *CachedStores {
	return &CachedStores{StoreRepository: repo, cache: gocache.New(ttl, cleanup)}
}

func (c *CachedStores) GetByID(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	key := id.String()
	if v, ok := c.cache.Get(key); ok {
		s := v.(entity.Store)
		return &s, nil
	}
	s, err := c.StoreRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, *s)
	return s, nil
}

// Exists only caches hits, so a store created elsewhere is visible immediately.
func (c *CachedStores) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, ok := c.cache.Get(id.String()); ok {
		return true, nil
	}
	s, err := c.StoreRepository.GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.cache.SetDefault(id.String(), *s)
	return true, nil
}

func (c *CachedStores) Update(ctx context.Context, id uuid.UUID, upd entity.StoreUpdate) (*entity.Store, error) {
	c.cache.Delete(id.String())
	return c.StoreRepository.Update(ctx, id, upd)
}

func (c *CachedStores) Delete(ctx context.Context, id uuid.UUID) error {
	c.cache.Delete(id.String())
	return c.StoreRepository.Delete(ctx, id)
}
