package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	gocache "github.com/patrickmn/go-cache"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// AssetRepository resolves assets in the registry.
type AssetRepository interface {
	Find(ctx context.Context, code, nup string) (*domain.Asset, error)
}

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository builds repository.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

func (r *assetRepository) Find(ctx context.Context, code, nup string) (*domain.Asset, error) {
	const query = `SELECT code, nup, name, COALESCE(location, '') FROM assets WHERE code=$1 AND nup=$2`
	var a domain.Asset
	if err := conn(ctx, r.pool).QueryRow(ctx, query, code, nup).Scan(&a.Code, &a.NUP, &a.Name, &a.Location); err != nil {
		return nil, mapPgError(err)
	}
	return &a, nil
}

// cachedAssetRepository remembers registry hits. Misses are never cached so a newly
// registered asset is usable immediately.
type cachedAssetRepository struct {
	next  AssetRepository
	cache *gocache.Cache
}

// NewCachedAssetRepository wraps next with an expiring cache. ttl <= 0 disables caching.
func NewCachedAssetRepository(next AssetRepository, ttl time.Duration) AssetRepository {
	if ttl <= 0 {
		return next
	}
	return &cachedAssetRepository{next: next, cache: gocache.New(ttl, 2*ttl)}
}

func (r *cachedAssetRepository) Find(ctx context.Context, code, nup string) (*domain.Asset, error) {
	key := code + "/" + nup
	if v, ok := r.cache.Get(key); ok {
		asset := v.(domain.Asset)
		return &asset, nil
	}
	asset, err := r.next.Find(ctx, code, nup)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, *asset)
	return asset, nil
}
