package repository

import (
	"context"
	"encoding/json"
	"time"

	"cashdesk/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductCatalog is the read-only pricing view of the external product catalog.
type ProductCatalog interface {
	// FindPricing returns an active product or ErrNotFound.
	FindPricing(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

type productCatalog struct {
	db  *gorm.DB
	rdb *redis.Client
	ttl time.Duration
}

// NewProductCatalog reads products through a Redis read-through cache.
// A nil rdb or a non-positive ttl disables caching.
func NewProductCatalog(db *gorm.DB, rdb *redis.Client, ttl time.Duration) ProductCatalog {
	return &productCatalog{db: db, rdb: rdb, ttl: ttl}
}

func pricingCacheKey(id uuid.UUID) string { return "product:pricing:" + id.String() }

func (r *productCatalog) FindPricing(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	caching := r.rdb != nil && r.ttl > 0
	key := pricingCacheKey(id)

	if caching {
		if cached, err := r.rdb.Get(ctx, key).Bytes(); err == nil {
			var p model.Product
			if jsonErr := json.Unmarshal(cached, &p); jsonErr == nil {
				return &p, nil
			}
		}
	}

	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ? AND active = true", id).First(&p).Error
	if err != nil {
		return nil, notFound(err)
	}

	// Best effort: a cache write failure never fails the lookup.
	if caching {
		if b, jsonErr := json.Marshal(p); jsonErr == nil {
			if setErr := r.rdb.Set(ctx, key, b, r.ttl).Err(); setErr != nil {
				log.Warn().Err(setErr).Str("product_id", id.String()).Msg("product cache write failed")
			}
		}
	}
	return &p, nil
}
