// Package cached decorates collections with a Redis read-through cache.
package cached

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/islandrides/vehicle-rental/internal/db"
	"github.com/islandrides/vehicle-rental/internal/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	vehicleListCachePrefix = "vehicles:list:"
	vehicleListCacheTTL    = 5 * time.Minute
)

// VehicleCollection caches the public vehicle listing in Redis. Any write
// to a vehicle, including blocked-period mutations from the booking flow,
// invalidates the cached lists so availability is never served stale.
type VehicleCollection struct {
	inner db.VehicleCollection
	cache *redis.Client
}

// NewVehicleCollection wraps inner with a Redis cache.
func NewVehicleCollection(inner db.VehicleCollection, cache *redis.Client) *VehicleCollection {
	return &VehicleCollection{inner: inner, cache: cache}
}

// FindVehicles serves the type-filtered vehicle list from cache when
// possible, falling back to the underlying collection. Cache failures are
// logged and degrade to a direct read.
func (c *VehicleCollection) FindVehicles(ctx context.Context, vehicleType string) ([]models.Vehicle, error) {
	key := vehicleListCachePrefix + vehicleType

	cachedData, err := c.cache.Get(ctx, key).Result()
	if err == nil {
		var vehicles []models.Vehicle
		if jsonErr := json.Unmarshal([]byte(cachedData), &vehicles); jsonErr == nil {
			return vehicles, nil
		}
		// Corrupt entry; drop it and fall through to the collection.
		_ = c.cache.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		log.WithError(err).Warn("vehicle list cache read failed")
	}

	vehicles, err := c.inner.FindVehicles(ctx, vehicleType)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(vehicles); jsonErr == nil {
		if setErr := c.cache.Set(ctx, key, data, vehicleListCacheTTL).Err(); setErr != nil {
			log.WithError(setErr).Warn("vehicle list cache write failed")
		}
	}
	return vehicles, nil
}

// invalidate drops all cached vehicle lists.
func (c *VehicleCollection) invalidate(ctx context.Context) {
	iter := c.cache.Scan(ctx, 0, vehicleListCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.cache.Del(ctx, iter.Val()).Err(); err != nil {
			log.WithError(err).Warn("vehicle list cache invalidation failed")
		}
	}
	if err := iter.Err(); err != nil {
		log.WithError(err).Warn("vehicle list cache scan failed")
	}
}

// InsertVehicle inserts and invalidates the cached lists.
func (c *VehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if err := c.inner.InsertVehicle(ctx, vehicle); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// FindVehicleByID is not cached; availability checks must see the latest
// blocked periods.
func (c *VehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return c.inner.FindVehicleByID(ctx, id)
}

// UpdateVehicle updates and invalidates the cached lists.
func (c *VehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	if err := c.inner.UpdateVehicle(ctx, id, vehicle); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// DeleteVehicle deletes and invalidates the cached lists.
func (c *VehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	if err := c.inner.DeleteVehicle(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// AppendBlockedPeriod appends and invalidates the cached lists.
func (c *VehicleCollection) AppendBlockedPeriod(ctx context.Context, id string, period models.BlockedPeriod) error {
	if err := c.inner.AppendBlockedPeriod(ctx, id, period); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// RemoveBlockedPeriod removes and invalidates the cached lists.
func (c *VehicleCollection) RemoveBlockedPeriod(ctx context.Context, id string, period models.BlockedPeriod) error {
	if err := c.inner.RemoveBlockedPeriod(ctx, id, period); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}
