package cache

import (
	"context"
	"fmt"
	"time"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/cache"
)

const referenceKeyPrefix = "ref:"

// ReferenceRepository is a read-through cache over a domain.ReferenceRepository.
// Errors, including not-found results, are never cached. Cached slices are
// shared between callers and must be treated as read-only.
type ReferenceRepository struct {
	next  domain.ReferenceRepository
	cache cache.CacheService
	ttl   time.Duration
}

func NewReferenceRepository(next domain.ReferenceRepository, c cache.CacheService, ttl time.Duration) *ReferenceRepository {
	return &ReferenceRepository{next: next, cache: c, ttl: ttl}
}

func (r *ReferenceRepository) ListActiveCarriers(ctx context.Context) ([]domain.Carrier, error) {
	key := referenceKeyPrefix + "carriers:active"
	if val, found := r.cache.Get(key); found {
		return val.([]domain.Carrier), nil
	}
	carriers, err := r.next.ListActiveCarriers(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, carriers, r.ttl)
	return carriers, nil
}

func (r *ReferenceRepository) GetCarrierByID(ctx context.Context, id int32) (*domain.Carrier, error) {
	key := fmt.Sprintf("%scarrier:%d", referenceKeyPrefix, id)
	if val, found := r.cache.Get(key); found {
		c := val.(domain.Carrier)
		return &c, nil
	}
	c, err := r.next.GetCarrierByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, *c, r.ttl)
	return c, nil
}

func (r *ReferenceRepository) ListActiveZones(ctx context.Context) ([]domain.Zone, error) {
	key := referenceKeyPrefix + "zones:active"
	if val, found := r.cache.Get(key); found {
		return val.([]domain.Zone), nil
	}
	zones, err := r.next.ListActiveZones(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, zones, r.ttl)
	return zones, nil
}

func (r *ReferenceRepository) GetActivePolicy(ctx context.Context, carrierID int32, policyType string) (*domain.Policy, error) {
	key := fmt.Sprintf("%spolicy:%d:%s", referenceKeyPrefix, carrierID, policyType)
	if val, found := r.cache.Get(key); found {
		p := val.(domain.Policy)
		return &p, nil
	}
	p, err := r.next.GetActivePolicy(ctx, carrierID, policyType)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, *p, r.ttl)
	return p, nil
}

func (r *ReferenceRepository) GetPolicyByID(ctx context.Context, id int32) (*domain.Policy, error) {
	key := fmt.Sprintf("%spolicy:id:%d", referenceKeyPrefix, id)
	if val, found := r.cache.Get(key); found {
		p := val.(domain.Policy)
		return &p, nil
	}
	p, err := r.next.GetPolicyByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, *p, r.ttl)
	return p, nil
}

func (r *ReferenceRepository) ListActiveRates(ctx context.Context, policyID, zoneID int32) ([]domain.Rate, error) {
	key := fmt.Sprintf("%srates:%d:%d", referenceKeyPrefix, policyID, zoneID)
	if val, found := r.cache.Get(key); found {
		return val.([]domain.Rate), nil
	}
	rates, err := r.next.ListActiveRates(ctx, policyID, zoneID)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, rates, r.ttl)
	return rates, nil
}

// Flush drops every cached reference entry and returns how many were held.
func (r *ReferenceRepository) Flush() int {
	n := r.cache.Count()
	r.cache.Flush()
	return n
}
