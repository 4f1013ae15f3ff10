package usecase

import (
	"context"
	"time"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/logger"
)

// Flusher drops cached reference data and reports how many entries it held.
type Flusher interface {
	Flush() int
}

// ReferenceUsecase serves reference-data maintenance for admins and startup.
type ReferenceUsecase struct {
	refRepo domain.ReferenceRepository // read straight from the store, not the cache
	cache   Flusher
	timeout time.Duration
}

func NewReferenceUsecase(refRepo domain.ReferenceRepository, cache Flusher, timeout time.Duration) *ReferenceUsecase {
	return &ReferenceUsecase{refRepo: refRepo, cache: cache, timeout: timeout}
}

// ZoneConflicts lists countries claimed by more than one active zone.
func (u *ReferenceUsecase) ZoneConflicts(ctx context.Context) ([]domain.ZoneConflict, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	zones, err := u.refRepo.ListActiveZones(ctx)
	if err != nil {
		return nil, err
	}
	conflicts := domain.FindZoneConflicts(zones)
	if conflicts == nil {
		conflicts = []domain.ZoneConflict{}
	}
	return conflicts, nil
}

func (u *ReferenceUsecase) FlushCache() int {
	if u.cache == nil {
		return 0
	}
	n := u.cache.Flush()
	logger.Info().Int("entries", n).Msg("Reference cache flushed")
	return n
}
