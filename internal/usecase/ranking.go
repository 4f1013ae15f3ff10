package usecase

import (
	"context"
	"sort"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/logger"

	"github.com/shopspring/decimal"
)

// DefaultOptionsLimit is how many carrier options are offered to a buyer.
const DefaultOptionsLimit = 5

// RankOptions scales each quote by the shipment weight, orders by the scaled
// cost and keeps the cheapest limit entries. Equal costs keep input order.
func RankOptions(quotes []domain.PricedShipment, weightKg decimal.Decimal, limit int) []domain.ShippingOption {
	options := make([]domain.ShippingOption, len(quotes))
	for i, q := range quotes {
		options[i] = domain.ShippingOption{
			Quote:      q,
			ScaledCost: domain.RoundCurrency(q.Cost.Mul(weightKg)),
		}
	}

	sort.SliceStable(options, func(i, j int) bool {
		return options[i].ScaledCost.LessThan(options[j].ScaledCost)
	})

	if limit > 0 && len(options) > limit {
		options = options[:limit]
	}
	return options
}

type ShippingOptionsUsecase struct {
	refRepo  domain.ReferenceRepository
	resolver domain.RateResolver
	limit    int
}

func NewShippingOptionsUsecase(refRepo domain.ReferenceRepository, resolver domain.RateResolver, limit int) *ShippingOptionsUsecase {
	if limit < 1 {
		limit = DefaultOptionsLimit
	}
	return &ShippingOptionsUsecase{refRepo: refRepo, resolver: resolver, limit: limit}
}

// GetShippingOptions quotes every active carrier for the route and returns the
// cheapest ones. Carriers with no zone, policy or band for the route are
// skipped; store failures abort the listing. No audit entries are written.
func (u *ShippingOptionsUsecase) GetShippingOptions(ctx context.Context, weightKg decimal.Decimal, dims domain.Dimensions, destinationCountry, policyType string) ([]domain.ShippingOption, error) {
	log := logger.WithContext(ctx)

	carriers, err := u.refRepo.ListActiveCarriers(ctx)
	if err != nil {
		return nil, err
	}

	quotes := make([]domain.PricedShipment, 0, len(carriers))
	for _, c := range carriers {
		q, err := u.resolver.Quote(ctx, domain.ShipmentRequest{
			CarrierID:  c.ID,
			WeightKg:   weightKg,
			Dimensions: dims,
			PolicyType: policyType,
		}, destinationCountry)
		if err != nil {
			if domain.IsNoMatch(err) {
				log.Debug().Err(err).Int32("carrier_id", c.ID).Msg("ShippingOptions: carrier skipped")
				continue
			}
			return nil, err
		}
		quotes = append(quotes, *q)
	}

	if len(quotes) == 0 {
		// Distinguish "nobody ships there" from an empty but valid listing.
		if _, err := u.resolver.ResolveZone(ctx, destinationCountry); err != nil {
			return nil, err
		}
	}

	return RankOptions(quotes, weightKg, u.limit), nil
}
