package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/logger"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// RateResolver prices shipments against the reference rate tables and
// records one audit entry per successful calculation.
type RateResolver struct {
	refRepo         domain.ReferenceRepository
	logRepo         domain.CalculationLogRepository
	timeout         time.Duration
	bulkConcurrency int
}

func NewRateResolver(refRepo domain.ReferenceRepository, logRepo domain.CalculationLogRepository, timeout time.Duration, bulkConcurrency int) *RateResolver {
	if bulkConcurrency < 1 {
		bulkConcurrency = 1
	}
	return &RateResolver{
		refRepo:         refRepo,
		logRepo:         logRepo,
		timeout:         timeout,
		bulkConcurrency: bulkConcurrency,
	}
}

func (u *RateResolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.timeout)
}

// ResolveZone returns the first active zone, by priority then id, that lists
// the destination country.
func (u *RateResolver) ResolveZone(ctx context.Context, destinationCountry string) (*domain.Zone, error) {
	country, ok := domain.NormalizeCountry(destinationCountry)
	if !ok {
		return nil, fmt.Errorf("%w: destination %q is not an ISO alpha-2 country code", domain.ErrInvalidInput, destinationCountry)
	}

	zones, err := u.refRepo.ListActiveZones(ctx)
	if err != nil {
		return nil, err
	}
	return matchZone(zones, country)
}

func matchZone(zones []domain.Zone, country string) (*domain.Zone, error) {
	// Cached slices are shared, sort a copy.
	ordered := make([]domain.Zone, len(zones))
	copy(ordered, zones)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].ID < ordered[j].ID
	})

	for i := range ordered {
		if ordered[i].IsActive && ordered[i].Covers(country) {
			z := ordered[i]
			return &z, nil
		}
	}
	return nil, fmt.Errorf("destination %s: %w", country, domain.ErrZoneNotFound)
}

// ResolveRate returns the active band of (policy, zone) that contains the weight.
func (u *RateResolver) ResolveRate(ctx context.Context, policyID, zoneID int32, weightKg decimal.Decimal) (*domain.Rate, error) {
	if !weightKg.IsPositive() {
		return nil, fmt.Errorf("%w: weight must be greater than zero", domain.ErrInvalidInput)
	}

	policy, err := u.refRepo.GetPolicyByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if policy.Status != domain.PolicyStatusActive {
		return nil, fmt.Errorf("policy %d is %s: %w", policyID, policy.Status, domain.ErrPolicyNotFound)
	}
	return u.rateFor(ctx, policy, zoneID, weightKg)
}

func (u *RateResolver) rateFor(ctx context.Context, policy *domain.Policy, zoneID int32, weightKg decimal.Decimal) (*domain.Rate, error) {
	if policy.MaxWeightKg.IsPositive() && weightKg.GreaterThan(policy.MaxWeightKg) {
		return nil, fmt.Errorf("weight %s kg exceeds policy %d max %s kg: %w",
			weightKg, policy.ID, policy.MaxWeightKg, domain.ErrRateNotFound)
	}

	rates, err := u.refRepo.ListActiveRates(ctx, policy.ID, zoneID)
	if err != nil {
		return nil, err
	}
	return selectBand(rates, weightKg, policy.ID, zoneID)
}

// selectBand picks the containing band with the largest minimum; overlapping
// rows resolve to the most specific band, ties to the lowest id.
func selectBand(rates []domain.Rate, weightKg decimal.Decimal, policyID, zoneID int32) (*domain.Rate, error) {
	var best *domain.Rate
	for i := range rates {
		r := &rates[i]
		if !r.IsActive || !r.Contains(weightKg) {
			continue
		}
		if best == nil ||
			r.WeightMinKg.GreaterThan(best.WeightMinKg) ||
			(r.WeightMinKg.Equal(best.WeightMinKg) && r.ID < best.ID) {
			best = r
		}
	}
	if best == nil {
		return nil, fmt.Errorf("policy %d, zone %d, weight %s kg: %w", policyID, zoneID, weightKg, domain.ErrRateNotFound)
	}
	out := *best
	return &out, nil
}

func validateRequest(req domain.ShipmentRequest) error {
	if !req.WeightKg.IsPositive() {
		return fmt.Errorf("%w: weight must be greater than zero", domain.ErrInvalidInput)
	}
	if req.Dimensions.LengthCm < 0 || req.Dimensions.WidthCm < 0 || req.Dimensions.HeightCm < 0 {
		return fmt.Errorf("%w: dimensions must not be negative", domain.ErrInvalidInput)
	}
	if !domain.IsValidPolicyType(req.PolicyType) {
		return fmt.Errorf("%w: unknown policy type %q", domain.ErrInvalidInput, req.PolicyType)
	}
	return nil
}

// price runs zone, policy and band resolution and composes the total.
func (u *RateResolver) price(ctx context.Context, req domain.ShipmentRequest, destinationCountry string) (*domain.PricedShipment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	zone, err := u.ResolveZone(ctx, destinationCountry)
	if err != nil {
		return nil, err
	}

	carrier, err := u.refRepo.GetCarrierByID(ctx, req.CarrierID)
	if err != nil {
		return nil, err
	}
	if !carrier.IsActive {
		return nil, fmt.Errorf("carrier %d is inactive: %w", carrier.ID, domain.ErrPolicyNotFound)
	}

	policy, err := u.refRepo.GetActivePolicy(ctx, req.CarrierID, req.PolicyType)
	if err != nil {
		return nil, err
	}

	rate, err := u.rateFor(ctx, policy, zone.ID, req.WeightKg)
	if err != nil {
		return nil, err
	}

	total, breakdown := domain.ComposeTotal(rate.CostUSD, policy.FuelSurchargePercent, policy.HandlingFee)

	daysMin, daysMax := rate.DeliveryDaysMin, rate.DeliveryDaysMax
	if daysMin == 0 && daysMax == 0 {
		daysMin, daysMax = policy.DeliveryDaysMin, policy.DeliveryDaysMax
	}

	return &domain.PricedShipment{
		ProductID:       req.ProductID,
		Cost:            total,
		Breakdown:       breakdown,
		DeliveryDaysMin: daysMin,
		DeliveryDaysMax: daysMax,
		CarrierID:       carrier.ID,
		CarrierName:     carrier.Name,
		ZoneID:          zone.ID,
		ZoneName:        zone.Name,
		PolicyID:        policy.ID,
		PolicyName:      policy.Name,
		PolicyType:      policy.Type,
	}, nil
}

// Quote prices a shipment without writing an audit entry.
func (u *RateResolver) Quote(ctx context.Context, req domain.ShipmentRequest, destinationCountry string) (*domain.PricedShipment, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	return u.price(ctx, req, destinationCountry)
}

// Calculate prices a shipment and appends its audit entry. A failed audit
// write is logged and the price is still returned, without a log id.
func (u *RateResolver) Calculate(ctx context.Context, req domain.ShipmentRequest, destinationCountry string) (*domain.PricedShipment, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()
	return u.calculate(ctx, req, destinationCountry)
}

func (u *RateResolver) calculate(ctx context.Context, req domain.ShipmentRequest, destinationCountry string) (*domain.PricedShipment, error) {
	log := logger.WithContext(ctx)

	shipment, err := u.price(ctx, req, destinationCountry)
	if err != nil {
		return nil, err
	}

	entry, err := u.logRepo.Append(ctx, &domain.CalculationLogEntry{
		ProductID:         req.ProductID,
		DestinationZoneID: shipment.ZoneID,
		UsedPolicyID:      shipment.PolicyID,
		ComputedCost:      shipment.Cost,
	})
	if err != nil {
		log.Error().Err(err).
			Str("product_id", req.ProductID).
			Int32("zone_id", shipment.ZoneID).
			Int32("policy_id", shipment.PolicyID).
			Str("cost", shipment.Cost.StringFixed(2)).
			Msg("RateResolver: calculation log write failed, returning unlogged price")
		return shipment, nil
	}
	shipment.LogID = entry.ID

	log.Debug().
		Str("product_id", req.ProductID).
		Str("destination", destinationCountry).
		Str("zone", shipment.ZoneName).
		Str("policy", shipment.PolicyName).
		Str("cost", shipment.Cost.StringFixed(2)).
		Msg("RateResolver: calculated")
	return shipment, nil
}

// CalculateBulk runs Calculate for every item on a bounded worker pool. One
// item's failure never aborts the others; results keep input order. Each item
// gets its own request timeout, started when a worker picks it up.
func (u *RateResolver) CalculateBulk(ctx context.Context, items []domain.ShipmentRequest, destinationCountry string) []domain.BulkResult {
	results := make([]domain.BulkResult, len(items))

	g := new(errgroup.Group)
	g.SetLimit(u.bulkConcurrency)
	for i := range items {
		g.Go(func() error {
			itemCtx, cancel := u.withTimeout(ctx)
			defer cancel()
			shipment, err := u.calculate(itemCtx, items[i], destinationCountry)
			results[i] = domain.BulkResult{Index: i, Shipment: shipment, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if !domain.IsNoMatch(r.Err) && !errors.Is(r.Err, domain.ErrInvalidInput) {
				logger.WithContext(ctx).Warn().Err(r.Err).Int("index", r.Index).Msg("RateResolver: bulk item failed")
			}
		}
	}
	logger.WithContext(ctx).Info().
		Int("items", len(items)).
		Int("failed", failed).
		Str("destination", destinationCountry).
		Msg("RateResolver: bulk calculation finished")

	return results
}
