package seed

import (
	"context"
	"fmt"
	"strings"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/logger"
)

// ImportSummary counts the rows written by one import.
type ImportSummary struct {
	Zones    int `json:"zones"`
	Carriers int `json:"carriers"`
	Policies int `json:"policies"`
	Rates    int `json:"rates"`
}

type Importer struct {
	writer domain.ReferenceWriter
	tx     domain.TransactionManager
}

func NewImporter(writer domain.ReferenceWriter, tx domain.TransactionManager) *Importer {
	return &Importer{writer: writer, tx: tx}
}

// Validate checks the sheet without touching the store and returns every
// problem found.
func Validate(sheet *RateSheet) []string {
	zones, problems := sheet.zones()

	for _, c := range domain.FindZoneConflicts(zones) {
		problems = append(problems, c.String())
	}

	known := make(map[string]bool, len(zones))
	for _, z := range zones {
		known[z.Name] = true
	}

	codes := map[string]bool{}
	for _, cs := range sheet.Carriers {
		code := strings.TrimSpace(cs.Code)
		if code == "" || strings.TrimSpace(cs.Name) == "" {
			problems = append(problems, fmt.Sprintf("carrier %q: code and name are required", cs.Code))
			continue
		}
		if codes[code] {
			problems = append(problems, fmt.Sprintf("carrier %q declared twice", code))
		}
		codes[code] = true

		for _, ps := range cs.Policies {
			where := fmt.Sprintf("carrier %s policy %q", code, ps.Name)
			if strings.TrimSpace(ps.Name) == "" {
				problems = append(problems, where+": name is required")
			}
			if !domain.IsValidPolicyType(ps.Type) {
				problems = append(problems, fmt.Sprintf("%s: unknown type %q", where, ps.Type))
			}
			if ps.FuelSurchargePercent.IsNegative() || ps.HandlingFee.IsNegative() || ps.BaseCost.IsNegative() || ps.MaxWeightKg.IsNegative() {
				problems = append(problems, where+": fees and max weight must not be negative")
			}
			if _, _, err := daysRange(ps.DeliveryDays); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", where, err))
			}

			for _, zr := range ps.Rates {
				if !known[zr.Zone] {
					problems = append(problems, fmt.Sprintf("%s: unknown zone %q", where, zr.Zone))
					continue
				}
				rates, err := zr.toRates(0, 0)
				if err != nil {
					problems = append(problems, fmt.Sprintf("%s zone %s: %v", where, zr.Zone, err))
					continue
				}
				for _, issue := range ValidateBands(rates) {
					problems = append(problems, fmt.Sprintf("%s zone %s: %s: %s", where, zr.Zone, issue.Kind, issue.Detail))
				}
			}
		}
	}
	return problems
}

func (zr ZoneRateSheet) toRates(policyID, zoneID int32) ([]domain.Rate, error) {
	out := make([]domain.Rate, 0, len(zr.Bands))
	for _, b := range zr.Bands {
		if b.Min.IsNegative() || b.Cost.IsNegative() {
			return nil, fmt.Errorf("band %s-%s kg: weight and cost must not be negative", b.Min, b.Max)
		}
		lo, hi, err := daysRange(b.Days)
		if err != nil {
			return nil, fmt.Errorf("band %s-%s kg: %w", b.Min, b.Max, err)
		}
		out = append(out, domain.Rate{
			PolicyID:        policyID,
			ZoneID:          zoneID,
			WeightMinKg:     b.Min,
			WeightMaxKg:     b.Max,
			CostUSD:         b.Cost,
			DeliveryDaysMin: lo,
			DeliveryDaysMax: hi,
			IsActive:        !b.Inactive,
		})
	}
	return out, nil
}

// Import validates the sheet and writes it in a single transaction. Rate
// bands of every listed (policy, zone) pair are replaced wholesale.
func (im *Importer) Import(ctx context.Context, sheet *RateSheet) (ImportSummary, error) {
	if problems := Validate(sheet); len(problems) > 0 {
		return ImportSummary{}, fmt.Errorf("%w: rate sheet has %d problem(s): %s",
			domain.ErrInvalidInput, len(problems), strings.Join(problems, "; "))
	}

	zones, _ := sheet.zones()
	var summary ImportSummary

	err := im.tx.Do(ctx, func(ctx context.Context) error {
		summary = ImportSummary{}
		zoneIDs := make(map[string]int32, len(zones))
		for i := range zones {
			z, err := im.writer.UpsertZone(ctx, &zones[i])
			if err != nil {
				return fmt.Errorf("zone %s: %w", zones[i].Name, err)
			}
			zoneIDs[z.Name] = z.ID
			summary.Zones++
		}

		for _, cs := range sheet.Carriers {
			carrier, err := im.writer.UpsertCarrier(ctx, &domain.Carrier{
				Code:     strings.TrimSpace(cs.Code),
				Name:     strings.TrimSpace(cs.Name),
				IsActive: !cs.Inactive,
			})
			if err != nil {
				return fmt.Errorf("carrier %s: %w", cs.Code, err)
			}
			summary.Carriers++

			for _, ps := range cs.Policies {
				lo, hi, _ := daysRange(ps.DeliveryDays)
				status := domain.PolicyStatusActive
				if ps.Inactive {
					status = domain.PolicyStatusInactive
				}
				policy, err := im.writer.UpsertPolicy(ctx, &domain.Policy{
					CarrierID:            carrier.ID,
					Name:                 strings.TrimSpace(ps.Name),
					Type:                 ps.Type,
					BaseCost:             ps.BaseCost,
					FuelSurchargePercent: ps.FuelSurchargePercent,
					HandlingFee:          ps.HandlingFee,
					MaxWeightKg:          ps.MaxWeightKg,
					DeliveryDaysMin:      lo,
					DeliveryDaysMax:      hi,
					Status:               status,
				})
				if err != nil {
					return fmt.Errorf("policy %s: %w", ps.Name, err)
				}
				summary.Policies++

				for _, zr := range ps.Rates {
					zoneID := zoneIDs[zr.Zone]
					rates, err := zr.toRates(policy.ID, zoneID)
					if err != nil {
						return err
					}
					if err := im.writer.ReplaceRates(ctx, policy.ID, zoneID, rates); err != nil {
						return fmt.Errorf("rates for policy %s zone %s: %w", ps.Name, zr.Zone, err)
					}
					summary.Rates += len(rates)
				}
			}
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	logger.WithContext(ctx).Info().
		Int("zones", summary.Zones).
		Int("carriers", summary.Carriers).
		Int("policies", summary.Policies).
		Int("rates", summary.Rates).
		Msg("Seed: rate sheet imported")
	return summary, nil
}
