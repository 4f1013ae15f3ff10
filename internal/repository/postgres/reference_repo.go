package pgrepo

import (
	"context"
	"fmt"
	"time"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type referenceRepository struct {
	db *pgxpool.Pool
}

// ReferenceRepository reads and writes carriers, zones, policies and rate bands.
type ReferenceRepository interface {
	domain.ReferenceRepository
	domain.ReferenceWriter
}

func NewReferenceRepository(db *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{db: db}
}

const carrierColumns = `id, code, name, is_active`

const zoneColumns = `id, name, zone_type, countries, priority, is_active`

const policyColumns = `id, carrier_id, name, policy_type, base_cost, fuel_surcharge_percent, handling_fee,
	max_weight_kg, default_delivery_days_min, default_delivery_days_max, status`

const rateColumns = `id, policy_id, zone_id, weight_min_kg, weight_max_kg, cost_usd,
	delivery_days_min, delivery_days_max, is_active`

func scanCarrier(row pgx.Row) (*domain.Carrier, error) {
	var c domain.Carrier
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.IsActive); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanZone(row pgx.Row) (*domain.Zone, error) {
	var z domain.Zone
	if err := row.Scan(&z.ID, &z.Name, &z.Type, &z.Countries, &z.Priority, &z.IsActive); err != nil {
		return nil, err
	}
	return &z, nil
}

func scanPolicy(row pgx.Row) (*domain.Policy, error) {
	var (
		p                           domain.Policy
		base, fuel, handling, maxKg pgtype.Numeric
	)
	err := row.Scan(&p.ID, &p.CarrierID, &p.Name, &p.Type, &base, &fuel, &handling,
		&maxKg, &p.DeliveryDaysMin, &p.DeliveryDaysMax, &p.Status)
	if err != nil {
		return nil, err
	}
	p.BaseCost = numericToDecimal(base)
	p.FuelSurchargePercent = numericToDecimal(fuel)
	p.HandlingFee = numericToDecimal(handling)
	p.MaxWeightKg = numericToDecimal(maxKg)
	return &p, nil
}

func scanRate(row pgx.Row) (*domain.Rate, error) {
	var (
		r                  domain.Rate
		minKg, maxKg, cost pgtype.Numeric
	)
	err := row.Scan(&r.ID, &r.PolicyID, &r.ZoneID, &minKg, &maxKg, &cost,
		&r.DeliveryDaysMin, &r.DeliveryDaysMax, &r.IsActive)
	if err != nil {
		return nil, err
	}
	r.WeightMinKg = numericToDecimal(minKg)
	r.WeightMaxKg = numericToDecimal(maxKg)
	r.CostUSD = numericToDecimal(cost)
	return &r, nil
}

func (r *referenceRepository) ListActiveCarriers(ctx context.Context) ([]domain.Carrier, error) {
	query := `SELECT ` + carrierColumns + ` FROM carriers WHERE is_active ORDER BY id`
	start := time.Now()
	rows, err := dbFromContext(ctx, r.db).Query(ctx, query)
	logger.DBQuery(ctx, "ListActiveCarriers", time.Since(start), err)
	if err != nil {
		return nil, storeErr("list carriers", err)
	}
	defer rows.Close()

	var result []domain.Carrier
	for rows.Next() {
		c, err := scanCarrier(rows)
		if err != nil {
			return nil, storeErr("scan carrier", err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list carriers", err)
	}
	return result, nil
}

func (r *referenceRepository) GetCarrierByID(ctx context.Context, id int32) (*domain.Carrier, error) {
	query := `SELECT ` + carrierColumns + ` FROM carriers WHERE id = $1`
	c, err := scanCarrier(dbFromContext(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("carrier %d: %w", id, domain.ErrCarrierNotFound)
		}
		return nil, storeErr("get carrier", err)
	}
	return c, nil
}

// ListActiveZones returns zones ordered by priority then id, the order the
// resolver scans them in.
func (r *referenceRepository) ListActiveZones(ctx context.Context) ([]domain.Zone, error) {
	query := `SELECT ` + zoneColumns + ` FROM shipping_zones WHERE is_active ORDER BY priority ASC, id ASC`
	start := time.Now()
	rows, err := dbFromContext(ctx, r.db).Query(ctx, query)
	logger.DBQuery(ctx, "ListActiveZones", time.Since(start), err)
	if err != nil {
		return nil, storeErr("list zones", err)
	}
	defer rows.Close()

	var result []domain.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, storeErr("scan zone", err)
		}
		result = append(result, *z)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list zones", err)
	}
	return result, nil
}

func (r *referenceRepository) GetActivePolicy(ctx context.Context, carrierID int32, policyType string) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + `
		FROM shipping_policies
		WHERE carrier_id = $1 AND policy_type = $2 AND status = 'active'
		ORDER BY id ASC
		LIMIT 1`
	p, err := scanPolicy(dbFromContext(ctx, r.db).QueryRow(ctx, query, carrierID, policyType))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("carrier %d, type %s: %w", carrierID, policyType, domain.ErrPolicyNotFound)
		}
		return nil, storeErr("get active policy", err)
	}
	return p, nil
}

func (r *referenceRepository) GetPolicyByID(ctx context.Context, id int32) (*domain.Policy, error) {
	query := `SELECT ` + policyColumns + ` FROM shipping_policies WHERE id = $1`
	p, err := scanPolicy(dbFromContext(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("policy %d: %w", id, domain.ErrPolicyNotFound)
		}
		return nil, storeErr("get policy", err)
	}
	return p, nil
}

func (r *referenceRepository) ListActiveRates(ctx context.Context, policyID, zoneID int32) ([]domain.Rate, error) {
	query := `SELECT ` + rateColumns + `
		FROM shipping_rates
		WHERE policy_id = $1 AND zone_id = $2 AND is_active
		ORDER BY weight_min_kg ASC, id ASC`
	start := time.Now()
	rows, err := dbFromContext(ctx, r.db).Query(ctx, query, policyID, zoneID)
	logger.DBQuery(ctx, "ListActiveRates", time.Since(start), err)
	if err != nil {
		return nil, storeErr("list rates", err)
	}
	defer rows.Close()

	var result []domain.Rate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, storeErr("scan rate", err)
		}
		result = append(result, *rate)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list rates", err)
	}
	return result, nil
}

// --- Writes (rate-sheet import) ---

func (r *referenceRepository) UpsertCarrier(ctx context.Context, c *domain.Carrier) (*domain.Carrier, error) {
	query := `INSERT INTO carriers (code, name, is_active)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name, is_active = EXCLUDED.is_active, updated_at = NOW()
		RETURNING ` + carrierColumns
	out, err := scanCarrier(dbFromContext(ctx, r.db).QueryRow(ctx, query, c.Code, c.Name, c.IsActive))
	if err != nil {
		return nil, storeErr("upsert carrier", err)
	}
	return out, nil
}

func (r *referenceRepository) UpsertZone(ctx context.Context, z *domain.Zone) (*domain.Zone, error) {
	query := `INSERT INTO shipping_zones (name, zone_type, countries, priority, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE
		SET zone_type = EXCLUDED.zone_type, countries = EXCLUDED.countries,
		    priority = EXCLUDED.priority, is_active = EXCLUDED.is_active, updated_at = NOW()
		RETURNING ` + zoneColumns
	out, err := scanZone(dbFromContext(ctx, r.db).QueryRow(ctx, query, z.Name, z.Type, z.Countries, z.Priority, z.IsActive))
	if err != nil {
		return nil, storeErr("upsert zone", err)
	}
	return out, nil
}

func (r *referenceRepository) UpsertPolicy(ctx context.Context, p *domain.Policy) (*domain.Policy, error) {
	query := `INSERT INTO shipping_policies (carrier_id, name, policy_type, base_cost, fuel_surcharge_percent,
			handling_fee, max_weight_kg, default_delivery_days_min, default_delivery_days_max, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (carrier_id, name) DO UPDATE
		SET policy_type = EXCLUDED.policy_type, base_cost = EXCLUDED.base_cost,
		    fuel_surcharge_percent = EXCLUDED.fuel_surcharge_percent, handling_fee = EXCLUDED.handling_fee,
		    max_weight_kg = EXCLUDED.max_weight_kg,
		    default_delivery_days_min = EXCLUDED.default_delivery_days_min,
		    default_delivery_days_max = EXCLUDED.default_delivery_days_max,
		    status = EXCLUDED.status, updated_at = NOW()
		RETURNING ` + policyColumns
	out, err := scanPolicy(dbFromContext(ctx, r.db).QueryRow(ctx, query,
		p.CarrierID, p.Name, p.Type,
		decimalToNumeric(p.BaseCost), decimalToNumeric(p.FuelSurchargePercent),
		decimalToNumeric(p.HandlingFee), decimalToNumeric(p.MaxWeightKg),
		p.DeliveryDaysMin, p.DeliveryDaysMax, p.Status,
	))
	if err != nil {
		return nil, storeErr("upsert policy", err)
	}
	return out, nil
}

// ReplaceRates swaps the whole band table of (policy, zone). Run it inside a
// transaction so readers never observe a partial table.
func (r *referenceRepository) ReplaceRates(ctx context.Context, policyID, zoneID int32, rates []domain.Rate) error {
	db := dbFromContext(ctx, r.db)

	if _, err := db.Exec(ctx, `DELETE FROM shipping_rates WHERE policy_id = $1 AND zone_id = $2`, policyID, zoneID); err != nil {
		return storeErr("delete rates", err)
	}
	if len(rates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rate := range rates {
		batch.Queue(`INSERT INTO shipping_rates
			(policy_id, zone_id, weight_min_kg, weight_max_kg, cost_usd, delivery_days_min, delivery_days_max, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			policyID, zoneID,
			decimalToNumeric(rate.WeightMinKg), decimalToNumeric(rate.WeightMaxKg), decimalToNumeric(rate.CostUSD),
			rate.DeliveryDaysMin, rate.DeliveryDaysMax, rate.IsActive,
		)
	}

	br := db.SendBatch(ctx, batch)
	for range rates {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return storeErr("insert rate", err)
		}
	}
	if err := br.Close(); err != nil {
		return storeErr("insert rates", err)
	}
	return nil
}
