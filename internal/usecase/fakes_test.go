package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"shiprate-backend/internal/domain"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type memReferenceRepo struct {
	carriers []domain.Carrier
	zones    []domain.Zone
	policies []domain.Policy
	rates    []domain.Rate
	err      error // returned from every call when set
}

func (m *memReferenceRepo) ListActiveCarriers(ctx context.Context) ([]domain.Carrier, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Carrier
	for _, c := range m.carriers {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memReferenceRepo) GetCarrierByID(ctx context.Context, id int32) (*domain.Carrier, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.carriers {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, fmt.Errorf("carrier %d: %w", id, domain.ErrCarrierNotFound)
}

func (m *memReferenceRepo) ListActiveZones(ctx context.Context) ([]domain.Zone, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Zone
	for _, z := range m.zones {
		if z.IsActive {
			out = append(out, z)
		}
	}
	return out, nil
}

func (m *memReferenceRepo) GetActivePolicy(ctx context.Context, carrierID int32, policyType string) (*domain.Policy, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.policies {
		if p.CarrierID == carrierID && p.Type == policyType && p.Status == domain.PolicyStatusActive {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrPolicyNotFound
}

func (m *memReferenceRepo) GetPolicyByID(ctx context.Context, id int32) (*domain.Policy, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.policies {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, domain.ErrPolicyNotFound
}

func (m *memReferenceRepo) ListActiveRates(ctx context.Context, policyID, zoneID int32) ([]domain.Rate, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Rate
	for _, r := range m.rates {
		if r.PolicyID == policyID && r.ZoneID == zoneID && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

type memLogRepo struct {
	mu      sync.Mutex
	entries []domain.CalculationLogEntry
	err     error
	// afterList runs once List has produced its page, outside the lock.
	afterList func(m *memLogRepo)
}

func (m *memLogRepo) Append(ctx context.Context, entry *domain.CalculationLogEntry) (*domain.CalculationLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := *entry
	out.ID = int64(len(m.entries) + 1)
	out.CalculationTime = time.Now()
	m.entries = append(m.entries, out)
	return &out, nil
}

// List mirrors the store: newest first, ties by id descending.
func (m *memLogRepo) List(ctx context.Context, f domain.CalculationLogFilter) ([]domain.CalculationLogEntry, int64, error) {
	page, total, err := m.list(f)
	if err == nil && m.afterList != nil {
		m.afterList(m)
	}
	return page, total, err
}

func (m *memLogRepo) list(f domain.CalculationLogFilter) ([]domain.CalculationLogEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	var matched []domain.CalculationLogEntry
	for _, e := range m.entries {
		if f.ProductID != "" && e.ProductID != f.ProductID {
			continue
		}
		if !f.From.IsZero() && e.CalculationTime.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !e.CalculationTime.Before(f.To) {
			continue
		}
		if f.BeforeID > 0 && !olderThan(e, f.BeforeTime, f.BeforeID) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		return olderThan(matched[j], matched[i].CalculationTime, matched[i].ID)
	})

	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []domain.CalculationLogEntry{}, total, nil
	}
	end := f.Offset + f.Limit
	if f.Limit == 0 || end > len(matched) {
		end = len(matched)
	}
	return append([]domain.CalculationLogEntry(nil), matched[f.Offset:end]...), total, nil
}

func olderThan(e domain.CalculationLogEntry, t time.Time, id int64) bool {
	return e.CalculationTime.Before(t) || (e.CalculationTime.Equal(t) && e.ID < id)
}

// insertAt appends an entry stamped with the given time.
func (m *memLogRepo) insertAt(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, domain.CalculationLogEntry{
		ID:                int64(len(m.entries) + 1),
		ProductID:         "p-late",
		DestinationZoneID: 1,
		UsedPolicyID:      10,
		ComputedCost:      d("9.99"),
		CalculationTime:   at,
	})
}

func (m *memLogRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var errConnRefused = fmt.Errorf("%w: dial tcp: connection refused", domain.ErrDataStoreUnavailable)

var errUpload = errors.New("upload failed")

type memStorage struct {
	objects map[string][]byte
	err     error
}

func (m *memStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return "https://reports.example.com/" + key, nil
}

// Reference data used across tests:
//
//	carrier 1 "EMS":  economy policy 10 (5% fuel, 2.50 handling, max 30kg), express policy 11
//	carrier 2 "DHL":  economy policy 20 (0% fuel, 0 handling)
//	carrier 3 "Post": inactive
//	zone 1 "Asia" (KR, CN, TW) priority 1, zone 2 "North America" (US, CA) priority 2,
//	zone 3 "Rest of World" (US, GB) priority 9, zone 4 inactive (FR)
func newFixtureRepo() *memReferenceRepo {
	return &memReferenceRepo{
		carriers: []domain.Carrier{
			{ID: 1, Code: "ems", Name: "EMS", IsActive: true},
			{ID: 2, Code: "dhl", Name: "DHL", IsActive: true},
			{ID: 3, Code: "post", Name: "Post", IsActive: false},
		},
		zones: []domain.Zone{
			{ID: 3, Name: "Rest of World", Type: domain.ZoneTypeInternational, Countries: []string{"US", "GB"}, Priority: 9, IsActive: true},
			{ID: 1, Name: "Asia", Type: domain.ZoneTypeInternational, Countries: []string{"KR", "CN", "TW"}, Priority: 1, IsActive: true},
			{ID: 2, Name: "North America", Type: domain.ZoneTypeInternational, Countries: []string{"US", "CA"}, Priority: 2, IsActive: true},
			{ID: 4, Name: "Europe", Type: domain.ZoneTypeInternational, Countries: []string{"FR"}, Priority: 0, IsActive: false},
		},
		policies: []domain.Policy{
			{ID: 10, CarrierID: 1, Name: "EMS Economy", Type: domain.PolicyTypeEconomy, FuelSurchargePercent: d("5.0"), HandlingFee: d("2.50"), MaxWeightKg: d("30"), DeliveryDaysMin: 7, DeliveryDaysMax: 14, Status: domain.PolicyStatusActive},
			{ID: 11, CarrierID: 1, Name: "EMS Express", Type: domain.PolicyTypeExpress, FuelSurchargePercent: d("10"), HandlingFee: d("5"), MaxWeightKg: d("30"), Status: domain.PolicyStatusActive},
			{ID: 20, CarrierID: 2, Name: "DHL Economy", Type: domain.PolicyTypeEconomy, FuelSurchargePercent: d("0"), HandlingFee: d("0"), Status: domain.PolicyStatusActive},
			{ID: 30, CarrierID: 3, Name: "Post Economy", Type: domain.PolicyTypeEconomy, Status: domain.PolicyStatusActive},
			{ID: 12, CarrierID: 1, Name: "EMS Legacy", Type: domain.PolicyTypeEconomy, Status: domain.PolicyStatusInactive},
		},
		rates: []domain.Rate{
			{ID: 100, PolicyID: 10, ZoneID: 1, WeightMinKg: d("0"), WeightMaxKg: d("0.5"), CostUSD: d("20.00"), DeliveryDaysMin: 3, DeliveryDaysMax: 5, IsActive: true},
			{ID: 101, PolicyID: 10, ZoneID: 1, WeightMinKg: d("0.5"), WeightMaxKg: d("1.0"), CostUSD: d("26.00"), DeliveryDaysMin: 3, DeliveryDaysMax: 5, IsActive: true},
			{ID: 102, PolicyID: 10, ZoneID: 1, WeightMinKg: d("1.0"), WeightMaxKg: d("2.0"), CostUSD: d("34.00"), IsActive: true},
			{ID: 103, PolicyID: 10, ZoneID: 1, WeightMinKg: d("2.0"), WeightMaxKg: d("5.0"), CostUSD: d("99.00"), IsActive: false},
			{ID: 104, PolicyID: 10, ZoneID: 1, WeightMinKg: d("2.0"), WeightMaxKg: d("40.0"), CostUSD: d("80.00"), IsActive: true},
			{ID: 110, PolicyID: 11, ZoneID: 1, WeightMinKg: d("0"), WeightMaxKg: d("2.0"), CostUSD: d("40.00"), IsActive: true},
			{ID: 200, PolicyID: 20, ZoneID: 1, WeightMinKg: d("0"), WeightMaxKg: d("2.0"), CostUSD: d("16.00"), IsActive: true},
			{ID: 201, PolicyID: 20, ZoneID: 2, WeightMinKg: d("0"), WeightMaxKg: d("2.0"), CostUSD: d("25.00"), IsActive: true},
		},
	}
}
