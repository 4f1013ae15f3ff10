package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shiprate-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSheet = `
zones:
  - name: Asia
    type: international
    countries: [kr, CN, " tw "]
    priority: 1
  - name: North America
    type: international
    countries: [US, CA]
    priority: 2
carriers:
  - code: ems
    name: EMS
    policies:
      - name: EMS Economy
        type: economy
        fuel_surcharge_percent: 5
        handling_fee: 2.50
        max_weight_kg: 30
        delivery_days: [7, 14]
        rates:
          - zone: Asia
            bands:
              - {min: 0, max: 0.5, cost: 20.00, days: [3, 5]}
              - {min: 0.5, max: 1.0, cost: 26.00}
          - zone: North America
            bands:
              - {min: 0, max: 2, cost: 41.10}
  - code: dhl
    name: DHL
    policies:
      - name: DHL Express
        type: express
        rates:
          - zone: Asia
            bands:
              - {min: 0, max: 5, cost: 55}
`

type fakeWriter struct {
	zones    []domain.Zone
	carriers []domain.Carrier
	policies []domain.Policy
	rates    map[[2]int32][]domain.Rate
	failOn   string
}

func (f *fakeWriter) UpsertCarrier(ctx context.Context, c *domain.Carrier) (*domain.Carrier, error) {
	if f.failOn == "carrier" {
		return nil, domain.ErrDataStoreUnavailable
	}
	out := *c
	out.ID = int32(len(f.carriers) + 1)
	f.carriers = append(f.carriers, out)
	return &out, nil
}

func (f *fakeWriter) UpsertZone(ctx context.Context, z *domain.Zone) (*domain.Zone, error) {
	out := *z
	out.ID = int32(len(f.zones) + 1)
	f.zones = append(f.zones, out)
	return &out, nil
}

func (f *fakeWriter) UpsertPolicy(ctx context.Context, p *domain.Policy) (*domain.Policy, error) {
	out := *p
	out.ID = int32(len(f.policies) + 100)
	f.policies = append(f.policies, out)
	return &out, nil
}

func (f *fakeWriter) ReplaceRates(ctx context.Context, policyID, zoneID int32, rates []domain.Rate) error {
	if f.rates == nil {
		f.rates = map[[2]int32][]domain.Rate{}
	}
	f.rates[[2]int32{policyID, zoneID}] = rates
	return nil
}

type fakeTx struct {
	calls      int
	rolledBack bool
}

func (f *fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	if err := fn(ctx); err != nil {
		f.rolledBack = true
		return err
	}
	return nil
}

func TestParseRateSheet(t *testing.T) {
	sheet, err := ParseRateSheet([]byte(sampleSheet))
	require.NoError(t, err)

	require.Len(t, sheet.Zones, 2)
	require.Len(t, sheet.Carriers, 2)
	p := sheet.Carriers[0].Policies[0]
	assert.Equal(t, "5", p.FuelSurchargePercent.String())
	assert.Equal(t, "2.50", p.HandlingFee.StringFixed(2))
	assert.Equal(t, []int32{7, 14}, p.DeliveryDays)
	assert.Equal(t, "26.00", p.Rates[0].Bands[1].Cost.StringFixed(2))
}

func TestParseRateSheet_Malformed(t *testing.T) {
	_, err := ParseRateSheet([]byte("zones: [name: {"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoadRateSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleSheet), 0o600))

	sheet, err := LoadRateSheet(path)
	require.NoError(t, err)
	assert.Equal(t, "Asia", sheet.Zones[0].Name)

	_, err = LoadRateSheet(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestImporter_Import(t *testing.T) {
	sheet, err := ParseRateSheet([]byte(sampleSheet))
	require.NoError(t, err)

	w := &fakeWriter{}
	tx := &fakeTx{}
	summary, err := NewImporter(w, tx).Import(context.Background(), sheet)
	require.NoError(t, err)

	assert.Equal(t, ImportSummary{Zones: 2, Carriers: 2, Policies: 2, Rates: 4}, summary)
	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, []string{"KR", "CN", "TW"}, w.zones[0].Countries)
	assert.True(t, w.zones[0].IsActive)

	economy := w.policies[0]
	assert.Equal(t, int32(1), economy.CarrierID)
	assert.Equal(t, domain.PolicyStatusActive, economy.Status)
	assert.Equal(t, int32(7), economy.DeliveryDaysMin)
	assert.Equal(t, int32(14), economy.DeliveryDaysMax)

	asia := w.rates[[2]int32{economy.ID, 1}]
	require.Len(t, asia, 2)
	assert.Equal(t, int32(3), asia[0].DeliveryDaysMin)
	assert.Equal(t, int32(5), asia[0].DeliveryDaysMax)
	assert.Equal(t, economy.ID, asia[0].PolicyID)
	assert.Equal(t, int32(1), asia[0].ZoneID)

	dhl := w.rates[[2]int32{w.policies[1].ID, 1}]
	require.Len(t, dhl, 1)
	assert.Equal(t, int32(2), w.policies[1].CarrierID)
}

func TestImporter_RejectsBadSheet(t *testing.T) {
	tests := []struct {
		name  string
		sheet string
	}{
		{
			name: "country in two zones",
			sheet: `
zones:
  - {name: A, type: international, countries: [KR]}
  - {name: B, type: international, countries: [KR]}
`,
		},
		{
			name: "overlapping bands",
			sheet: `
zones:
  - {name: A, type: international, countries: [KR]}
carriers:
  - code: x
    name: X
    policies:
      - name: P
        type: economy
        rates:
          - zone: A
            bands:
              - {min: 0, max: 1, cost: 1}
              - {min: 0.5, max: 2, cost: 2}
`,
		},
		{
			name: "unknown zone reference",
			sheet: `
zones:
  - {name: A, type: international, countries: [KR]}
carriers:
  - code: x
    name: X
    policies:
      - {name: P, type: economy, rates: [{zone: B, bands: [{min: 0, max: 1, cost: 1}]}]}
`,
		},
		{
			name: "unknown policy type",
			sheet: `
carriers:
  - code: x
    name: X
    policies:
      - {name: P, type: overnight}
`,
		},
		{
			name:  "invalid country code",
			sheet: `zones: [{name: A, type: domestic, countries: [KOR]}]`,
		},
		{
			name:  "unknown zone type",
			sheet: `zones: [{name: A, type: regional, countries: [KR]}]`,
		},
		{
			name: "delivery days out of order",
			sheet: `
carriers:
  - code: x
    name: X
    policies:
      - {name: P, type: economy, delivery_days: [9, 3]}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := ParseRateSheet([]byte(tt.sheet))
			require.NoError(t, err)
			assert.NotEmpty(t, Validate(sheet))

			tx := &fakeTx{}
			_, err = NewImporter(&fakeWriter{}, tx).Import(context.Background(), sheet)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Zero(t, tx.calls, "invalid sheets must not open a transaction")
		})
	}
}

func TestImporter_StoreFailureRollsBack(t *testing.T) {
	sheet, err := ParseRateSheet([]byte(sampleSheet))
	require.NoError(t, err)

	tx := &fakeTx{}
	_, err = NewImporter(&fakeWriter{failOn: "carrier"}, tx).Import(context.Background(), sheet)
	assert.True(t, errors.Is(err, domain.ErrDataStoreUnavailable))
	assert.True(t, tx.rolledBack)
}

func TestBundledRateSheetIsValid(t *testing.T) {
	sheet, err := LoadRateSheet(filepath.Join("..", "..", "..", "rates.yaml"))
	require.NoError(t, err)
	assert.Empty(t, Validate(sheet))
}
