package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Carrier struct {
	ID       int32  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// Zone groups destination countries that share one rate table.
type Zone struct {
	ID        int32    `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"` // domestic | international
	Countries []string `json:"countries"`
	Priority  int32    `json:"priority"`
	IsActive  bool     `json:"isActive"`
}

// Covers reports whether the zone lists the (already normalized) country code.
func (z Zone) Covers(country string) bool {
	for _, c := range z.Countries {
		if c == country {
			return true
		}
	}
	return false
}

// Policy is a carrier's service tier with its fee structure.
type Policy struct {
	ID                   int32           `json:"id"`
	CarrierID            int32           `json:"carrierId"`
	Name                 string          `json:"name"`
	Type                 string          `json:"type"` // economy | express
	BaseCost             decimal.Decimal `json:"baseCost"`
	FuelSurchargePercent decimal.Decimal `json:"fuelSurchargePercent"`
	HandlingFee          decimal.Decimal `json:"handlingFee"`
	MaxWeightKg          decimal.Decimal `json:"maxWeightKg"`
	DeliveryDaysMin      int32           `json:"deliveryDaysMin"`
	DeliveryDaysMax      int32           `json:"deliveryDaysMax"`
	Status               string          `json:"status"`
}

// Rate is one weight band of a policy's price list for a zone.
type Rate struct {
	ID              int32           `json:"id"`
	PolicyID        int32           `json:"policyId"`
	ZoneID          int32           `json:"zoneId"`
	WeightMinKg     decimal.Decimal `json:"weightMinKg"`
	WeightMaxKg     decimal.Decimal `json:"weightMaxKg"`
	CostUSD         decimal.Decimal `json:"costUsd"`
	DeliveryDaysMin int32           `json:"deliveryDaysMin"`
	DeliveryDaysMax int32           `json:"deliveryDaysMax"`
	IsActive        bool            `json:"isActive"`
}

// Contains reports whether w falls inside the inclusive band.
func (r Rate) Contains(w decimal.Decimal) bool {
	return r.WeightMinKg.LessThanOrEqual(w) && w.LessThanOrEqual(r.WeightMaxKg)
}

// CalculationLogEntry is the append-only audit record of a priced calculation.
type CalculationLogEntry struct {
	ID                int64           `json:"id"`
	ProductID         string          `json:"productId"`
	DestinationZoneID int32           `json:"destinationZoneId"`
	UsedPolicyID      int32           `json:"usedPolicyId"`
	ComputedCost      decimal.Decimal `json:"computedCost"`
	CalculationTime   time.Time       `json:"calculationTime"`
}

type Dimensions struct {
	LengthCm float64 `json:"length"`
	WidthCm  float64 `json:"width"`
	HeightCm float64 `json:"height"`
}

type ShipmentRequest struct {
	ProductID  string
	CarrierID  int32
	WeightKg   decimal.Decimal
	Dimensions Dimensions
	PolicyType string
}

type CostBreakdown struct {
	Base          decimal.Decimal `json:"base"`
	FuelSurcharge decimal.Decimal `json:"fuelSurcharge"`
	HandlingFee   decimal.Decimal `json:"handlingFee"`
}

type PricedShipment struct {
	ProductID       string          `json:"productId,omitempty"`
	Cost            decimal.Decimal `json:"cost"`
	Breakdown       CostBreakdown   `json:"breakdown"`
	DeliveryDaysMin int32           `json:"deliveryDaysMin"`
	DeliveryDaysMax int32           `json:"deliveryDaysMax"`
	CarrierID       int32           `json:"carrierId"`
	CarrierName     string          `json:"carrierName,omitempty"`
	ZoneID          int32           `json:"zoneId"`
	ZoneName        string          `json:"zoneName"`
	PolicyID        int32           `json:"policyId"`
	PolicyName      string          `json:"policyName"`
	PolicyType      string          `json:"policyType"`
	LogID           int64           `json:"logId,omitempty"`
}

// BulkResult tags one item of a bulk calculation as success or failure.
type BulkResult struct {
	Index    int             `json:"index"`
	Shipment *PricedShipment `json:"shipment,omitempty"`
	Err      error           `json:"-"`
}

// ShippingOption is a carrier quote scaled for ranking.
type ShippingOption struct {
	Quote      PricedShipment  `json:"quote"`
	ScaledCost decimal.Decimal `json:"scaledCost"`
}

type CalculationLogFilter struct {
	ProductID string
	ZoneID    int32
	PolicyID  int32
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int

	// Keyset cursor: when BeforeID is set, only entries strictly older than
	// (BeforeTime, BeforeID) in listing order are returned.
	BeforeTime time.Time
	BeforeID   int64
}

// ZoneConflict is a country listed by more than one active zone.
type ZoneConflict struct {
	Country   string   `json:"country"`
	ZoneIDs   []int32  `json:"zoneIds"`
	ZoneNames []string `json:"zoneNames"`
}

func (c ZoneConflict) String() string {
	return fmt.Sprintf("country %s is claimed by zones %v", c.Country, c.ZoneNames)
}

// ReferenceRepository reads carrier, zone, policy and rate reference data.
type ReferenceRepository interface {
	ListActiveCarriers(ctx context.Context) ([]Carrier, error)
	GetCarrierByID(ctx context.Context, id int32) (*Carrier, error)
	ListActiveZones(ctx context.Context) ([]Zone, error)
	GetActivePolicy(ctx context.Context, carrierID int32, policyType string) (*Policy, error)
	GetPolicyByID(ctx context.Context, id int32) (*Policy, error)
	ListActiveRates(ctx context.Context, policyID, zoneID int32) ([]Rate, error)
}

// ReferenceWriter creates reference rows. Used by the rate-sheet importer.
type ReferenceWriter interface {
	UpsertCarrier(ctx context.Context, c *Carrier) (*Carrier, error)
	UpsertZone(ctx context.Context, z *Zone) (*Zone, error)
	UpsertPolicy(ctx context.Context, p *Policy) (*Policy, error)
	ReplaceRates(ctx context.Context, policyID, zoneID int32, rates []Rate) error
}

type CalculationLogRepository interface {
	Append(ctx context.Context, entry *CalculationLogEntry) (*CalculationLogEntry, error)
	List(ctx context.Context, filter CalculationLogFilter) ([]CalculationLogEntry, int64, error)
}

type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type RateResolver interface {
	ResolveZone(ctx context.Context, destinationCountry string) (*Zone, error)
	ResolveRate(ctx context.Context, policyID, zoneID int32, weightKg decimal.Decimal) (*Rate, error)
	Calculate(ctx context.Context, req ShipmentRequest, destinationCountry string) (*PricedShipment, error)
	CalculateBulk(ctx context.Context, items []ShipmentRequest, destinationCountry string) []BulkResult
	Quote(ctx context.Context, req ShipmentRequest, destinationCountry string) (*PricedShipment, error)
}

type ShippingOptionsUsecase interface {
	GetShippingOptions(ctx context.Context, weightKg decimal.Decimal, dims Dimensions, destinationCountry, policyType string) ([]ShippingOption, error)
}

type HistoryUsecase interface {
	ListHistory(ctx context.Context, filter CalculationLogFilter, page, limit int) ([]CalculationLogEntry, Pagination, error)
	ExportHistory(ctx context.Context, from, to time.Time) (string, error)
}

// ObjectStorage stores generated report documents and returns their public URL.
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ReferenceAdminUsecase inspects and refreshes reference data.
type ReferenceAdminUsecase interface {
	ZoneConflicts(ctx context.Context) ([]ZoneConflict, error)
	FlushCache() int
}
