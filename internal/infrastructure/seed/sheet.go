package seed

import (
	"fmt"
	"os"
	"strings"

	"shiprate-backend/internal/domain"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RateSheet is the YAML document the seed command imports.
//
//	zones:
//	  - name: Asia
//	    type: international
//	    countries: [KR, CN]
//	    priority: 1
//	carriers:
//	  - code: ems
//	    name: EMS
//	    policies:
//	      - name: EMS Economy
//	        type: economy
//	        fuel_surcharge_percent: 5
//	        handling_fee: 2.50
//	        max_weight_kg: 30
//	        delivery_days: [7, 14]
//	        rates:
//	          - zone: Asia
//	            bands:
//	              - {min: 0, max: 0.5, cost: 20.00, days: [3, 5]}
type RateSheet struct {
	Zones    []ZoneSheet    `yaml:"zones"`
	Carriers []CarrierSheet `yaml:"carriers"`
}

type ZoneSheet struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Countries []string `yaml:"countries"`
	Priority  int32    `yaml:"priority"`
	Inactive  bool     `yaml:"inactive"`
}

type CarrierSheet struct {
	Code     string        `yaml:"code"`
	Name     string        `yaml:"name"`
	Inactive bool          `yaml:"inactive"`
	Policies []PolicySheet `yaml:"policies"`
}

type PolicySheet struct {
	Name                 string          `yaml:"name"`
	Type                 string          `yaml:"type"`
	BaseCost             decimal.Decimal `yaml:"base_cost"`
	FuelSurchargePercent decimal.Decimal `yaml:"fuel_surcharge_percent"`
	HandlingFee          decimal.Decimal `yaml:"handling_fee"`
	MaxWeightKg          decimal.Decimal `yaml:"max_weight_kg"`
	DeliveryDays         []int32         `yaml:"delivery_days"`
	Inactive             bool            `yaml:"inactive"`
	Rates                []ZoneRateSheet `yaml:"rates"`
}

type ZoneRateSheet struct {
	Zone  string      `yaml:"zone"`
	Bands []BandSheet `yaml:"bands"`
}

type BandSheet struct {
	Min      decimal.Decimal `yaml:"min"`
	Max      decimal.Decimal `yaml:"max"`
	Cost     decimal.Decimal `yaml:"cost"`
	Days     []int32         `yaml:"days"`
	Inactive bool            `yaml:"inactive"`
}

func LoadRateSheet(path string) (*RateSheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRateSheet(data)
}

func ParseRateSheet(data []byte) (*RateSheet, error) {
	var sheet RateSheet
	if err := yaml.Unmarshal(data, &sheet); err != nil {
		return nil, fmt.Errorf("%w: rate sheet: %v", domain.ErrInvalidInput, err)
	}
	return &sheet, nil
}

func daysRange(days []int32) (int32, int32, error) {
	switch len(days) {
	case 0:
		return 0, 0, nil
	case 2:
		if days[0] < 0 || days[1] < days[0] {
			return 0, 0, fmt.Errorf("delivery days %v out of order", days)
		}
		return days[0], days[1], nil
	default:
		return 0, 0, fmt.Errorf("delivery days must be [min, max], got %v", days)
	}
}

// zones converts the sheet zones, normalizing country codes.
func (s *RateSheet) zones() ([]domain.Zone, []string) {
	var problems []string
	out := make([]domain.Zone, 0, len(s.Zones))
	seen := map[string]bool{}
	for _, zs := range s.Zones {
		name := strings.TrimSpace(zs.Name)
		if name == "" {
			problems = append(problems, "zone without a name")
			continue
		}
		if seen[name] {
			problems = append(problems, fmt.Sprintf("zone %q declared twice", name))
			continue
		}
		seen[name] = true
		if !domain.IsValidZoneType(zs.Type) {
			problems = append(problems, fmt.Sprintf("zone %q: unknown type %q", name, zs.Type))
		}

		countries := make([]string, 0, len(zs.Countries))
		for _, c := range zs.Countries {
			code, ok := domain.NormalizeCountry(c)
			if !ok {
				problems = append(problems, fmt.Sprintf("zone %q: invalid country %q", name, c))
				continue
			}
			countries = append(countries, code)
		}

		out = append(out, domain.Zone{
			Name:      name,
			Type:      zs.Type,
			Countries: countries,
			Priority:  zs.Priority,
			IsActive:  !zs.Inactive,
		})
	}
	return out, problems
}
