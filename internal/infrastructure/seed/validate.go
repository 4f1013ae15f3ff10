package seed

import (
	"fmt"
	"sort"

	"shiprate-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// BandGapTolerance is the largest allowed distance between consecutive bands.
var BandGapTolerance = decimal.New(1, -2)

const (
	BandInverted = "inverted"
	BandOverlap  = "overlap"
	BandGap      = "gap"
)

// BandIssue is a defect in the weight bands of one (policy, zone) pair.
type BandIssue struct {
	PolicyID int32  `json:"policyId"`
	ZoneID   int32  `json:"zoneId"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail"`
}

func (b BandIssue) String() string {
	return fmt.Sprintf("policy %d zone %d: %s: %s", b.PolicyID, b.ZoneID, b.Kind, b.Detail)
}

type bandKey struct {
	policyID, zoneID int32
}

// ValidateBands checks the active bands of every (policy, zone) pair for
// inverted bounds, overlaps and gaps wider than BandGapTolerance. A band that
// starts exactly where the previous one ends is contiguous.
func ValidateBands(rates []domain.Rate) []BandIssue {
	groups := map[bandKey][]domain.Rate{}
	var keys []bandKey
	for _, r := range rates {
		if !r.IsActive {
			continue
		}
		k := bandKey{r.PolicyID, r.ZoneID}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].policyID != keys[j].policyID {
			return keys[i].policyID < keys[j].policyID
		}
		return keys[i].zoneID < keys[j].zoneID
	})

	var issues []BandIssue
	for _, k := range keys {
		bands := groups[k]
		sort.SliceStable(bands, func(i, j int) bool { return bands[i].WeightMinKg.LessThan(bands[j].WeightMinKg) })

		add := func(kind, format string, args ...any) {
			issues = append(issues, BandIssue{PolicyID: k.policyID, ZoneID: k.zoneID, Kind: kind, Detail: fmt.Sprintf(format, args...)})
		}

		for i, b := range bands {
			if b.WeightMinKg.GreaterThan(b.WeightMaxKg) {
				add(BandInverted, "band %s-%s kg has min above max", b.WeightMinKg, b.WeightMaxKg)
			}
			if i == 0 {
				continue
			}
			prev := bands[i-1]
			switch {
			case b.WeightMinKg.LessThan(prev.WeightMaxKg):
				add(BandOverlap, "band %s-%s kg overlaps %s-%s kg", b.WeightMinKg, b.WeightMaxKg, prev.WeightMinKg, prev.WeightMaxKg)
			case b.WeightMinKg.Sub(prev.WeightMaxKg).GreaterThan(BandGapTolerance):
				add(BandGap, "no band between %s and %s kg", prev.WeightMaxKg, b.WeightMinKg)
			}
		}
	}
	return issues
}
