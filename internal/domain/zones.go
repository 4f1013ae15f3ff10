package domain

import "sort"

// FindZoneConflicts reports every country covered by two or more active zones,
// ordered by country code.
func FindZoneConflicts(zones []Zone) []ZoneConflict {
	claims := map[string][]Zone{}
	for _, z := range zones {
		if !z.IsActive {
			continue
		}
		seen := map[string]bool{}
		for _, c := range z.Countries {
			if seen[c] {
				continue
			}
			seen[c] = true
			claims[c] = append(claims[c], z)
		}
	}

	var conflicts []ZoneConflict
	for country, owners := range claims {
		if len(owners) < 2 {
			continue
		}
		c := ZoneConflict{Country: country}
		for _, z := range owners {
			c.ZoneIDs = append(c.ZoneIDs, z.ID)
			c.ZoneNames = append(c.ZoneNames, z.Name)
		}
		conflicts = append(conflicts, c)
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Country < conflicts[j].Country })
	return conflicts
}
