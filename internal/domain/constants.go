package domain

// Zone Types
const (
	ZoneTypeDomestic      = "domestic"
	ZoneTypeInternational = "international"
)

// Policy Types
const (
	PolicyTypeEconomy = "economy"
	PolicyTypeExpress = "express"
)

// Policy Statuses
const (
	PolicyStatusActive   = "active"
	PolicyStatusInactive = "inactive"
)

// Roles
const (
	RoleAdmin = "admin"
)

// List Exports for API
var ZoneTypes = []string{
	ZoneTypeDomestic,
	ZoneTypeInternational,
}

var PolicyTypes = []string{
	PolicyTypeEconomy,
	PolicyTypeExpress,
}

func IsValidPolicyType(t string) bool {
	for _, p := range PolicyTypes {
		if p == t {
			return true
		}
	}
	return false
}

func IsValidZoneType(t string) bool {
	for _, z := range ZoneTypes {
		if z == t {
			return true
		}
	}
	return false
}
