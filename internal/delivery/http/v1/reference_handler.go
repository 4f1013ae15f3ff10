package v1

import (
	"net/http"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/utils"
)

// ReferenceHandler exposes the values a storefront needs to build a shipping
// form: tiers, zone kinds, active carriers and the countries served.
type ReferenceHandler struct {
	refRepo domain.ReferenceRepository
}

func NewReferenceHandler(refRepo domain.ReferenceRepository) *ReferenceHandler {
	return &ReferenceHandler{refRepo: refRepo}
}

type referenceConfig struct {
	PolicyTypes []string         `json:"policyTypes"`
	ZoneTypes   []string         `json:"zoneTypes"`
	Carriers    []domain.Carrier `json:"carriers"`
	Zones       []domain.Zone    `json:"zones"`
}

// GET /api/v1/shipping/config
func (h *ReferenceHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	carriers, err := h.refRepo.ListActiveCarriers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	zones, err := h.refRepo.ListActiveZones(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if carriers == nil {
		carriers = []domain.Carrier{}
	}
	if zones == nil {
		zones = []domain.Zone{}
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	utils.WriteSuccess(w, http.StatusOK, referenceConfig{
		PolicyTypes: domain.PolicyTypes,
		ZoneTypes:   domain.ZoneTypes,
		Carriers:    carriers,
		Zones:       zones,
	}, nil)
}
