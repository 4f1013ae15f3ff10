package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/utils"

	"github.com/shopspring/decimal"
)

type ShippingHandler struct {
	resolver     domain.RateResolver
	options      domain.ShippingOptionsUsecase
	maxBulkItems int
}

func NewShippingHandler(resolver domain.RateResolver, options domain.ShippingOptionsUsecase, maxBulkItems int) *ShippingHandler {
	return &ShippingHandler{resolver: resolver, options: options, maxBulkItems: maxBulkItems}
}

type shipmentItem struct {
	ProductID  string          `json:"product_id" validate:"required,max=128"`
	CarrierID  int32           `json:"carrier_id" validate:"gt=0"`
	Weight     decimal.Decimal `json:"weight"`
	Length     float64         `json:"length" validate:"gte=0"`
	Width      float64         `json:"width" validate:"gte=0"`
	Height     float64         `json:"height" validate:"gte=0"`
	PolicyType string          `json:"policy_type" validate:"required,oneof=economy express"`
}

func (s shipmentItem) toRequest() domain.ShipmentRequest {
	return domain.ShipmentRequest{
		ProductID:  s.ProductID,
		CarrierID:  s.CarrierID,
		WeightKg:   s.Weight,
		Dimensions: domain.Dimensions{LengthCm: s.Length, WidthCm: s.Width, HeightCm: s.Height},
		PolicyType: s.PolicyType,
	}
}

type calculateRequest struct {
	ProductID   string          `json:"product_id" validate:"required,max=128"`
	CarrierID   int32           `json:"carrier_id" validate:"gt=0"`
	Weight      decimal.Decimal `json:"weight"`
	Length      float64         `json:"length" validate:"gte=0"`
	Width       float64         `json:"width" validate:"gte=0"`
	Height      float64         `json:"height" validate:"gte=0"`
	Destination string          `json:"destination" validate:"required,len=2"`
	PolicyType  string          `json:"policy_type" validate:"required,oneof=economy express"`
}

func (c calculateRequest) toRequest() domain.ShipmentRequest {
	return shipmentItem{
		ProductID:  c.ProductID,
		CarrierID:  c.CarrierID,
		Weight:     c.Weight,
		Length:     c.Length,
		Width:      c.Width,
		Height:     c.Height,
		PolicyType: c.PolicyType,
	}.toRequest()
}

type bulkRequest struct {
	Products    []shipmentItem `json:"products" validate:"required,min=1"`
	Destination string         `json:"destination" validate:"required,len=2"`
}

type bulkItemResult struct {
	Index   int                    `json:"index"`
	Success bool                   `json:"success"`
	Data    *domain.PricedShipment `json:"data,omitempty"`
	Error   *domain.ErrorBody      `json:"error,omitempty"`
}

type bulkSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Calculate prices one shipment and records it in the calculation history.
func (h *ShippingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	shipment, err := h.resolver.Calculate(r.Context(), req.toRequest(), req.Destination)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, shipment, nil)
}

// CalculateBulk prices a list of products for one destination. Item failures
// are reported per item; the request itself succeeds.
func (h *ShippingHandler) CalculateBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}
	if h.maxBulkItems > 0 && len(req.Products) > h.maxBulkItems {
		writeError(w, r, fmt.Errorf("%w: at most %d products per request", domain.ErrInvalidInput, h.maxBulkItems))
		return
	}

	// Items that fail validation are reported in place; the rest are priced.
	out := make([]bulkItemResult, len(req.Products))
	items := make([]domain.ShipmentRequest, 0, len(req.Products))
	positions := make([]int, 0, len(req.Products))
	for i, p := range req.Products {
		if err := utils.ValidateStruct(p); err != nil {
			_, body := errorBody(r, err)
			out[i] = bulkItemResult{Index: i, Error: body}
			continue
		}
		items = append(items, p.toRequest())
		positions = append(positions, i)
	}

	if len(items) > 0 {
		for _, res := range h.resolver.CalculateBulk(r.Context(), items, req.Destination) {
			i := positions[res.Index]
			out[i] = bulkItemResult{Index: i, Success: res.Err == nil, Data: res.Shipment}
			if res.Err != nil {
				_, out[i].Error = errorBody(r, res.Err)
			}
		}
	}

	summary := bulkSummary{Total: len(out)}
	for _, item := range out {
		if item.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	utils.WriteSuccess(w, http.StatusOK, out, summary)
}

// GetOptions lists the cheapest carriers for a parcel.
//
//	GET /api/v1/shipping/options?weight=1.5&destination=KR&policy_type=economy
func (h *ShippingHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	weight, err := decimal.NewFromString(q.Get("weight"))
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: weight must be a number", domain.ErrInvalidInput))
		return
	}

	var dims domain.Dimensions
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"length", &dims.LengthCm}, {"width", &dims.WidthCm}, {"height", &dims.HeightCm}} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, p.name))
			return
		}
		*p.dst = v
	}

	policyType := q.Get("policy_type")
	if policyType == "" {
		policyType = domain.PolicyTypeEconomy
	}

	options, err := h.options.GetShippingOptions(r.Context(), weight, dims, q.Get("destination"), policyType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, options, nil)
}
