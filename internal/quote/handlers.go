package quote

import (
	"net/http"
	"time"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/ordertype"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

// BreakdownRequest prices one amount.
type BreakdownRequest struct {
	Amount           float64 `json:"amount" validate:"gte=0"`
	CGSTPercent      float64 `json:"cgstPercent" validate:"gte=0,lte=100"`
	SGSTPercent      float64 `json:"sgstPercent" validate:"gte=0,lte=100"`
	PriceIncludesTax *bool   `json:"priceIncludesTax"`
}

// MatrixRequest builds a matrix from an explicit price list.
type MatrixRequest struct {
	Prices           pricing.PriceDefinition     `json:"prices"`
	GSTConfig        map[string]pricing.RatePair `json:"gstConfig" validate:"required,min=1,dive"`
	PriceIncludesTax *bool                       `json:"priceIncludesTax"`
}

// SummaryRequest aggregates a cart.
type SummaryRequest struct {
	OrderType string             `json:"orderType"`
	Items     []pricing.LineItem `json:"items" validate:"max=500,dive"`
}

// Handler exposes stateless pricing endpoints.
type Handler struct {
	Now func() time.Time
}

// Breakdown computes the tax attribution of a single amount.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	var req BreakdownRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	includesTax := req.PriceIncludesTax == nil || *req.PriceIncludesTax
	bd := pricing.Compute(req.Amount, req.CGSTPercent, req.SGSTPercent, includesTax)
	obs.CountBreakdown("quote", includesTax)
	common.Data(w, http.StatusOK, bd)
}

// Matrix builds a definition-derived matrix. Every order type label must be
// recognised.
func (h *Handler) Matrix(w http.ResponseWriter, r *http.Request) {
	var req MatrixRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := validatePrices(req.Prices); err != nil {
		common.WriteError(w, err)
		return
	}
	cfg, unknown := pricing.ParseGSTConfig(req.GSTConfig)
	if len(unknown) > 0 {
		common.WriteError(w, common.ValidationFailed("unknown order type", map[string]any{"orderTypes": unknown}))
		return
	}
	includesTax := req.PriceIncludesTax == nil || *req.PriceIncludesTax
	m := pricing.Builder{Now: h.Now}.FromDefinition(req.Prices, cfg, includesTax)
	obs.CountMatrixBuild("definition")
	common.Data(w, http.StatusOK, m)
}

// Summary aggregates cart lines into invoice totals. An unrecognised order
// type is read as dining.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	var req SummaryRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if _, ok := ordertype.Parse(req.OrderType); !ok && req.OrderType != "" {
		obs.CountOrderTypeFallback("cart_summary")
	}
	summary := pricing.Summarize(req.Items, req.OrderType)
	common.DataWithMeta(w, summary, map[string]any{"slabs": summary.ByRate()})
}

func validatePrices(def pricing.PriceDefinition) error {
	var fields []common.FieldError
	if def.Default != nil && *def.Default < 0 {
		fields = append(fields, common.FieldError{Field: "prices.default", Rule: "gte", Param: "0"})
	}
	for size, price := range def.Sizes {
		if size == "" {
			fields = append(fields, common.FieldError{Field: "prices.sizes", Rule: "required"})
		}
		if price < 0 {
			fields = append(fields, common.FieldError{Field: "prices.sizes[" + size + "]", Rule: "gte", Param: "0"})
		}
	}
	if def.Default == nil && len(def.Sizes) == 0 {
		fields = append(fields, common.FieldError{Field: "prices", Rule: "required"})
	}
	if len(fields) > 0 {
		return common.ValidationFailed("validation failed", map[string]any{"fields": fields})
	}
	return nil
}
