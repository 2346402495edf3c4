package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/money"
	"github.com/noah-isme/backend-resto/internal/ordertype"
)

// LineItem is one cart line submitted for aggregation.
type LineItem struct {
	ItemID     string   `json:"itemId,omitempty"`
	Name       string   `json:"name,omitempty"`
	SizeKey    string   `json:"sizeKey,omitempty"`
	Price      *float64 `json:"price,omitempty"`
	FinalPrice *float64 `json:"finalPrice,omitempty"`
	Quantity   int      `json:"quantity" validate:"gte=1"`

	CGSTPercent float64 `json:"cgstPercent" validate:"gte=0,lte=100"`
	SGSTPercent float64 `json:"sgstPercent" validate:"gte=0,lte=100"`

	// PriceIncludesTax defaults to true; only an explicit false makes the line exclusive.
	PriceIncludesTax *bool `json:"priceIncludesTax,omitempty"`
}

// IncludesTax reports the effective tax direction of the line.
func (l LineItem) IncludesTax() bool {
	return l.PriceIncludesTax == nil || *l.PriceIncludesTax
}

// Amount returns the price used for calculation: Price, else FinalPrice, else 0.
func (l LineItem) Amount() float64 {
	switch {
	case l.Price != nil:
		return *l.Price
	case l.FinalPrice != nil:
		return *l.FinalPrice
	}
	return 0
}

// SummaryLine is a cart line enriched with its per-unit breakdown and the
// quantity-multiplied line amounts.
type SummaryLine struct {
	ItemID   string  `json:"itemId,omitempty"`
	Name     string  `json:"name,omitempty"`
	SizeKey  string  `json:"sizeKey,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Breakdown
	LineBase float64 `json:"lineBase"`
	LineCGST float64 `json:"lineCgst"`
	LineSGST float64 `json:"lineSgst"`
	LineGST  float64 `json:"lineGst"`
	Subtotal float64 `json:"subtotal"`
}

// Summary is the order-level aggregation of a cart.
type Summary struct {
	OrderType        ordertype.Key `json:"orderType"`
	TotalBaseAmount  float64       `json:"totalBaseAmount"`
	TotalCGSTAmount  float64       `json:"totalCgstAmount"`
	TotalSGSTAmount  float64       `json:"totalSgstAmount"`
	TotalGSTAmount   float64       `json:"totalGstAmount"`
	TotalFinalAmount float64       `json:"totalFinalAmount"`
	Items            []SummaryLine `json:"items"`
}

// Summarize computes a breakdown for every line, multiplies the five amounts by
// the line quantity and rounds each product, then adds the rounded line values
// into order totals which are rounded once at the end.
func Summarize(lines []LineItem, orderType string) Summary {
	var base, cgst, sgst, gst, final decimal.Decimal
	items := make([]SummaryLine, 0, len(lines))

	for _, line := range lines {
		bd := Compute(line.Amount(), line.CGSTPercent, line.SGSTPercent, line.IncludesTax())
		qty := decimal.NewFromInt(int64(line.Quantity))

		lineBase := round(money.Decimal(bd.BasePrice).Mul(qty))
		lineCGST := round(money.Decimal(bd.CGSTAmount).Mul(qty))
		lineSGST := round(money.Decimal(bd.SGSTAmount).Mul(qty))
		lineGST := round(money.Decimal(bd.GSTAmount).Mul(qty))
		lineFinal := round(money.Decimal(bd.FinalPrice).Mul(qty))

		base = base.Add(lineBase)
		cgst = cgst.Add(lineCGST)
		sgst = sgst.Add(lineSGST)
		gst = gst.Add(lineGST)
		final = final.Add(lineFinal)

		items = append(items, SummaryLine{
			ItemID:    line.ItemID,
			Name:      line.Name,
			SizeKey:   line.SizeKey,
			Price:     line.Amount(),
			Quantity:  line.Quantity,
			Breakdown: bd,
			LineBase:  toFloat(lineBase),
			LineCGST:  toFloat(lineCGST),
			LineSGST:  toFloat(lineSGST),
			LineGST:   toFloat(lineGST),
			Subtotal:  toFloat(lineFinal),
		})
	}

	return Summary{
		OrderType:        ordertype.Resolve(orderType),
		TotalBaseAmount:  toFloat(round(base)),
		TotalCGSTAmount:  toFloat(round(cgst)),
		TotalSGSTAmount:  toFloat(round(sgst)),
		TotalGSTAmount:   toFloat(round(gst)),
		TotalFinalAmount: toFloat(round(final)),
		Items:            items,
	}
}

// RateTotals aggregates the lines of a summary that share one rate pair.
type RateTotals struct {
	CGSTPercent float64 `json:"cgstPercent"`
	SGSTPercent float64 `json:"sgstPercent"`
	Taxable     float64 `json:"taxable"`
	CGST        float64 `json:"cgst"`
	SGST        float64 `json:"sgst"`
	GST         float64 `json:"gst"`
	Final       float64 `json:"final"`
}

// ByRate groups line amounts by GST slab, lowest combined rate first.
func (s Summary) ByRate() []RateTotals {
	type acc struct {
		cgstPct, sgstPct                float64
		taxable, cgst, sgst, gst, final decimal.Decimal
	}
	groups := map[[2]float64]*acc{}
	for _, line := range s.Items {
		k := [2]float64{line.CGSTPercent, line.SGSTPercent}
		a, ok := groups[k]
		if !ok {
			a = &acc{cgstPct: line.CGSTPercent, sgstPct: line.SGSTPercent}
			groups[k] = a
		}
		a.taxable = a.taxable.Add(money.Decimal(line.LineBase))
		a.cgst = a.cgst.Add(money.Decimal(line.LineCGST))
		a.sgst = a.sgst.Add(money.Decimal(line.LineSGST))
		a.gst = a.gst.Add(money.Decimal(line.LineGST))
		a.final = a.final.Add(money.Decimal(line.Subtotal))
	}

	out := make([]RateTotals, 0, len(groups))
	for _, a := range groups {
		out = append(out, RateTotals{
			CGSTPercent: a.cgstPct,
			SGSTPercent: a.sgstPct,
			Taxable:     toFloat(round(a.taxable)),
			CGST:        toFloat(round(a.cgst)),
			SGST:        toFloat(round(a.sgst)),
			GST:         toFloat(round(a.gst)),
			Final:       toFloat(round(a.final)),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].CGSTPercent+out[i].SGSTPercent, out[j].CGSTPercent+out[j].SGSTPercent
		if ri != rj {
			return ri < rj
		}
		return out[i].CGSTPercent < out[j].CGSTPercent
	})
	return out
}
