package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/money"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Breakdown is the tax attribution of a single price. Values are rounded to two
// decimal places and CGSTAmount+SGSTAmount always equals GSTAmount.
type Breakdown struct {
	BasePrice        float64 `json:"basePrice"`
	FinalPrice       float64 `json:"finalPrice"`
	CGSTAmount       float64 `json:"cgstAmount"`
	SGSTAmount       float64 `json:"sgstAmount"`
	GSTAmount        float64 `json:"gstAmount"`
	CGSTPercent      float64 `json:"cgstPercent"`
	SGSTPercent      float64 `json:"sgstPercent"`
	PriceIncludesTax bool    `json:"priceIncludesTax"`
}

// Compute derives a breakdown from an entered amount and a CGST/SGST rate pair.
//
// When includesTax is set the amount is the final price and is kept exactly as
// entered (after rounding); the base price is divided out of it. Because base and
// the tax components are rounded independently, BasePrice+GSTAmount may then
// differ from FinalPrice by a cent. When includesTax is unset the amount is the
// base price and FinalPrice is BasePrice+GSTAmount.
//
// Amount and rates accept any number-like value; anything non-numeric counts as 0.
func Compute(amount, cgstPercent, sgstPercent any, includesTax bool) Breakdown {
	cgst := round(money.Decimal(cgstPercent))
	sgst := round(money.Decimal(sgstPercent))
	totalRate := cgst.Add(sgst)

	var base, final decimal.Decimal
	if includesTax {
		final = round(money.Decimal(amount))
		base = final
		if totalRate.GreaterThan(decimal.Zero) {
			base = round(final.Div(one.Add(totalRate.Div(hundred))))
		}
	} else {
		base = round(money.Decimal(amount))
	}

	cgstAmount := round(base.Mul(cgst).Div(hundred))
	sgstAmount := round(base.Mul(sgst).Div(hundred))
	gstAmount := round(cgstAmount.Add(sgstAmount))

	if !includesTax {
		final = round(base.Add(gstAmount))
	}

	return Breakdown{
		BasePrice:        toFloat(base),
		FinalPrice:       toFloat(final),
		CGSTAmount:       toFloat(cgstAmount),
		SGSTAmount:       toFloat(sgstAmount),
		GSTAmount:        toFloat(gstAmount),
		CGSTPercent:      toFloat(cgst),
		SGSTPercent:      toFloat(sgst),
		PriceIncludesTax: includesTax,
	}
}

// Reconciles reports whether BasePrice+GSTAmount equals FinalPrice to the cent.
// Exclusive breakdowns always reconcile; inclusive ones may not.
func (b Breakdown) Reconciles() bool {
	return ReconciliationGap(b) == 0
}

// ReconciliationGap returns FinalPrice-(BasePrice+GSTAmount), rounded to cents.
func ReconciliationGap(b Breakdown) float64 {
	final := money.Decimal(b.FinalPrice)
	sum := money.Decimal(b.BasePrice).Add(money.Decimal(b.GSTAmount))
	return toFloat(round(final.Sub(sum)))
}

// TotalRate returns the combined CGST+SGST percentage.
func (b Breakdown) TotalRate() float64 {
	return toFloat(round(money.Decimal(b.CGSTPercent).Add(money.Decimal(b.SGSTPercent))))
}

func round(d decimal.Decimal) decimal.Decimal {
	return money.RoundHalfUp(d, money.DefaultPrecision)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
