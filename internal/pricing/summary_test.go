package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/ordertype"
	"github.com/noah-isme/backend-resto/internal/pricing"
)

func boolPtr(v bool) *bool { return &v }

func TestSummarizeInclusiveLine(t *testing.T) {
	s := pricing.Summarize([]pricing.LineItem{
		{Price: ptr(100), Quantity: 2, CGSTPercent: 9, SGSTPercent: 9, PriceIncludesTax: boolPtr(true)},
	}, "Dining")

	require.Equal(t, ordertype.Dining, s.OrderType)
	require.Equal(t, 169.5, s.TotalBaseAmount)
	require.Equal(t, 15.26, s.TotalCGSTAmount)
	require.Equal(t, 15.26, s.TotalSGSTAmount)
	require.Equal(t, 30.52, s.TotalGSTAmount)
	require.Equal(t, 200.0, s.TotalFinalAmount)

	require.Len(t, s.Items, 1)
	line := s.Items[0]
	require.Equal(t, 84.75, line.BasePrice)
	require.Equal(t, 169.5, line.LineBase)
	require.Equal(t, 200.0, line.Subtotal)
}

func TestSummarizeEmptyCart(t *testing.T) {
	s := pricing.Summarize(nil, "Takeaway")
	require.Equal(t, ordertype.Takeaway, s.OrderType)
	require.Zero(t, s.TotalBaseAmount)
	require.Zero(t, s.TotalGSTAmount)
	require.Zero(t, s.TotalFinalAmount)
	require.NotNil(t, s.Items)
	require.Empty(t, s.Items)
}

func TestSummarizeMixedLines(t *testing.T) {
	s := pricing.Summarize([]pricing.LineItem{
		// no tax flag: treated as inclusive
		{ItemID: "a", FinalPrice: ptr(105), Quantity: 1, CGSTPercent: 2.5, SGSTPercent: 2.5},
		{ItemID: "b", Price: ptr(50), Quantity: 3, CGSTPercent: 9, SGSTPercent: 9, PriceIncludesTax: boolPtr(false)},
	}, "Online Order")

	require.Equal(t, ordertype.OnlineOrder, s.OrderType)

	a := s.Items[0]
	require.True(t, a.PriceIncludesTax)
	require.Equal(t, 105.0, a.Price)
	require.Equal(t, 100.0, a.LineBase)
	require.Equal(t, 105.0, a.Subtotal)

	b := s.Items[1]
	require.False(t, b.PriceIncludesTax)
	require.Equal(t, 59.0, b.FinalPrice)
	require.Equal(t, 150.0, b.LineBase)
	require.Equal(t, 27.0, b.LineGST)
	require.Equal(t, 177.0, b.Subtotal)

	require.Equal(t, 250.0, s.TotalBaseAmount)
	require.Equal(t, 16.0, s.TotalCGSTAmount)
	require.Equal(t, 16.0, s.TotalSGSTAmount)
	require.Equal(t, 32.0, s.TotalGSTAmount)
	require.Equal(t, 282.0, s.TotalFinalAmount)
}

func TestSummarizeLineWithoutPrice(t *testing.T) {
	s := pricing.Summarize([]pricing.LineItem{{Name: "water", Quantity: 4, CGSTPercent: 9, SGSTPercent: 9}}, "")
	require.Equal(t, ordertype.Dining, s.OrderType)
	require.Zero(t, s.TotalFinalAmount)
	require.Zero(t, s.Items[0].Price)
}

func TestSummarizeRoundsLinesBeforeTotals(t *testing.T) {
	// 0.33 per unit at 9%+9% inclusive: base 0.28, CGST 0.03 each.
	s := pricing.Summarize([]pricing.LineItem{
		{Price: ptr(0.33), Quantity: 3, CGSTPercent: 9, SGSTPercent: 9},
		{Price: ptr(0.33), Quantity: 3, CGSTPercent: 9, SGSTPercent: 9},
	}, "Dining")
	require.Equal(t, 0.84, s.Items[0].LineBase)
	require.Equal(t, 1.68, s.TotalBaseAmount)
	require.Equal(t, 0.18, s.TotalCGSTAmount)
	require.Equal(t, 0.36, s.TotalGSTAmount)
	require.Equal(t, 1.98, s.TotalFinalAmount)
}

func TestSummaryByRate(t *testing.T) {
	s := pricing.Summarize([]pricing.LineItem{
		{Price: ptr(100), Quantity: 1, CGSTPercent: 9, SGSTPercent: 9, PriceIncludesTax: boolPtr(false)},
		{Price: ptr(100), Quantity: 2, CGSTPercent: 2.5, SGSTPercent: 2.5, PriceIncludesTax: boolPtr(false)},
		{Price: ptr(50), Quantity: 1, CGSTPercent: 9, SGSTPercent: 9, PriceIncludesTax: boolPtr(false)},
	}, "Takeaway")

	groups := s.ByRate()
	require.Len(t, groups, 2)

	require.Equal(t, 2.5, groups[0].CGSTPercent)
	require.Equal(t, 200.0, groups[0].Taxable)
	require.Equal(t, 10.0, groups[0].GST)
	require.Equal(t, 210.0, groups[0].Final)

	require.Equal(t, 9.0, groups[1].CGSTPercent)
	require.Equal(t, 150.0, groups[1].Taxable)
	require.Equal(t, 13.5, groups[1].CGST)
	require.Equal(t, 27.0, groups[1].GST)
	require.Equal(t, 177.0, groups[1].Final)
}
