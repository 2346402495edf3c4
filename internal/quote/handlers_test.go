package quote_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/ordertype"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/quote"
)

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func post(t *testing.T, fn http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	fn(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rr
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error.Code
}

func TestBreakdownDefaultsToInclusive(t *testing.T) {
	h := &quote.Handler{}
	rr := post(t, h.Breakdown, `{"amount":100,"cgstPercent":9,"sgstPercent":9}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data pricing.Breakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, pricing.Breakdown{
		BasePrice: 84.75, FinalPrice: 100, CGSTAmount: 7.63, SGSTAmount: 7.63, GSTAmount: 15.26,
		CGSTPercent: 9, SGSTPercent: 9, PriceIncludesTax: true,
	}, resp.Data)
}

func TestBreakdownExclusive(t *testing.T) {
	h := &quote.Handler{}
	rr := post(t, h.Breakdown, `{"amount":100,"cgstPercent":2.5,"sgstPercent":2.5,"priceIncludesTax":false}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data pricing.Breakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 105.0, resp.Data.FinalPrice)
	require.False(t, resp.Data.PriceIncludesTax)
}

func TestBreakdownRejectsInvalidRates(t *testing.T) {
	h := &quote.Handler{}
	rr := post(t, h.Breakdown, `{"amount":100,"cgstPercent":-1,"sgstPercent":9}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, common.CodeValidation, errorCode(t, rr))

	rr = post(t, h.Breakdown, `{"amount":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMatrixFromDefinition(t *testing.T) {
	h := &quote.Handler{Now: func() time.Time { return fixedNow }}
	body := `{"prices":{"default":100,"sizes":{"large":150}},"gstConfig":{"Dining":{"cgst":9,"sgst":9},"Online Order":{"cgst":2.5,"sgst":2.5}},"priceIncludesTax":false}`
	rr := post(t, h.Matrix, body)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data pricing.Matrix `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	m := resp.Data
	require.Equal(t, pricing.SourceBase, m.SourcePriceType)
	require.True(t, m.LastUpdated.Equal(fixedNow))
	require.Len(t, m.OrderTypes, 2)
	require.Equal(t, 118.0, m.OrderTypes[ordertype.Dining].Default.FinalPrice)
	require.Equal(t, 177.0, m.OrderTypes[ordertype.Dining].Sizes["large"].FinalPrice)
	require.Equal(t, 157.5, m.OrderTypes[ordertype.OnlineOrder].Sizes["large"].FinalPrice)
}

func TestMatrixRejectsUnknownOrderType(t *testing.T) {
	h := &quote.Handler{}
	rr := post(t, h.Matrix, `{"prices":{"default":100},"gstConfig":{"Delivery":{"cgst":9,"sgst":9}}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, common.CodeValidation, errorCode(t, rr))
	require.Contains(t, rr.Body.String(), "Delivery")

	rr = post(t, h.Matrix, `{"prices":{},"gstConfig":{"Dining":{"cgst":9,"sgst":9}}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = post(t, h.Matrix, `{"prices":{"default":-4},"gstConfig":{"Dining":{"cgst":9,"sgst":9}}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCartSummary(t *testing.T) {
	h := &quote.Handler{}
	body := `{"orderType":"Online Order","items":[
		{"itemId":"a","name":"Thali","price":200,"quantity":1,"cgstPercent":9,"sgstPercent":9},
		{"itemId":"b","name":"Soda","finalPrice":50,"quantity":2,"cgstPercent":2.5,"sgstPercent":2.5,"priceIncludesTax":false}
	]}`
	rr := post(t, h.Summary, body)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data pricing.Summary `json:"data"`
		Meta struct {
			Slabs []pricing.RateTotals `json:"slabs"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	s := resp.Data
	require.Equal(t, ordertype.OnlineOrder, s.OrderType)
	require.Equal(t, 269.49, s.TotalBaseAmount)
	require.Equal(t, 305.0, s.TotalFinalAmount)
	require.Len(t, s.Items, 2)
	require.Equal(t, 105.0, s.Items[1].Subtotal)
	require.Len(t, resp.Meta.Slabs, 2)
	require.Equal(t, 2.5, resp.Meta.Slabs[0].CGSTPercent)
}

func TestCartSummaryFallsBackToDining(t *testing.T) {
	h := &quote.Handler{}
	rr := post(t, h.Summary, `{"orderType":"Drive Thru","items":[]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data pricing.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, ordertype.Dining, resp.Data.OrderType)
	require.Zero(t, resp.Data.TotalFinalAmount)
}

func TestCartSummaryRejectsZeroQuantity(t *testing.T) {
	h := &quote.Handler{}
	rr := post(t, h.Summary, `{"orderType":"Dining","items":[{"price":10,"quantity":0}]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "items[0].quantity")
}
