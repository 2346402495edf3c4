package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5/middleware"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/common"
)

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestWriteErrorMapsAppError(t *testing.T) {
	rr := httptest.NewRecorder()
	common.WriteError(rr, common.NotFound("menu item not found", errors.New("no rows")))
	require.Equal(t, http.StatusNotFound, rr.Code)
	env := decodeError(t, rr)
	require.Equal(t, common.CodeNotFound, env.Error.Code)
	require.Equal(t, "menu item not found", env.Error.Message)
}

func TestWriteErrorHidesPlainErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	common.WriteError(rr, errors.New("pq: connection refused"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "internal error", decodeError(t, rr).Error.Message)
}

type sampleLine struct {
	Quantity int     `json:"quantity" validate:"gte=1"`
	Rate     float64 `json:"cgstPercent" validate:"gte=0,lte=100"`
}

type samplePayload struct {
	OrderType string       `json:"orderType" validate:"required"`
	Items     []sampleLine `json:"items" validate:"dive"`
}

func TestDecodeJSONValidates(t *testing.T) {
	body := `{"orderType":"","items":[{"quantity":0,"cgstPercent":9}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var payload samplePayload
	err := common.DecodeJSON(req, &payload)

	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)

	rr := httptest.NewRecorder()
	common.WriteError(rr, err)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	fields := decodeError(t, rr).Error.Details["fields"].([]any)
	require.Len(t, fields, 2)
	require.Equal(t, "orderType", fields[0].(map[string]any)["field"])
	require.Equal(t, "items[0].quantity", fields[1].(map[string]any)["field"])
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"orderType":`))
	var payload samplePayload
	err := common.DecodeJSON(req, &payload)

	rr := httptest.NewRecorder()
	common.WriteError(rr, err)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, common.CodeBadRequest, decodeError(t, rr).Error.Code)
}

func TestIdempotencyRejectsReplay(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	calls := 0
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
		req.Header.Set("Idempotency-Key", "offline-123")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	require.Equal(t, http.StatusCreated, send().Code)
	replay := send()
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Equal(t, common.CodeIdempotentReplay, decodeError(t, replay).Error.Code)
	require.Equal(t, 1, calls)
}

func TestIdempotencyKeysAreScopedToStaff(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	send := func(staff string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
		req = req.WithContext(common.WithStaffID(req.Context(), staff))
		req.Header.Set("Idempotency-Key", "till-1-0001")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	require.Equal(t, http.StatusCreated, send("cashier-1"))
	require.Equal(t, http.StatusCreated, send("cashier-2"))
	require.Equal(t, http.StatusConflict, send("cashier-1"))
	require.Len(t, mr.Keys(), 2)
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	status := http.StatusServiceUnavailable
	handler := common.Idem{R: client, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", nil)
	req.Header.Set("Idempotency-Key", "offline-456")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	status = http.StatusCreated
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=500", nil)
	page, perPage := common.ParsePagination(req, 50, 200)
	require.Equal(t, 3, page)
	require.Equal(t, 200, perPage)
	require.Equal(t, 400, common.Offset(page, perPage))

	req = httptest.NewRequest(http.MethodGet, "/?page=-1&limit=abc", nil)
	page, perPage = common.ParsePagination(req, 50, 200)
	require.Equal(t, 1, page)
	require.Equal(t, 50, perPage)
}

func TestClientIPAfterRealIP(t *testing.T) {
	var got string
	handler := middleware.RealIP(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = common.ClientIP(r)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/breakdown", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "203.0.113.7", got)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/pricing/breakdown", nil)
	req.RemoteAddr = "[::ffff:192.0.2.1]:5555"
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "192.0.2.1", got)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/pricing/breakdown", nil)
	req.RemoteAddr = "till-7"
	require.Equal(t, "unknown", common.ClientIP(req))
	require.Equal(t, "unknown", common.ClientIP(nil))
}

func TestPositiveInt(t *testing.T) {
	require.Equal(t, 7, common.PositiveInt("7", 30))
	require.Equal(t, 30, common.PositiveInt("", 30))
	require.Equal(t, 30, common.PositiveInt("0", 30))
	require.Equal(t, 30, common.PositiveInt("week", 30))
}

func TestEnvelopes(t *testing.T) {
	rr := httptest.NewRecorder()
	common.Data(rr, http.StatusCreated, map[string]int{"items": 2})
	require.Equal(t, http.StatusCreated, rr.Code)
	require.JSONEq(t, `{"data":{"items":2}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	common.Paged(rr, []string{"thali"}, common.Pagination{Page: 2, PerPage: 1, TotalItems: 3})
	require.JSONEq(t, `{"data":["thali"],"pagination":{"page":2,"per_page":1,"total_items":3}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	common.DataWithMeta(rr, 1, map[string]string{"slabs": "5%"})
	require.JSONEq(t, `{"data":1,"meta":{"slabs":"5%"}}`, rr.Body.String())
}
