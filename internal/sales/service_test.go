package sales_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/ordertype"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/sales"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type memStore struct {
	mu  sync.Mutex
	txs []sales.Transaction
	err error
}

func (m *memStore) Insert(_ context.Context, tx sales.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.txs = append(m.txs, tx)
	return nil
}

func (m *memStore) matching(f sales.Filter) []sales.Transaction {
	var out []sales.Transaction
	for _, tx := range m.txs {
		if f.BranchID != uuid.Nil && tx.BranchID != f.BranchID {
			continue
		}
		if !f.From.IsZero() && tx.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !tx.CreatedAt.Before(f.To) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) List(_ context.Context, f sales.Filter) ([]sales.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.matching(f)
	if f.Offset > len(out) {
		f.Offset = len(out)
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memStore) Count(_ context.Context, f sales.Filter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(f)), nil
}

type branchStub map[uuid.UUID]branch.Branch

func (b branchStub) Get(_ context.Context, id uuid.UUID) (branch.Branch, error) {
	br, ok := b[id]
	if !ok {
		return branch.Branch{}, branch.ErrNotFound
	}
	return br, nil
}

func price(v float64) *float64 { return &v }

func newService() (*sales.Service, *memStore, *events.Recorder, uuid.UUID) {
	branchID := uuid.New()
	store := &memStore{}
	rec := &events.Recorder{}
	svc := &sales.Service{
		Store:    store,
		Branches: branchStub{branchID: {ID: branchID, Name: "MG Road"}},
		Events:   rec,
		Logger:   zerolog.Nop(),
		Now:      func() time.Time { return fixedNow },
		MaxRange: 31 * 24 * time.Hour,
	}
	return svc, store, rec, branchID
}

func TestRecordSummarizesServerSide(t *testing.T) {
	svc, store, rec, branchID := newService()
	ctx := common.WithStaffID(context.Background(), "cashier-1")

	tx, err := svc.Record(ctx, sales.RecordInput{
		BranchID:    branchID,
		OrderType:   "Dining",
		PaymentMode: "UPI",
		Items: []pricing.LineItem{
			{ItemID: "thali", Price: price(100), Quantity: 2, CGSTPercent: 9, SGSTPercent: 9},
		},
	})
	require.NoError(t, err)
	require.Equal(t, ordertype.Dining, tx.OrderType)
	require.Equal(t, "upi", tx.PaymentMode)
	require.Equal(t, "cashier-1", tx.StaffID)
	require.Equal(t, fixedNow, tx.CreatedAt)
	require.Equal(t, 169.5, tx.Summary.TotalBaseAmount)
	require.Equal(t, 30.52, tx.Summary.TotalGSTAmount)
	require.Equal(t, 200.0, tx.Summary.TotalFinalAmount)
	require.Len(t, store.txs, 1)

	published := rec.Events()
	require.Len(t, published, 1)
	require.Equal(t, events.TypeTransactionRecorded, published[0].Type)
	require.Equal(t, branchID.String(), published[0].AggregateID)
	var payload sales.Transaction
	require.NoError(t, json.Unmarshal(published[0].Data, &payload))
	require.Equal(t, tx.ID, payload.ID)
}

func TestRecordKeepsOfflineCaptureTime(t *testing.T) {
	svc, _, _, branchID := newService()
	captured := fixedNow.Add(-2 * time.Hour)
	future := fixedNow.Add(time.Hour)
	line := []pricing.LineItem{{Price: price(50), Quantity: 1}}

	tx, err := svc.Record(context.Background(), sales.RecordInput{BranchID: branchID, OrderType: "Takeaway", Items: line, CapturedAt: &captured})
	require.NoError(t, err)
	require.Equal(t, captured, tx.CreatedAt)

	tx, err = svc.Record(context.Background(), sales.RecordInput{BranchID: branchID, OrderType: "Takeaway", Items: line, CapturedAt: &future})
	require.NoError(t, err)
	require.Equal(t, fixedNow, tx.CreatedAt)
}

type invalidator struct {
	calls int
	err   error
}

func (i *invalidator) Invalidate(context.Context) error {
	i.calls++
	return i.err
}

func TestBackdatedRecordInvalidatesReports(t *testing.T) {
	svc, store, _, branchID := newService()
	reports := &invalidator{}
	svc.Reports = reports
	line := []pricing.LineItem{{Price: price(50), Quantity: 1}}

	_, err := svc.Record(context.Background(), sales.RecordInput{BranchID: branchID, OrderType: "Dining", Items: line})
	require.NoError(t, err)
	require.Zero(t, reports.calls)

	captured := fixedNow.AddDate(0, 0, -1)
	_, err = svc.Record(context.Background(), sales.RecordInput{BranchID: branchID, OrderType: "Dining", Items: line, CapturedAt: &captured})
	require.NoError(t, err)
	require.Equal(t, 1, reports.calls)

	reports.err = errors.New("redis down")
	_, err = svc.Record(context.Background(), sales.RecordInput{BranchID: branchID, OrderType: "Dining", Items: line, CapturedAt: &captured})
	require.NoError(t, err)
	require.Len(t, store.txs, 3)
}

func TestRecordValidation(t *testing.T) {
	svc, store, rec, branchID := newService()
	line := []pricing.LineItem{{Price: price(50), Quantity: 1}}
	cases := map[string]sales.RecordInput{
		"unknown order type": {BranchID: branchID, OrderType: "Drive Thru", Items: line},
		"unknown branch":     {BranchID: uuid.New(), OrderType: "Dining", Items: line},
		"empty cart":         {BranchID: branchID, OrderType: "Dining"},
		"zero quantity":      {BranchID: branchID, OrderType: "Dining", Items: []pricing.LineItem{{Price: price(50)}}},
		"bad payment mode":   {BranchID: branchID, OrderType: "Dining", Items: line, PaymentMode: "cheque"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), in)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, common.CodeValidation, appErr.Code)
		})
	}
	require.Empty(t, store.txs)
	require.Empty(t, rec.Events())
}

func TestRecordSurvivesPublishFailure(t *testing.T) {
	svc, store, rec, branchID := newService()
	rec.Err = errors.New("broker down")
	_, err := svc.Record(context.Background(), sales.RecordInput{
		BranchID: branchID, OrderType: "Online Order", Items: []pricing.LineItem{{Price: price(10), Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, store.txs, 1)

	store.err = errors.New("db down")
	_, err = svc.Record(context.Background(), sales.RecordInput{
		BranchID: branchID, OrderType: "Online Order", Items: []pricing.LineItem{{Price: price(10), Quantity: 1}},
	})
	require.ErrorContains(t, err, "db down")
}

func TestListChecksRange(t *testing.T) {
	svc, _, _, _ := newService()
	_, err := svc.List(context.Background(), sales.Filter{From: fixedNow, To: fixedNow.Add(-time.Hour)})
	require.ErrorIs(t, err, sales.ErrInvalidRange)

	_, err = svc.List(context.Background(), sales.Filter{From: fixedNow.AddDate(0, -3, 0), To: fixedNow})
	require.ErrorIs(t, err, sales.ErrInvalidRange)
}

func TestHandlers(t *testing.T) {
	svc, _, _, branchID := newService()
	h := &sales.Handler{Svc: svc, MaxPerPage: 100}

	body := `{"branchId":"` + branchID.String() + `","orderType":"Dining","items":[{"name":"Thali","price":100,"quantity":2,"cgstPercent":9,"sgstPercent":9}]}`
	rr := httptest.NewRecorder()
	h.Record(rr, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	forged := `{"branchId":"` + branchID.String() + `","orderType":"Dining","items":[{"price":100,"quantity":1,"cgstPercent":9,"sgstPercent":9}],"summary":{"totalFinalAmount":1}}`
	rr = httptest.NewRecorder()
	h.Record(rr, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(forged)))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), `"totalFinalAmount":100`)

	rr = httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?branchId="+branchID.String()+"&from=2024-03-01T00:00:00Z&to=2024-03-16T00:00:00Z&limit=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Data       []sales.Transaction `json:"data"`
		Pagination common.Pagination   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, 2, list.Pagination.TotalItems)

	rr = httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?from=2024-03-10T00:00:00Z&to=2024-01-01T00:00:00Z", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/transactions?branchId=nope", nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestParseFilterDefaultsToRecentDays(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?days=7", nil)
	f, err := sales.ParseFilter(req, fixedNow, 30)
	require.NoError(t, err)
	require.Equal(t, fixedNow, f.To)
	require.Equal(t, fixedNow.AddDate(0, 0, -7), f.From)
	require.Equal(t, uuid.Nil, f.BranchID)
}
