package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5-wrapper/internal/interfaces"
	"mt5-wrapper/internal/recon"
	"mt5-wrapper/internal/store"
	"mt5-wrapper/internal/terminal"
	"mt5-wrapper/internal/types"
)

type fakeTerminal struct {
	positions []types.Position
	err       error
}

var _ interfaces.Terminal = (*fakeTerminal)(nil)

func (f *fakeTerminal) GetPosition(ctx context.Context, ticket int64) (*types.Position, error) {
	return nil, nil
}

func (f *fakeTerminal) GetPositions(ctx context.Context) ([]types.Position, error) {
	return f.positions, f.err
}

func (f *fakeTerminal) GetDealByTicket(ctx context.Context, ticket int64) (*types.Deal, error) {
	return nil, nil
}

func (f *fakeTerminal) GetDealsByPosition(ctx context.Context, positionID int64) ([]types.Deal, error) {
	return nil, nil
}

func (f *fakeTerminal) GetDealsInRange(ctx context.Context, from, to time.Time) ([]types.Deal, error) {
	return nil, nil
}

func (f *fakeTerminal) GetOrders(ctx context.Context, ticket int64) ([]types.Order, error) {
	return nil, nil
}

func (f *fakeTerminal) GetLastTick(ctx context.Context, symbol string) (*types.Tick, error) {
	return nil, nil
}

type fakeSessions struct {
	term interfaces.Terminal
	err  error
}

var _ interfaces.SessionProvider = (*fakeSessions)(nil)

func (f *fakeSessions) Acquire(ctx context.Context) (interfaces.Terminal, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.term, func() {}, nil
}

type fakeReconciler struct {
	position types.EnrichedPosition
	trade    types.EnrichedTrade
	err      error
}

var _ interfaces.Reconciler = (*fakeReconciler)(nil)

func (f *fakeReconciler) EnrichPosition(ctx context.Context, positionID int64) (types.EnrichedPosition, error) {
	return f.position, f.err
}

func (f *fakeReconciler) EnrichDeal(ctx context.Context, dealTicket int64) (types.EnrichedTrade, error) {
	return f.trade, f.err
}

type fakeHistory struct {
	deals []types.Deal
	err   error

	gotCount int
	gotFrom  time.Time
	gotTo    time.Time
}

var _ interfaces.History = (*fakeHistory)(nil)

func (f *fakeHistory) LatestDeals(ctx context.Context, count int) ([]types.Deal, error) {
	f.gotCount = count
	return f.deals, f.err
}

func (f *fakeHistory) DealsBetween(ctx context.Context, from, to time.Time) ([]types.Deal, error) {
	f.gotFrom, f.gotTo = from, to
	return f.deals, f.err
}

type fakeRobots struct {
	robots []types.Robot
	err    error
}

var _ interfaces.RobotRegistry = (*fakeRobots)(nil)

func (f *fakeRobots) List(ctx context.Context) ([]types.Robot, error) {
	return f.robots, f.err
}

type collaborators struct {
	sessions   *fakeSessions
	reconciler *fakeReconciler
	history    *fakeHistory
	robots     *fakeRobots
}

func newTestServer(co collaborators) http.Handler {
	cfg := &store.Config{}
	if co.sessions == nil {
		co.sessions = &fakeSessions{term: &fakeTerminal{}}
	}
	if co.reconciler == nil {
		co.reconciler = &fakeReconciler{}
	}
	if co.history == nil {
		co.history = &fakeHistory{}
	}
	if co.robots == nil {
		co.robots = &fakeRobots{}
	}
	return New(cfg, co.sessions, co.reconciler, co.history, co.robots).Router()
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestRootReportsStatus(t *testing.T) {
	h := newTestServer(collaborators{})

	rec := doGet(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, version, body["version"])
}

func TestPositionsNormalizesTimestamps(t *testing.T) {
	term := &fakeTerminal{positions: []types.Position{
		{Ticket: 555, Symbol: "EURUSD", Time: 1700000000, TimeMsc: 1700000000123},
	}}
	h := newTestServer(collaborators{sessions: &fakeSessions{term: term}})

	rec := doGet(t, h, "/positions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []map[string]any
	decodeBody(t, rec, &body)
	require.Len(t, body, 1)
	assert.Equal(t, "2023-11-14T22:13:20Z", body[0]["time"])
	assert.Equal(t, "2023-11-14T22:13:20.123Z", body[0]["time_msc"])
}

func TestPositionDetailsHappyPath(t *testing.T) {
	rc := &fakeReconciler{position: types.EnrichedPosition{Ticket: 555, SL: 1.1, TP: 1.2}}
	h := newTestServer(collaborators{reconciler: rc})

	rec := doGet(t, h, "/positions/555")
	require.Equal(t, http.StatusOK, rec.Code)

	var body types.EnrichedPosition
	decodeBody(t, rec, &body)
	assert.Equal(t, int64(555), body.Ticket)
	assert.Equal(t, 1.1, body.SL)
}

func TestPositionDetailsNotFoundMapsTo404(t *testing.T) {
	rc := &fakeReconciler{err: fmt.Errorf("position 999: %w", recon.ErrNotFound)}
	h := newTestServer(collaborators{reconciler: rc})

	rec := doGet(t, h, "/positions/999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPositionDetailsUnavailableMapsTo503(t *testing.T) {
	rc := &fakeReconciler{err: fmt.Errorf("%w: connection refused", terminal.ErrUnavailable)}
	h := newTestServer(collaborators{reconciler: rc})

	rec := doGet(t, h, "/positions/555")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	decodeBody(t, rec, &body)
	assert.Equal(t, "could not connect to the MT5 terminal", body["detail"])
}

func TestPositionDetailsUnknownErrorMapsTo500(t *testing.T) {
	rc := &fakeReconciler{err: errors.New("corrupt record")}
	h := newTestServer(collaborators{reconciler: rc})

	rec := doGet(t, h, "/positions/555")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Internal detail never leaks.
	assert.NotContains(t, rec.Body.String(), "corrupt record")
}

func TestPositionDetailsRejectsNonIntegerTicket(t *testing.T) {
	h := newTestServer(collaborators{})

	rec := doGet(t, h, "/positions/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryParsesDateWindow(t *testing.T) {
	hist := &fakeHistory{deals: []types.Deal{{Ticket: 1, Time: 1700000000}}}
	h := newTestServer(collaborators{history: hist})

	rec := doGet(t, h, "/history?start_date=2024-01-01&end_date=2024-01-31")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), hist.gotFrom)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), hist.gotTo)

	var body []map[string]any
	decodeBody(t, rec, &body)
	require.Len(t, body, 1)
	assert.Equal(t, "2023-11-14T22:13:20Z", body[0]["time"])
}

func TestHistoryRejectsMalformedDates(t *testing.T) {
	h := newTestServer(collaborators{})

	rec := doGet(t, h, "/history?start_date=January&end_date=2024-01-31")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, h, "/history?start_date=2024-01-01")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLatestDealsDefaultsToTen(t *testing.T) {
	hist := &fakeHistory{}
	h := newTestServer(collaborators{history: hist})

	rec := doGet(t, h, "/history/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, hist.gotCount)

	rec = doGet(t, h, "/history/latest?count=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, hist.gotCount)
}

func TestLatestDealsRejectsBadCount(t *testing.T) {
	h := newTestServer(collaborators{})

	rec := doGet(t, h, "/history/latest?count=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, h, "/history/latest?count=many")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTradeDetailsHappyPath(t *testing.T) {
	rc := &fakeReconciler{trade: types.EnrichedTrade{DealTicket: 2, ClosePrice: 1.0850}}
	h := newTestServer(collaborators{reconciler: rc})

	rec := doGet(t, h, "/trade-details/2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body types.EnrichedTrade
	decodeBody(t, rec, &body)
	assert.Equal(t, int64(2), body.DealTicket)
	assert.Equal(t, 1.0850, body.ClosePrice)
}

func TestTradeDetailsOmitsUnrecoverableOpenSide(t *testing.T) {
	rc := &fakeReconciler{trade: types.EnrichedTrade{DealTicket: 2, ClosePrice: 1.0850}}
	h := newTestServer(collaborators{reconciler: rc})

	rec := doGet(t, h, "/trade-details/2")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.NotContains(t, body, "open_price")
	assert.NotContains(t, body, "open_time_utc")
	// SL/TP default to zero but stay present.
	assert.Contains(t, body, "stop_loss")
	assert.Contains(t, body, "take_profit")
}

func TestRobotsListing(t *testing.T) {
	reg := &fakeRobots{robots: []types.Robot{{Name: "StrategyA", MagicNumber: 12345}}}
	h := newTestServer(collaborators{robots: reg})

	rec := doGet(t, h, "/robots")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]types.Robot
	decodeBody(t, rec, &body)
	require.Len(t, body["robots"], 1)
	assert.Equal(t, int64(12345), body["robots"][0].MagicNumber)
}

func TestRobotsErrorMapsTo500(t *testing.T) {
	reg := &fakeRobots{err: errors.New("experts directory not configured")}
	h := newTestServer(collaborators{robots: reg})

	rec := doGet(t, h, "/robots")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPositionsAcquireFailureMapsTo503(t *testing.T) {
	sessions := &fakeSessions{err: fmt.Errorf("%w: connection refused", terminal.ErrUnavailable)}
	h := newTestServer(collaborators{sessions: sessions})

	rec := doGet(t, h, "/positions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsRouteGatedByConfig(t *testing.T) {
	cfg := &store.Config{}
	cfg.Metrics.Enabled = true
	srv := New(cfg, &fakeSessions{term: &fakeTerminal{}}, &fakeReconciler{}, &fakeHistory{}, &fakeRobots{})

	rec := doGet(t, srv.Router(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)

	disabled := newTestServer(collaborators{})
	rec = doGet(t, disabled, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
