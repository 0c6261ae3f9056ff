package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/carpool-matching/internal/clock"
	"github.com/example/carpool-matching/internal/geo"
	"github.com/example/carpool-matching/internal/models"
	"github.com/example/carpool-matching/internal/pool"
	"github.com/example/carpool-matching/internal/scoring"
	"github.com/example/carpool-matching/internal/seed"
	"github.com/example/carpool-matching/internal/session"
	"github.com/example/carpool-matching/internal/storage"
	"github.com/example/carpool-matching/internal/transport"
	"github.com/example/carpool-matching/internal/wallet"
)

type failingProvider struct{}

func (failingProvider) FindMatches(context.Context, models.RideRequest) ([]models.MatchCandidate, error) {
	return nil, errors.New("upstream down")
}

type testEnv struct {
	srv     *Server
	pool    *pool.Pool
	history *storage.MemoryStore
	clock   *clock.Fake
}

func newTestEnv(t *testing.T, provider session.MatchProvider) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		pool:    pool.New(seed.Drivers(), seed.Riders()),
		history: storage.NewMemoryStore(),
		clock:   clock.NewFake(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)),
	}
	env.history.Seed(seed.Me.ID, seed.History())
	sim := transport.NewSimulatedClient(0)
	if provider == nil {
		provider = sim
	}
	env.srv = NewServer(Options{
		Pool:    env.pool,
		Wallet:  wallet.New(seed.PaymentMethods()),
		History: env.history,
		NewSession: func(id string, user models.UserProfile, role models.Role) (*session.Session, error) {
			return session.New(id, user, role, session.Deps{
				Provider:  provider,
				LateMatch: sim,
				Scorer:    scoring.NewEngineWithSource(func() float64 { return 0.5 }),
				Posts:     env.pool,
				History:   env.history,
				Clock:     env.clock,
				Logger:    logger,
			}, session.DefaultTimings())
		},
		User:            seed.Me,
		DefaultMaxPrice: 20,
		Logger:          logger,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) createSession(t *testing.T, role models.Role) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/sessions", map[string]any{"role": role})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: %d %s", rec.Code, rec.Body.String())
	}
	return decode[session.Snapshot](t, rec).ID
}

func TestRiderFlowEndToEnd(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, models.RoleRider)
	base := "/api/v1/sessions/" + id

	rec := env.do(t, http.MethodPost, base+"/submit", session.SubmitCommand{Origin: "Downtown Metro", Destination: "Tech Park Campus", Time: "08:30"})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	sub := decode[submitResponse](t, rec)
	if sub.State != session.StateResultsReady || len(sub.Matches) != 2 || sub.Matches[0].ID != "m1" {
		t.Fatalf("submit response %+v", sub)
	}
	if got := env.pool.View(models.RoleRider); got[0].User.ID != seed.Me.ID {
		t.Fatalf("self post not at head of rider pool: %+v", got[0])
	}

	env.clock.Advance(5 * time.Second)
	snap := decode[session.Snapshot](t, env.do(t, http.MethodGet, base, nil))
	if len(snap.Matches) != 3 || snap.Matches[0].ID != "m-new" || !snap.ShowToast {
		t.Fatalf("late match not delivered: %+v", snap.Matches)
	}

	rec = env.do(t, http.MethodPost, base+"/select", map[string]string{"candidate_id": "m1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("select: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, base+"/messages", map[string]string{"text": "See you there"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("message: %d %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, base+"/confirm", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body.String())
	}
	item := decode[models.RideHistoryItem](t, rec)
	if item.DriverName != "Sarah Jenkins" || item.Status != models.HistoryUpcoming || item.Date != "Today • 08:45 AM" {
		t.Fatalf("item %+v", item)
	}
	again := decode[models.RideHistoryItem](t, env.do(t, http.MethodPost, base+"/confirm", nil))
	if again.ID != item.ID {
		t.Fatal("second confirm produced a different item")
	}

	hist := decode[struct {
		Items []models.RideHistoryItem `json:"items"`
	}](t, env.do(t, http.MethodGet, "/api/v1/users/"+seed.Me.ID+"/history", nil))
	if len(hist.Items) != 4 || hist.Items[0].ID != item.ID {
		t.Fatalf("history %+v", hist.Items)
	}

	if rec := env.do(t, http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, base, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
}

func TestSubmitValidationMapsTo400(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, models.RoleRider)
	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/submit", session.SubmitCommand{Destination: "Tech Park Campus"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if resp := decode[errorResponse](t, rec); resp.Field != "origin" {
		t.Fatalf("response %+v", resp)
	}
	if n := len(env.pool.View(models.RoleRider)); n != len(seed.Riders()) {
		t.Fatalf("pool changed on invalid submit: %d", n)
	}
}

func TestProviderFailureMapsTo502(t *testing.T) {
	env := newTestEnv(t, failingProvider{})
	id := env.createSession(t, models.RoleRider)
	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/submit", session.SubmitCommand{Origin: "a", Destination: "b"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
	snap := decode[session.Snapshot](t, env.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil))
	if snap.State != session.StateFailed {
		t.Fatalf("state %s", snap.State)
	}
}

func TestStateConflictsMapTo409(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, models.RoleRider)
	if rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/confirm", nil); rec.Code != http.StatusConflict {
		t.Fatalf("confirm in idle: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/messages", map[string]string{"text": ""}); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty message: %d", rec.Code)
	}
}

func TestUnknownSessionAndCandidate(t *testing.T) {
	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodGet, "/api/v1/sessions/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session: %d", rec.Code)
	}
	id := env.createSession(t, models.RoleRider)
	env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/submit", session.SubmitCommand{Origin: "a", Destination: "b"})
	if rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/select", map[string]string{"candidate_id": "zzz"}); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown candidate: %d", rec.Code)
	}
}

func TestSetRoleRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, models.RoleRider)
	rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/role", map[string]string{"role": "DRIVER"})
	if rec.Code != http.StatusOK || decode[session.Snapshot](t, rec).Role != models.RoleDriver {
		t.Fatalf("set role: %d %s", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/role", map[string]string{"role": "PILOT"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role: %d", rec.Code)
	}
}

type poolResponse struct {
	Items []models.MatchCandidate `json:"items"`
}

func TestListPoolQueries(t *testing.T) {
	env := newTestEnv(t, nil)
	got := decode[poolResponse](t, env.do(t, http.MethodGet, "/api/v1/pool?view=driver&sort=PRICE_ASC", nil))
	if len(got.Items) != 2 || got.Items[0].ID != "m2" {
		t.Fatalf("price asc %+v", got.Items)
	}
	got = decode[poolResponse](t, env.do(t, http.MethodGet, "/api/v1/pool?view=DRIVER&max_price=4", nil))
	if len(got.Items) != 1 || got.Items[0].ID != "m2" {
		t.Fatalf("max price %+v", got.Items)
	}
	got = decode[poolResponse](t, env.do(t, http.MethodGet, "/api/v1/pool?view=RIDER&q=central", nil))
	if len(got.Items) != 1 || got.Items[0].ID != "p2" {
		t.Fatalf("search %+v", got.Items)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/pool?sort=CHEAPEST", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sort: %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/pool?max_price=-3", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad max price: %d", rec.Code)
	}
}

func TestPaymentMethodRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	type listResponse struct {
		Items []models.PaymentMethod `json:"items"`
	}
	rec := env.do(t, http.MethodPost, "/api/v1/payment-methods", wallet.AddCardCommand{Number: "5555 5555 5555 4444", Expiry: "10/29", CVC: "321"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", rec.Code, rec.Body.String())
	}
	added := decode[models.PaymentMethod](t, rec)
	if added.IsDefault || added.Type != models.NetworkMastercard {
		t.Fatalf("added %+v", added)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/payment-methods", wallet.AddCardCommand{Number: "1"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid card: %d", rec.Code)
	}

	list := decode[listResponse](t, env.do(t, http.MethodPost, "/api/v1/payment-methods/"+added.ID+"/default", nil))
	defaults := 0
	for _, m := range list.Items {
		if m.IsDefault {
			defaults++
			if m.ID != added.ID {
				t.Fatalf("wrong default %s", m.ID)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("%d defaults", defaults)
	}

	if rec := env.do(t, http.MethodDelete, "/api/v1/payment-methods/"+added.ID, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	list = decode[listResponse](t, env.do(t, http.MethodGet, "/api/v1/payment-methods", nil))
	if len(list.Items) != 2 || !list.Items[0].IsDefault {
		t.Fatalf("after delete %+v", list.Items)
	}
	if rec := env.do(t, http.MethodDelete, "/api/v1/payment-methods/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing: %d", rec.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("X-Request-ID") != "abc" {
		t.Fatalf("status %d id %q", rec.Code, rec.Header().Get("X-Request-ID"))
	}
}

func TestShutdownLeavesSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	id := env.createSession(t, models.RoleRider)
	env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/submit", session.SubmitCommand{Origin: "a", Destination: "b"})
	env.srv.Shutdown()
	if env.clock.Pending() != 0 {
		t.Fatalf("%d timers pending after shutdown", env.clock.Pending())
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("session survived shutdown: %d", rec.Code)
	}
}

type fakePositions map[string]models.Coord

func (f fakePositions) Lookup(_ context.Context, id string) (models.Coord, error) {
	c, ok := f[id]
	if !ok {
		return models.Coord{}, geo.ErrNoPosition
	}
	return c, nil
}

func TestPositionRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.positions = fakePositions{"elsewhere": {Lat: 37.77, Lon: -122.41}}
	id := env.createSession(t, models.RoleRider)
	base := "/api/v1/sessions/" + id

	if rec := env.do(t, http.MethodGet, base+"/position", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("position before confirm: %d", rec.Code)
	}
	env.do(t, http.MethodPost, base+"/submit", session.SubmitCommand{Origin: "Downtown Metro", Destination: "Tech Park Campus"})
	env.do(t, http.MethodPost, base+"/select", map[string]string{"candidate_id": "m1"})
	if rec := env.do(t, http.MethodPost, base+"/confirm", nil); rec.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body.String())
	}
	rec := env.do(t, http.MethodGet, base+"/position", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("position: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[positionResponse](t, rec); got.SessionID != id || got.Position == (models.Coord{}) {
		t.Fatalf("live position %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/sessions/elsewhere/position", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stored position: %d", rec.Code)
	}
	if got := decode[positionResponse](t, rec); got.Position.Lat != 37.77 {
		t.Fatalf("stored position %+v", got)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/sessions/missing/position", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing position: %d", rec.Code)
	}
	env.srv.Shutdown()
}
