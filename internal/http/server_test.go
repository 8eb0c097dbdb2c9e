package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momo/internal/auth"
	"momo/internal/core"
	"momo/internal/services"
	"momo/internal/storage"
	"momo/internal/storage/memory"
)

type testServer struct {
	*Server
	store storage.RecordStore
}

func newTestServer(t *testing.T, store storage.RecordStore, loginLimit int) *testServer {
	t.Helper()
	if store == nil {
		store = memory.New(time.UTC)
	}
	registry, err := auth.ParseAgents(auth.DefaultAgents)
	require.NoError(t, err)
	sessions, err := auth.NewSessionManager([]byte("test-secret-test-secret-test-sec"), time.Hour, false)
	require.NoError(t, err)

	srv, err := NewServer(":0", Deps{
		Records:        services.NewRecordService(store, services.WithLocation(time.UTC)),
		Authenticator:  registry,
		Sessions:       sessions,
		LoginRateLimit: loginLimit,
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testServer{Server: srv, store: store}
}

func (ts *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (ts *testServer) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.do(req, cookies...)
}

func (ts *testServer) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := ts.post("/login", url.Values{"username": {username}, "password": {"pass123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func (ts *testServer) addRecord(t *testing.T, cookie *http.Cookie, phone, typ, amount string) {
	t.Helper()
	rec := ts.post("/add-record", url.Values{"phone": {phone}, "type": {typ}, "amount": {amount}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil, 0)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := ts.get(path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestStaticAndSecurityHeaders(t *testing.T) {
	ts := newTestServer(t, nil, 0)

	rec := ts.get("/static/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")

	rec = ts.get("/login")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestIndexRedirects(t *testing.T) {
	ts := newTestServer(t, nil, 0)

	rec := ts.get("/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	cookie := ts.login(t, "agent1")
	rec = ts.get("/", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t, nil, 0)

	for _, path := range []string{"/dashboard", "/add-record", "/reports", "/api/report-summary", "/export-csv"} {
		rec := ts.get(path)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login", rec.Header().Get("Location"), path)
	}

	rec := ts.post("/delete-record/1", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.get("/dashboard", &http.Cookie{Name: auth.CookieName, Value: "forged"})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, nil, 0)

	rec := ts.post("/login", url.Values{"username": {"agent1"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")
	assert.Empty(t, rec.Result().Cookies())

	rec = ts.post("/login", url.Values{"username": {"nobody"}, "password": {"pass123"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := ts.login(t, "agent1")
	rec = ts.get("/dashboard", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Agent One")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t, nil, 0)
	cookie := ts.login(t, "agent1")

	rec := ts.get("/logout", cookie)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	cleared := rec.Result().Cookies()
	require.NotEmpty(t, cleared)
	assert.Equal(t, auth.CookieName, cleared[0].Name)
	assert.True(t, cleared[0].MaxAge < 0)
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t, nil, 2)
	form := url.Values{"username": {"agent1"}, "password": {"wrong"}}

	assert.Equal(t, http.StatusUnauthorized, ts.post("/login", form).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.post("/login", form).Code)

	rec := ts.post("/login", form)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many login attempts")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// The login form itself is never throttled.
	assert.Equal(t, http.StatusOK, ts.get("/login").Code)
}

func TestAddRecord(t *testing.T) {
	ts := newTestServer(t, nil, 0)
	cookie := ts.login(t, "agent1")

	rec := ts.get("/add-record", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing phone", url.Values{"phone": {" "}, "amount": {"10"}}},
		{"zero amount", url.Values{"phone": {"0771234567"}, "amount": {"0"}}},
		{"negative amount", url.Values{"phone": {"0771234567"}, "amount": {"-5"}}},
		{"not a number", url.Values{"phone": {"0771234567"}, "amount": {"ten"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.post("/add-record", tt.form, cookie)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "Invalid input")
		})
	}

	got, err := ts.store.List(context.Background(), core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got, "rejected input must not be stored")

	// Type defaults to deposit and the agent comes from the session.
	rec = ts.post("/add-record", url.Values{"phone": {"0771234567"}, "amount": {"50"}, "agent": {"agent2"}}, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err = ts.store.List(context.Background(), core.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.Deposit, got[0].Type)
	assert.Equal(t, "agent1", got[0].Agent)
	assert.Equal(t, "50.00", core.FormatAmount(got[0].Amount))

	rec = ts.get("/dashboard", cookie)
	assert.Contains(t, rec.Body.String(), "0771234567")
	assert.Contains(t, rec.Body.String(), "50.00")
}

func TestDashboardFilters(t *testing.T) {
	ts := newTestServer(t, nil, 0)
	c1 := ts.login(t, "agent1")
	c2 := ts.login(t, "agent2")
	ts.addRecord(t, c1, "0771111111", "deposit", "10")
	ts.addRecord(t, c2, "0772222222", "withdrawal", "5")

	rec := ts.get("/dashboard?agent=agent2", c1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "0772222222")
	assert.NotContains(t, rec.Body.String(), "0771111111")

	rec = ts.get("/dashboard?search=AGENT1", c1)
	assert.Contains(t, rec.Body.String(), "0771111111")
	assert.NotContains(t, rec.Body.String(), "0772222222")

	rec = ts.get("/dashboard?from_date=nope", c1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteRecord(t *testing.T) {
	ts := newTestServer(t, nil, 0)
	c1 := ts.login(t, "agent1")
	c2 := ts.login(t, "agent2")
	ts.addRecord(t, c1, "0771234567", "deposit", "50")

	got, err := ts.store.List(context.Background(), core.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	id := got[0].ID

	assert.Equal(t, http.StatusNotFound, ts.post("/delete-record/abc", nil, c1).Code)

	// Any agent may delete by default; missing ids are a no-op.
	rec := ts.post("/delete-record/999", nil, c2)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = ts.post("/delete-record/"+strconvID(id), nil, c2)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	got, err = ts.store.List(context.Background(), core.Filter{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReports(t *testing.T) {
	ts := newTestServer(t, nil, 0)
	c1 := ts.login(t, "agent1")
	c2 := ts.login(t, "agent2")

	rec := ts.get("/api/report-summary", c1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	ts.addRecord(t, c1, "0771234567", "deposit", "50.00")
	ts.addRecord(t, c2, "0779999999", "withdrawal", "20.00")

	rec = ts.get("/reports", c1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<option value="agent2">`)

	rec = ts.get("/api/report-summary", c1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"deposit":{"count":1,"total":50.00},"withdrawal":{"count":1,"total":20.00}}`, rec.Body.String())

	rec = ts.get("/api/report-summary?agent=agent1", c1)
	assert.JSONEq(t, `{"deposit":{"count":1,"total":50.00}}`, rec.Body.String())

	rec = ts.get("/api/report-summary?to_date=2025-02-30", c1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t, nil, 0)
	c1 := ts.login(t, "agent1")

	rec := ts.get("/export-csv", c1)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "No records found")

	ts.addRecord(t, c1, "0771234567", "deposit", "50")
	ts.addRecord(t, c1, "0779999999", "withdrawal", "20")

	rec = ts.get("/export-csv?agent=agent1", c1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "momo-report-")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,date,phone,type,amount,agent,reference", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "0779999999", "most recent first")
	assert.Contains(t, lines[2], ",50.00,agent1,")

	rec = ts.get("/export-csv?agent=agent2", c1)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type failingStore struct {
	storage.RecordStore
}

func (failingStore) List(context.Context, core.Filter) ([]core.Record, error) {
	return nil, &core.StoreError{Op: "list records", Err: assert.AnError}
}

func (failingStore) Summarize(context.Context, core.Filter) (core.Summary, error) {
	return nil, &core.StoreError{Op: "summarize records", Err: assert.AnError}
}

func (failingStore) Ping(context.Context) error {
	return &core.StoreError{Op: "ping", Err: assert.AnError}
}

func TestStoreFailures(t *testing.T) {
	ts := newTestServer(t, failingStore{RecordStore: memory.New(time.UTC)}, 0)
	cookie := ts.login(t, "agent1")

	rec := ts.get("/dashboard", cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())

	rec = ts.get("/api/report-summary", cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = ts.get("/export-csv", cookie)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = ts.get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
