package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"paytrack/internal/core"
	"paytrack/internal/profile"
	"paytrack/internal/services"
	"paytrack/internal/store"
	"paytrack/internal/store/memory"
)

func newTestServer(t *testing.T, policy store.MissingPolicy, mutate ...func(*Options)) *Server {
	t.Helper()
	st := memory.New(memory.WithMissingPolicy(policy))
	opts := Options{
		Payments: services.NewPaymentService(st, nil, time.Minute),
		Profiles: profile.NewService(profile.NewMemoryRepository(),
			profile.NewTokens("0123456789abcdef0123456789abcdef", time.Hour)).WithCost(bcrypt.MinCost),
	}
	for _, m := range mutate {
		m(&opts)
	}
	srv := NewServer(":0", opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), "body: %s", rr.Body.String())
	return v
}

func createPayment(t *testing.T, srv *Server, body string) core.PaymentDetails {
	t.Helper()
	rr := do(t, srv, http.MethodPost, "/api/payments", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[core.PaymentDetails](t, rr)
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)
	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	notReady := newTestServer(t, store.MissingWarn, func(o *Options) {
		o.Ready = func(context.Context) error { return errors.New("database is down") }
	})
	rr := do(t, notReady, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestPaymentLifecycle(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)

	created := createPayment(t, srv, `{"title":"Rent","description":"March","amount":"21.1263","date":"2024-03-01","category":"housing","photos":["https://img/1.jpg"]}`)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "21.1263", created.Amount.String())
	assert.Equal(t, core.Housing, created.Category)

	rr := do(t, srv, http.MethodGet, "/api/payments/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[core.PaymentDetails](t, rr)
	assert.Equal(t, "Rent", got.Title)
	assert.Equal(t, []string{"https://img/1.jpg"}, got.Photos)
	assert.Equal(t, "2024-03-01", got.Date.String())

	rr = do(t, srv, http.MethodPut, "/api/payments/"+created.ID,
		`{"title":"Rent April","amount":"900","date":"01.04.2024","category":"housing"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[core.PaymentDetails](t, rr)
	assert.Equal(t, "Rent April", updated.Title)
	assert.Equal(t, "2024-04-01", updated.Date.String())
	assert.Empty(t, updated.Photos)

	rr = do(t, srv, http.MethodGet, "/api/payments", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[paymentList](t, rr)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Rent April", list.Payments[0].Title)

	rr = do(t, srv, http.MethodDelete, "/api/payments/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/payments/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Contains(t, body.Error, "not found")
}

func TestCreatePaymentValidation(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)

	rr := do(t, srv, http.MethodPost, "/api/payments", `{"title":"","amount":"211212121212.12"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := decode[errorBody](t, rr)
	assert.Equal(t, "validation failed", body.Error)
	assert.Contains(t, body.Fields, core.FieldTitle)
	assert.Contains(t, body.Fields, core.FieldAmount)

	rr = do(t, srv, http.MethodPost, "/api/payments",
		`{"title":"Camera","amount":"10","photos":["a","b"],"photo_sizes":[1024, 6291456]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body = decode[errorBody](t, rr)
	assert.Contains(t, body.Fields, core.FieldPhotos)

	rr = do(t, srv, http.MethodPost, "/api/payments",
		`{"title":"Camera","description":"d","amount":"10","photos":["a","b"],"photo_sizes":[1024]}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code, "sizes must cover every photo")
	body = decode[errorBody](t, rr)
	assert.Contains(t, body.Fields, core.FieldPhotos)

	rr = do(t, srv, http.MethodPost, "/api/payments",
		`{"title":"Camera","description":"d","amount":"10","photos":["a","b"],"photo_sizes":[1024, 2048]}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/payments", `{"title":"x","amount":"1","category":"yachts"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body = decode[errorBody](t, rr)
	assert.Contains(t, body.Fields, core.FieldCategory)
}

func TestMalformedRequests(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)

	for name, body := range map[string]string{
		"not json":      `title=x`,
		"unknown field": `{"title":"x","amount":"1","colour":"red"}`,
		"two objects":   `{"title":"x","amount":"1"}{"title":"y"}`,
	} {
		rr := do(t, srv, http.MethodPost, "/api/payments", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, name)
	}

	rr := do(t, srv, http.MethodGet, "/api/payments?min=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPatch, "/api/payments", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestMissingPolicies(t *testing.T) {
	warn := newTestServer(t, store.MissingWarn)
	rr := do(t, warn, http.MethodDelete, "/api/payments/nope", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, warn, http.MethodPut, "/api/payments/nope", `{"title":"x","amount":"1"}`)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	fail := newTestServer(t, store.MissingFail)
	rr = do(t, fail, http.MethodDelete, "/api/payments/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(t, fail, http.MethodPut, "/api/payments/nope", `{"title":"x","amount":"1"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFilteredListingAndBreakdown(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)
	createPayment(t, srv, `{"title":"Groceries","amount":"40.50","date":"2024-01-10","category":"food"}`)
	createPayment(t, srv, `{"title":"Train","amount":"12","date":"2024-02-03","category":"transport"}`)
	createPayment(t, srv, `{"title":"Dinner","amount":"60","date":"2024-02-20","category":"food"}`)

	rr := do(t, srv, http.MethodGet, "/api/payments?category=food&min=50", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[paymentList](t, rr)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Dinner", list.Payments[0].Title)

	rr = do(t, srv, http.MethodGet, "/api/payments?from=01.02.2024&to=2024-02-28", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list = decode[paymentList](t, rr)
	assert.Equal(t, 2, list.Count)

	rr = do(t, srv, http.MethodGet, "/api/payments?q=nothing-matches", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"payments":[]`)

	rr = do(t, srv, http.MethodGet, "/api/breakdown?from=2024-01-01&to=2024-12-31", "")
	require.Equal(t, http.StatusOK, rr.Code)
	b := decode[core.Breakdown](t, rr)
	assert.Equal(t, 3, b.Count)
	assert.Equal(t, "112.5", b.Total.String())
	require.Len(t, b.ByCategory, 2)
	assert.Equal(t, core.Food, b.ByCategory[0].Category)
	assert.Equal(t, "100.5", b.ByCategory[0].Amount.String())
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)
	rr := do(t, srv, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"default":"other"`)
}

func TestProfileFlow(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)

	rr := do(t, srv, http.MethodPost, "/api/profile/register",
		`{"email":"ada@example.com","display_name":"Ada","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "secret1")

	rr = do(t, srv, http.MethodPost, "/api/profile/register",
		`{"email":"ada@example.com","display_name":"Ada","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/profile/signin", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/profile/signin", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	signIn := decode[signInResponse](t, rr)
	require.NotEmpty(t, signIn.Token)
	auth := []string{"Authorization", "Bearer " + signIn.Token}

	rr = do(t, srv, http.MethodGet, "/api/profile", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/profile", "", "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, srv, http.MethodGet, "/api/profile", "", auth...)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ada", decode[profile.User](t, rr).DisplayName)

	rr = do(t, srv, http.MethodPatch, "/api/profile", `{"display_name":"Ada L."}`, auth...)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Ada L.", decode[profile.User](t, rr).DisplayName)

	rr = do(t, srv, http.MethodPatch, "/api/profile", `{"old_password":"bad","new_password":"secret2"}`, auth...)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = do(t, srv, http.MethodPatch, "/api/profile", `{"old_password":"secret1","new_password":"secret2"}`, auth...)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, srv, http.MethodPatch, "/api/profile", `{}`, auth...)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, srv, http.MethodPost, "/api/profile/signin", `{"email":"ada@example.com","password":"secret2"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)

	rr := do(t, srv, http.MethodGet, "/api/payments", "")
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = do(t, srv, http.MethodGet, "/api/payments", "", requestIDHeader, "client-abc")
	assert.Equal(t, "client-abc", rr.Header().Get(requestIDHeader))
}

func TestRateLimitOnMutations(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn, func(o *Options) { o.RateLimit = 2 })

	body := `{"title":"x","amount":"1","date":"2024-01-01"}`
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/payments", body).Code)
	assert.Equal(t, http.StatusCreated, do(t, srv, http.MethodPost, "/api/payments", body).Code)

	rr := do(t, srv, http.MethodPost, "/api/payments", body)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/payments", "").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)
	createPayment(t, srv, `{"title":"x","amount":"1","date":"2024-01-01"}`)
	do(t, srv, http.MethodGet, "/api/payments", "")

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	out := rr.Body.String()
	assert.Contains(t, out, `paytrack_http_requests_total{code="200",method="GET",route="GET /api/payments"} 1`)
	assert.Contains(t, out, `paytrack_payment_mutations_total{operation="create"} 1`)
}

func TestPanicRecovery(t *testing.T) {
	srv := newTestServer(t, store.MissingWarn)
	h := srv.route("GET /boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "internal error")
}
