package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/cart/application"
	"github.com/dmehra2102/storefront/internal/catalog/catalogtest"
	"github.com/dmehra2102/storefront/internal/session"
	"github.com/dmehra2102/storefront/pkg/logging"
)

func newRouter() http.Handler {
	repo := catalogtest.NewRepo()
	repo.AddProduct(catalogtest.Product(1, 1, "Rose", "10.00", 5))
	repo.AddProduct(catalogtest.Product(2, 1, "Tulip", "5.00", 5))

	log := logging.Discard()
	store := session.NewMemoryStore(session.DefaultTTL)
	svc := application.NewService(log, store, store, repo)

	r := chi.NewRouter()
	r.Use(session.Middleware(log, store, session.DefaultTTL, false))
	r.Mount("/cart", NewHandler(log, svc).Routes())
	return r
}

func do(t *testing.T, h http.Handler, method, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestCartFlow(t *testing.T) {
	h := newRouter()

	rec := do(t, h, http.MethodPost, "/cart/items/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	rec = do(t, h, http.MethodPost, "/cart/items/1", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"product_id":1,"quantity":2,"count":2}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/cart/items/2", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/cart/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":"25"`)
	assert.Contains(t, rec.Body.String(), `"count":3`)

	rec = do(t, h, http.MethodDelete, "/cart/items/1", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodDelete, "/cart/items/1", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/cart/", cookie)
	assert.Contains(t, rec.Body.String(), `"total":"5"`)
}

func TestAddUnknownProduct(t *testing.T) {
	rec := do(t, newRouter(), http.MethodPost, "/cart/items/77", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartsAreScopedToSession(t *testing.T) {
	h := newRouter()
	first := sessionCookie(t, do(t, h, http.MethodPost, "/cart/items/1", nil))
	second := sessionCookie(t, do(t, h, http.MethodGet, "/cart/", nil))
	require.NotEqual(t, first.Value, second.Value)

	rec := do(t, h, http.MethodGet, "/cart/", second)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}
