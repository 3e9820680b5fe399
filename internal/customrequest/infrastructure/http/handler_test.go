package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/internal/auth"
	"github.com/dmehra2102/storefront/internal/customrequest/application"
	"github.com/dmehra2102/storefront/internal/customrequest/domain"
	"github.com/dmehra2102/storefront/pkg/filestore"
	"github.com/dmehra2102/storefront/pkg/logging"
)

type memRepo struct{ saved []domain.CustomRequest }

func (m *memRepo) Insert(_ context.Context, c domain.CustomRequest) (domain.CustomRequest, error) {
	c.ID = int64(len(m.saved) + 1)
	c.SubmittedAt = time.Now().UTC()
	m.saved = append(m.saved, c)
	return c, nil
}

func (m *memRepo) List(context.Context, int) ([]domain.CustomRequest, error) {
	return m.saved, nil
}

func newRouter(t *testing.T) (http.Handler, *auth.Verifier) {
	t.Helper()
	log := logging.Discard()
	files, err := filestore.NewLocal(log, t.TempDir())
	require.NoError(t, err)
	h := NewHandler(log, application.NewService(log, &memRepo{}, files))
	v := auth.NewVerifier("test-secret")

	r := chi.NewRouter()
	r.Use(auth.Authenticate(log, v))
	r.Mount("/custom-requests", h.Routes())
	r.Mount("/admin/custom-requests", h.AdminRoutes())
	return r, v
}

func TestSubmitAndList(t *testing.T) {
	router, v := newRouter(t)

	form := url.Values{
		"name":             {"Mina"},
		"phone_number":     {"9811111111"},
		"idea_description": {"A bouquet in lilac"},
	}
	req := httptest.NewRequest(http.MethodPost, "/custom-requests", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Mina"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/custom-requests", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := v.Issue("owner", true, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin/custom-requests", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A bouquet in lilac")
}

func TestSubmitMissingFields(t *testing.T) {
	router, _ := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/custom-requests", strings.NewReader("name=Mina"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "idea_description")
}
