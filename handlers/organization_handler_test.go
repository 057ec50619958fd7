package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/notes-app/middleware"
	"github.com/Dosada05/notes-app/session"
	"github.com/Dosada05/notes-app/validator"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrgRouter(svc *fakeOrgService) http.Handler {
	h := NewOrganizationHandler(svc, cookieStores(), time.Hour)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testIssuer))
	r.Post("/api/organizations", h.Create)
	r.Get("/api/organizations/{orgID}", h.Get)
	r.Post("/api/organizations/{orgID}/select", h.Select)
	r.Post("/api/organizations/{orgID}/members", h.AddMember)
	r.Delete("/api/organizations/{orgID}/members/{userID}", h.RemoveMember)
	return r
}

func TestOrganizationHandler_AddMemberValidation(t *testing.T) {
	svc := &fakeOrgService{members: map[int]bool{1: true}}
	router := newOrgRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/organizations/5/members",
		strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	bearer(t, req, 1)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error map[string][]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{validator.MsgInvalidEmail}, body.Error["email"])
	assert.Equal(t, []string{validator.MsgPasswordTooShort, validator.MsgPasswordComplexity}, body.Error["password"])
	assert.Empty(t, svc.added)
}

func TestOrganizationHandler_AddMember(t *testing.T) {
	svc := &fakeOrgService{members: map[int]bool{1: true}}
	router := newOrgRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/organizations/5/members",
		strings.NewReader(`{"email":"new@example.com","password":"Abcdef12"}`))
	bearer(t, req, 1)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, svc.added, 1)
	assert.Equal(t, "new@example.com", svc.added[0].Email)
}

func TestOrganizationHandler_Select(t *testing.T) {
	svc := &fakeOrgService{members: map[int]bool{1: true}}
	router := newOrgRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/organizations/5/select", nil)
	bearer(t, req, 1)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	c := responseCookies(rec)[session.OrganizationIDKey]
	require.NotNil(t, c)
	assert.Equal(t, "5", c.Value)
	assert.Equal(t, 3600, c.MaxAge)
	assert.False(t, c.HttpOnly, "frontend reads organization_id from document.cookie")

	req = httptest.NewRequest(http.MethodPost, "/api/organizations/5/select", nil)
	bearer(t, req, 2)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestOrganizationHandler_ErrorMapping(t *testing.T) {
	router := newOrgRouter(&fakeOrgService{members: map[int]bool{1: true}})

	tests := []struct {
		name   string
		method string
		path   string
		userID int
		status int
	}{
		{"unauthenticated", http.MethodGet, "/api/organizations/5", 0, http.StatusUnauthorized},
		{"bad id", http.MethodGet, "/api/organizations/abc", 1, http.StatusBadRequest},
		{"not a member", http.MethodGet, "/api/organizations/5", 2, http.StatusForbidden},
		{"member", http.MethodGet, "/api/organizations/5", 1, http.StatusOK},
		{"remove owner", http.MethodDelete, "/api/organizations/5/members/1", 1, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.userID != 0 {
				bearer(t, req, tt.userID)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
