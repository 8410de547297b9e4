package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pribylovaa/tokenauth/internal/config"
	"github.com/pribylovaa/tokenauth/internal/metrics"
	"github.com/pribylovaa/tokenauth/internal/models"
	"github.com/pribylovaa/tokenauth/internal/service"
	"github.com/pribylovaa/tokenauth/internal/token"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// stubService — управляемая реализация AuthService.
type stubService struct {
	loginRes    *models.LoginResult
	loginErr    error
	registerID  uuid.UUID
	registerErr error
	gotReg      models.Registration
	refreshRes  *models.AccessToken
	refreshErr  error
	gotRefresh  string
	loggedOut   []string
}

func (s *stubService) Login(_ context.Context, _, _ string) (*models.LoginResult, error) {
	return s.loginRes, s.loginErr
}

func (s *stubService) Register(_ context.Context, reg models.Registration) (uuid.UUID, error) {
	s.gotReg = reg
	return s.registerID, s.registerErr
}

func (s *stubService) Refresh(_ context.Context, rt string) (*models.AccessToken, error) {
	s.gotRefresh = rt
	return s.refreshRes, s.refreshErr
}

func (s *stubService) Logout(_ context.Context, rt string) {
	s.loggedOut = append(s.loggedOut, rt)
}

func (s *stubService) Authenticate(context.Context, string) (*token.Claims, error) {
	return nil, service.ErrTokenInvalid
}

const refreshTTL = 14 * 24 * time.Hour

func newHandlers(svc AuthService) *Handlers {
	return New(svc, config.CookieConfig{}, refreshTTL, metrics.New(prometheus.NewRegistry()))
}

func post(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error.Code
}

func TestRegister_Created(t *testing.T) {
	id := uuid.New()
	svc := &stubService{registerID: id}
	h := newHandlers(svc)

	rr := httptest.NewRecorder()
	h.Register(rr, post("/auth/register",
		`{"email":"a@x.com","password":"Secret1","first_name":"Ada","last_name":"L","phone":"1","street":"s","city":"c","state":"st","zip_code":"z"}`))

	require.Equal(t, http.StatusCreated, rr.Code)

	var out RegisterResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.True(t, out.Created)
	require.Equal(t, id.String(), out.UserID)

	require.Equal(t, "a@x.com", svc.gotReg.Email)
	require.Equal(t, "Ada", svc.gotReg.Profile.FirstName)
	require.Equal(t, "z", svc.gotReg.Profile.ZipCode)
}

func TestRegister_BadBody(t *testing.T) {
	h := newHandlers(&stubService{})

	for _, body := range []string{`{`, `{"email":"a@x.com","unknown":1}`, ``} {
		rr := httptest.NewRecorder()
		h.Register(rr, post("/auth/register", body))
		require.Equal(t, http.StatusBadRequest, rr.Code, body)
		require.Equal(t, "invalid_argument", errorCode(t, rr))
	}
}

func TestRegister_ErrorMapping(t *testing.T) {
	cases := map[error]int{
		service.ErrValidation:        http.StatusBadRequest,
		service.ErrUserAlreadyExists: http.StatusConflict,
		service.ErrDatabaseOperation: http.StatusInternalServerError,
	}

	for err, status := range cases {
		h := newHandlers(&stubService{registerErr: fmt.Errorf("op: %w", err)})
		rr := httptest.NewRecorder()
		h.Register(rr, post("/auth/register", `{"email":"a@x.com","password":"p"}`))
		require.Equal(t, status, rr.Code, err.Error())
	}
}

func TestLogin_SetsCookieAndBody(t *testing.T) {
	exp := time.Date(2026, 1, 1, 12, 15, 0, 0, time.UTC)
	svc := &stubService{loginRes: &models.LoginResult{
		UserID:       "u-1",
		Access:       models.AccessToken{Token: "jwt", ExpiresAt: exp},
		RefreshToken: "rt-secret",
		Role:         "client",
		Profile:      models.Profile{FirstName: "Ada", LastName: "Lovelace"},
	}}
	h := newHandlers(svc)

	rr := httptest.NewRecorder()
	h.Login(rr, post("/auth/login", `{"email":"a@x.com","password":"Secret1"}`))
	require.Equal(t, http.StatusOK, rr.Code)

	var out LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "jwt", out.AccessToken)
	require.Equal(t, "bearer", out.TokenType)
	require.True(t, exp.Equal(out.ExpiresAt))
	require.Equal(t, "client", out.Role)
	require.Equal(t, "Ada", out.FirstName)
	require.Equal(t, "Lovelace", out.LastName)
	require.Equal(t, "logged in", out.Status)

	// Refresh-токен только в cookie.
	require.NotContains(t, rr.Body.String(), "rt-secret")

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	require.Equal(t, "refresh_token", c.Name)
	require.Equal(t, "rt-secret", c.Value)
	require.Equal(t, "/auth", c.Path)
	require.Equal(t, int(refreshTTL/time.Second), c.MaxAge)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, http.SameSiteStrictMode, c.SameSite)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHandlers(&stubService{loginErr: fmt.Errorf("op: %w", service.ErrInvalidCredentials)})

	rr := httptest.NewRecorder()
	h.Login(rr, post("/auth/login", `{"email":"a@x.com","password":"bad"}`))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "invalid_credentials", errorCode(t, rr))
	require.Empty(t, rr.Result().Cookies())
}

func TestLogin_SessionStoreDown(t *testing.T) {
	h := newHandlers(&stubService{loginErr: fmt.Errorf("op: %w: %w", service.ErrDatabaseOperation, errors.New("dial tcp"))})

	rr := httptest.NewRecorder()
	h.Login(rr, post("/auth/login", `{"email":"a@x.com","password":"p"}`))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "internal", errorCode(t, rr))
}

func TestRefresh_ReadsCookie(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).UTC()
	svc := &stubService{refreshRes: &models.AccessToken{Token: "jwt2", ExpiresAt: exp}}
	h := newHandlers(svc)

	req := post("/auth/refresh", "")
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "rt-1"})
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "rt-1", svc.gotRefresh)

	var out RefreshResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Equal(t, "jwt2", out.AccessToken)
	require.Equal(t, "bearer", out.TokenType)
}

func TestRefresh_NoCookie(t *testing.T) {
	svc := &stubService{refreshErr: service.ErrAuthenticationRequired}
	h := newHandlers(svc)

	rr := httptest.NewRecorder()
	h.Refresh(rr, post("/auth/refresh", ""))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "authentication_required", errorCode(t, rr))
	require.Empty(t, svc.gotRefresh)
}

func TestLogout_WithCookie(t *testing.T) {
	svc := &stubService{}
	h := newHandlers(svc)

	req := post("/auth/logout", "")
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "rt-1"})
	rr := httptest.NewRecorder()
	h.Logout(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, []string{"rt-1"}, svc.loggedOut)
	require.JSONEq(t, `{"status":"logged out"}`, rr.Body.String())

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "refresh_token", cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Less(t, cookies[0].MaxAge, 0)
}

func TestLogout_WithoutCookie(t *testing.T) {
	svc := &stubService{}
	h := newHandlers(svc)

	rr := httptest.NewRecorder()
	h.Logout(rr, post("/auth/logout", ""))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, svc.loggedOut)
	require.Empty(t, rr.Result().Cookies())
}

func TestMe_WithoutClaims(t *testing.T) {
	h := newHandlers(&stubService{})

	rr := httptest.NewRecorder()
	h.Me(rr, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestNew_CustomCookie(t *testing.T) {
	svc := &stubService{loginRes: &models.LoginResult{RefreshToken: "rt"}}
	h := New(svc, config.CookieConfig{Name: "rt", Path: "/api/auth", Domain: "example.com"}, time.Hour, nil)

	rr := httptest.NewRecorder()
	h.Login(rr, post("/auth/login", `{"email":"a@x.com","password":"p"}`))

	c := rr.Result().Cookies()[0]
	require.Equal(t, "rt", c.Name)
	require.Equal(t, "/api/auth", c.Path)
	require.Equal(t, "example.com", c.Domain)
	require.Equal(t, 3600, c.MaxAge)
}
