package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pribylovaa/tokenauth/internal/config"
	"github.com/pribylovaa/tokenauth/internal/metrics"
	"github.com/pribylovaa/tokenauth/internal/models"
	"github.com/pribylovaa/tokenauth/internal/token"
	"github.com/pribylovaa/tokenauth/internal/transport/http/apierrors"

	"github.com/google/uuid"
)

// AuthService — операции сервиса, нужные транспорту.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Register(ctx context.Context, reg models.Registration) (uuid.UUID, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AccessToken, error)
	Logout(ctx context.Context, refreshToken string)
	Authenticate(ctx context.Context, accessToken string) (*token.Claims, error)
}

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	svc        AuthService
	cookie     config.CookieConfig
	basePath   string
	refreshTTL time.Duration
	metrics    *metrics.Metrics
}

// New создаёт обработчики. refreshTTL задаёт Max-Age refresh-cookie;
// m может быть nil.
func New(svc AuthService, cookie config.CookieConfig, refreshTTL time.Duration, m *metrics.Metrics) *Handlers {
	if cookie.Name == "" {
		cookie.Name = "refresh_token"
	}
	if cookie.Path == "" {
		cookie.Path = "/auth"
	}

	return &Handlers{
		svc:        svc,
		cookie:     cookie,
		refreshTTL: refreshTTL,
		metrics:    m,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// observe фиксирует исход операции в метриках.
func (h *Handlers) observe(op string, err error) {
	switch {
	case err == nil:
		h.metrics.AuthEvent(op, metrics.ResultSuccess)
	case apierrors.Status(err) < http.StatusInternalServerError:
		h.metrics.AuthEvent(op, metrics.ResultRejected)
	default:
		h.metrics.AuthEvent(op, metrics.ResultError)
	}
}

// SetBasePath сообщает префикс, под которым смонтированы маршруты.
// Path refresh-cookie задаётся относительно него, иначе браузер не пришлёт
// cookie на {base}/auth/refresh. Вызывается роутером.
func (h *Handlers) SetBasePath(base string) {
	h.basePath = strings.TrimSuffix(base, "/")
}

// cookiePath — Path refresh-cookie с учётом префикса.
func (h *Handlers) cookiePath() string {
	return h.basePath + h.cookie.Path
}

// setRefreshCookie кладёт refresh-токен в HttpOnly-cookie.
func (h *Handlers) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     h.cookiePath(),
		Domain:   h.cookie.Domain,
		MaxAge:   int(h.refreshTTL / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie просит клиента удалить refresh-cookie.
func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookiePath(),
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshFromCookie возвращает значение refresh-cookie или "".
func (h *Handlers) refreshFromCookie(r *http.Request) string {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}
