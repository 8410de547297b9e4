package handlers

import (
	"net/http"

	"github.com/pribylovaa/tokenauth/internal/transport/http/apierrors"
	"github.com/pribylovaa/tokenauth/internal/transport/http/middleware"
)

// Register — POST /auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in RegisterRequest
	if err := decodeStrict(r, &in); err != nil {
		h.observe("register", apierrors.ErrInvalidArgument)
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	id, err := h.svc.Register(r.Context(), in.ToModel())
	h.observe("register", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{Created: true, UserID: id.String()})
}

// Login — POST /auth/login. Access-токен уходит в теле, refresh — в cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		h.observe("login", apierrors.ErrInvalidArgument)
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	res, err := h.svc.Login(r.Context(), in.Email, in.Password)
	h.observe("login", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, res.RefreshToken)
	writeJSON(w, http.StatusOK, LoginFromModel(res))
}

// Refresh — POST /auth/refresh по refresh-cookie.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.svc.Refresh(r.Context(), h.refreshFromCookie(r))
	h.observe("refresh", err)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{
		AccessToken: access.Token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   access.ExpiresAt,
	})
}

// Logout — POST /auth/logout. Всегда 200; cookie очищается, если была.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if rt := h.refreshFromCookie(r); rt != "" {
		h.svc.Logout(r.Context(), rt)
		h.clearRefreshCookie(w)
	}
	h.observe("logout", nil)

	writeJSON(w, http.StatusOK, StatusResponse{Status: "logged out"})
}

// Me — GET /me за RequireAccessToken.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		// Маршрут смонтирован без RequireAccessToken.
		apierrors.WriteError(w, r, nil)
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{UserID: claims.SubjectID, Role: claims.Role})
}
