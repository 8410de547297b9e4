package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pribylovaa/tokenauth/internal/service"

	"github.com/stretchr/testify/require"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	wrap := func(err error) error { return fmt.Errorf("service.auth.Op: %w", err) }

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"nil", nil, http.StatusInternalServerError, "internal"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
		{"validation", wrap(service.ErrValidation), http.StatusBadRequest, "invalid_argument"},
		{"bad_body", ErrInvalidArgument, http.StatusBadRequest, "invalid_argument"},
		{"credentials", wrap(service.ErrInvalidCredentials), http.StatusUnauthorized, "invalid_credentials"},
		{"auth_required", wrap(service.ErrAuthenticationRequired), http.StatusUnauthorized, "authentication_required"},
		{"expired", wrap(service.ErrTokenExpired), http.StatusUnauthorized, "token_expired"},
		{"invalid", wrap(service.ErrTokenInvalid), http.StatusUnauthorized, "token_invalid"},
		{"exists", wrap(service.ErrUserAlreadyExists), http.StatusConflict, "already_exists"},
		{"session_store", fmt.Errorf("x: %w: %w", service.ErrDatabaseOperation, errors.New("redis down")), http.StatusInternalServerError, "internal"},
		{"database", wrap(service.ErrDatabaseOperation), http.StatusInternalServerError, "internal"},
		{"deadline", fmt.Errorf("x: %w: %w", service.ErrDatabaseOperation, context.DeadlineExceeded), http.StatusGatewayTimeout, "deadline_exceeded"},
		{"canceled", wrap(context.Canceled), StatusClientClosedRequest, "canceled"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			status, resp := ToHTTP(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.code, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
			require.Equal(t, tc.status, Status(tc.err))
		})
	}
}

// TestToHTTP_DoesNotLeakDetails — текст исходной ошибки не попадает в ответ.
func TestToHTTP_DoesNotLeakDetails(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("x: %w: %w", service.ErrDatabaseOperation, errors.New("pq: password=hunter2"))
	_, resp := ToHTTP(err)
	require.NotContains(t, resp.Error.Message, "hunter2")
}

func TestWriteError_WritesEnvelope(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	rr := httptest.NewRecorder()

	WriteError(rr, req, service.ErrInvalidCredentials)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "invalid_credentials", body.Error.Code)
	require.Equal(t, "rid-1", body.Error.RequestID)
}

func TestWriteError_NoRequestID(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodPost, "/auth/register", nil), service.ErrUserAlreadyExists)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Empty(t, rr.Header().Get("WWW-Authenticate"))

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	_, has := raw["error"]["request_id"]
	require.False(t, has)
}
