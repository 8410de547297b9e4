package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pribylovaa/tokenauth/internal/pkg/log"
	"github.com/pribylovaa/tokenauth/internal/service"
	"github.com/pribylovaa/tokenauth/internal/token"
	"github.com/pribylovaa/tokenauth/internal/transport/http/apierrors"
)

// Authenticator проверяет access-токен.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*token.Claims, error)
}

// RequireAccessToken пропускает запрос дальше только с валидным
// "Authorization: Bearer <jwt>". Проверенные claims кладутся в контекст,
// логгер запроса дополняется user_id.
func RequireAccessToken(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				apierrors.WriteError(w, r, service.ErrAuthenticationRequired)
				return
			}

			claims, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = log.With(ctx, slog.String("user_id", claims.SubjectID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFrom возвращает claims, положенные RequireAccessToken.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*token.Claims)
	return c, ok && c != nil
}

// bearerToken извлекает токен из Authorization. Схема регистронезависима.
func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, tok, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
