// token выпускает и проверяет access-токены: подписанные HS256 JWT
// с идентификатором субъекта, ролью и фиксированным сроком жизни.
//
// Токен нигде не хранится: его валидность целиком определяется подписью
// и сроком действия на момент проверки.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/tokenauth/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TypeAccess — дискриминатор типа токена в claim "type".
const TypeAccess = "access"

var (
	// ErrTokenExpired — подпись верна, но срок действия истёк.
	// Для клиента это сигнал сходить в /auth/refresh. Транспорт: HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid — подпись не сошлась, структура битая, алгоритм/издатель
	// чужие, нет subject или тип не "access". Транспорт: HTTP 401.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenConfiguration — нет ключа подписи или некорректный TTL.
	// Фатально на старте, по запросам не возникает.
	ErrTokenConfiguration = errors.New("token configuration error")
)

// Claims — полезная нагрузка проверенного токена.
type Claims struct {
	SubjectID string
	Role      string
}

type accessClaims struct {
	Role string `json:"role"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// Codec подписывает и проверяет access-токены. После создания неизменяем
// и безопасен для конкурентного использования.
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// Option настраивает Codec.
type Option func(*Codec)

// WithClock подменяет источник текущего времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec создаёт Codec. Пустой секрет или неположительный TTL —
// ErrTokenConfiguration: вызывающий обязан прервать запуск.
func NewCodec(cfg config.AuthConfig, opts ...Option) (*Codec, error) {
	const op = "token.NewCodec"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: %w: signing key is not configured", op, ErrTokenConfiguration)
	}

	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: %w: access token ttl must be positive", op, ErrTokenConfiguration)
	}

	c := &Codec{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.AccessTokenTTL,
		issuer: cfg.Issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// TTL возвращает срок жизни выпускаемых токенов.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Mint выпускает токен для subjectID с ролью role. Каждый токен получает
// собственный jti, так что два токена одного субъекта не совпадают даже
// в пределах одной секунды. Возвращает подписанную строку и момент истечения (UTC).
func (c *Codec) Mint(subjectID, role string) (string, time.Time, error) {
	const op = "token.Mint"

	if subjectID == "" {
		return "", time.Time{}, fmt.Errorf("%s: %w: empty subject", op, ErrTokenInvalid)
	}

	now := c.now().UTC()
	exp := now.Add(c.ttl)

	claims := accessClaims{
		Role: role,
		Type: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// Validate проверяет подпись, срок действия и обязательные claims.
// Истёкший, но в остальном корректный токен даёт ErrTokenExpired;
// всё остальное — ErrTokenInvalid.
func (c *Codec) Validate(tokenStr string) (*Claims, error) {
	const op = "token.Validate"

	if tokenStr == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var claims accessClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		// jwt/v5 проверяет срок только после подписи, так что ErrTokenExpired
		// означает «подлинный, но просроченный». Просроченным считается лишь
		// токен, у которого больше нет других изъянов.
		if onlyExpired(err) && wellFormed(&claims) {
			return nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}

	if !tok.Valid || !wellFormed(&claims) {
		return nil, fmt.Errorf("%s: %w", op, ErrTokenInvalid)
	}

	return &Claims{SubjectID: claims.Subject, Role: claims.Role}, nil
}

// wellFormed — обязательные claims access-токена на месте.
func wellFormed(c *accessClaims) bool {
	return c.Subject != "" && c.Type == TypeAccess
}

// onlyExpired — валидатор jwt/v5 собирает все ошибки claims в одну
// (под ErrTokenInvalidClaims); истина, если среди них только истёкший срок.
func onlyExpired(err error) bool {
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return false
	}

	for _, other := range []error{
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenRequiredClaimMissing,
	} {
		if errors.Is(err, other) {
			return false
		}
	}

	return true
}
