// service содержит бизнес-логику аутентификации: регистрацию, вход по
// email+пароль, обновление access-токена по refresh-токену, выход и
// проверку access-токена для защищённых эндпоинтов.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования при потокобезопасных зависимостях.
//   - Ошибки возвращаются как sentinel-значения ниже и маппятся
//     транспортом на HTTP-статусы (см. комментарии к переменным).
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/tokenauth/internal/hasher"
	"github.com/pribylovaa/tokenauth/internal/refresh"
	"github.com/pribylovaa/tokenauth/internal/storage"
	"github.com/pribylovaa/tokenauth/internal/token"
)

var (
	// ErrInvalidCredentials — пользователь не найден или пароль неверен.
	// Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserAlreadyExists — email уже зарегистрирован.
	// Транспорт: HTTP 409.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrAuthenticationRequired — refresh-токен отсутствует, неизвестен,
	// истёк или пользователь пропал. Транспорт: HTTP 401.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrDatabaseOperation — сбой хранилища пользователей (Postgres) или
	// сессий (Redis). Транспорт: HTTP 500 без деталей.
	ErrDatabaseOperation = errors.New("database operation failed")

	// ErrValidation — некорректные входные данные регистрации.
	// Транспорт: HTTP 400.
	ErrValidation = errors.New("validation failed")

	// ErrTokenExpired — подпись access-токена верна, но срок истёк.
	// Транспорт: HTTP 401 (token_expired).
	ErrTokenExpired = token.ErrTokenExpired

	// ErrTokenInvalid — access-токен подделан, повреждён или не того типа.
	// Транспорт: HTTP 401 (token_invalid).
	ErrTokenInvalid = token.ErrTokenInvalid
)

// dummyPassword хэшируется один раз при старте; с этим дайджестом
// сверяется пароль, когда email не найден.
const dummyPassword = "tokenauth-dummy-password"

// Service описывает бизнес-логику аутентификации.
type Service struct {
	users   storage.UserStorage
	hasher  *hasher.Hasher
	tokens  *token.Codec
	refresh *refresh.Store
	now     func() time.Time

	dummyDigest string
}

// New создаёт новый экземпляр Service.
// Без дайджеста-пустышки вход по неизвестному email стал бы заметно быстрее,
// поэтому сбой его вычисления останавливает старт.
func New(users storage.UserStorage, h *hasher.Hasher, tokens *token.Codec, rs *refresh.Store) (*Service, error) {
	const op = "service.New"

	dummy, err := h.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Service{
		users:       users,
		hasher:      h,
		tokens:      tokens,
		refresh:     rs,
		now:         time.Now,
		dummyDigest: dummy,
	}, nil
}
