// refresh выпускает непрозрачные refresh-токены и хранит соответствие
// токен -> пользователь в key-value хранилище с TTL.
package refresh

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/tokenauth/internal/storage"

	"github.com/google/uuid"
)

const (
	// tokenBytes — энтропия токена (256 бит, 43 символа base64url).
	tokenBytes = 32
	// DefaultKeyPrefix — префикс ключей сессий.
	DefaultKeyPrefix = "refresh:"
	// DefaultTTL — время жизни записи (14 дней).
	DefaultTTL = 14 * 24 * time.Hour
)

var (
	// ErrCollision — ключ с таким токеном уже существует; запись не изменена.
	ErrCollision = errors.New("refresh token collision")
	// ErrEmptyToken — попытка сохранить пустой токен.
	ErrEmptyToken = errors.New("empty refresh token")
)

// Store — хранилище refresh-токенов.
type Store struct {
	kv     storage.KeyValue
	prefix string
	ttl    time.Duration
}

// NewStore создаёт хранилище поверх kv. Пустой prefix и ttl <= 0
// заменяются значениями по умолчанию.
func NewStore(kv storage.KeyValue, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Store{kv: kv, prefix: prefix, ttl: ttl}
}

// TTL возвращает время жизни записи.
func (s *Store) TTL() time.Duration { return s.ttl }

func (s *Store) key(token string) string { return s.prefix + token }

// Issue генерирует новый токен. Ничего не сохраняет.
func (s *Store) Issue() (string, error) {
	const op = "refresh.Issue"

	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Persist сохраняет token -> userID на TTL, только если такого ключа ещё нет.
// При коллизии существующая запись не трогается и возвращается ErrCollision.
func (s *Store) Persist(ctx context.Context, token string, userID uuid.UUID) error {
	const op = "refresh.Persist"

	if token == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyToken)
	}

	ok, err := s.kv.SetIfAbsent(ctx, s.key(token), userID.String(), s.ttl)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return fmt.Errorf("%s: %w", op, ErrCollision)
	}

	return nil
}

// Resolve возвращает владельца токена. found=false для удалённых,
// истёкших, никогда не выданных и пустых токенов.
func (s *Store) Resolve(ctx context.Context, token string) (uuid.UUID, bool, error) {
	const op = "refresh.Resolve"

	if token == "" {
		return uuid.Nil, false, nil
	}

	v, found, err := s.kv.Get(ctx, s.key(token))
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return uuid.Nil, false, nil
	}

	// Испорченное значение — то же, что отсутствие сессии.
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, false, nil
	}

	return id, true, nil
}

// Revoke удаляет токен. Повторный вызов не ошибка.
func (s *Store) Revoke(ctx context.Context, token string) error {
	const op = "refresh.Revoke"

	if token == "" {
		return nil
	}

	if err := s.kv.Delete(ctx, s.key(token)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
