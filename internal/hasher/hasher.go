// hasher реализует одностороннее хэширование паролей argon2id и их проверку.
//
// Формат дайджеста (PHC):
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<parallelism>$<salt b64>$<key b64>
//
// Параметры зашиты в сам дайджест, поэтому их смена в конфигурации не ломает
// проверку ранее сохранённых паролей.
package hasher

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pribylovaa/tokenauth/internal/config"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"
	saltLength  = 16
	keyLength   = 32
)

var (
	// ErrValidation — пустой пароль или дайджест на входе.
	// Транспорт: HTTP 400 (регистрация) либо ErrInvalidCredentials (вход).
	ErrValidation = errors.New("password validation failed")

	// errMalformedDigest — дайджест не разбирается; наружу не выходит,
	// Verify трактует его как несовпадение.
	errMalformedDigest = errors.New("malformed digest")
)

// Params — параметры argon2id.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams — значения по умолчанию (64 MiB, 1 проход, 2 потока).
var DefaultParams = Params{Memory: 64 * 1024, Iterations: 1, Parallelism: 2}

// Hasher хэширует и проверяет пароли. Безопасен для конкурентного использования.
type Hasher struct {
	params Params
	random io.Reader
}

// Option настраивает Hasher.
type Option func(*Hasher)

// WithRandom подменяет источник соли (по умолчанию crypto/rand).
func WithRandom(r io.Reader) Option {
	return func(h *Hasher) {
		if r != nil {
			h.random = r
		}
	}
}

// New создаёт Hasher; нулевые поля params заменяются значениями по умолчанию.
func New(params Params, opts ...Option) *Hasher {
	if params.Memory == 0 {
		params.Memory = DefaultParams.Memory
	}
	if params.Iterations == 0 {
		params.Iterations = DefaultParams.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = DefaultParams.Parallelism
	}

	h := &Hasher{params: params, random: rand.Reader}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

// FromConfig строит Hasher по секции password конфигурации.
func FromConfig(cfg config.PasswordConfig) *Hasher {
	return New(Params{
		Memory:      cfg.MemoryKB,
		Iterations:  cfg.Iterations,
		Parallelism: cfg.Parallelism,
	})
}

// Hash возвращает солёный дайджест пароля. Два вызова с одним паролем дают
// разные дайджесты.
func (h *Hasher) Hash(password string) (string, error) {
	const op = "hasher.Hash"

	if password == "" {
		return "", fmt.Errorf("%s: %w: password is empty", op, ErrValidation)
	}

	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, keyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Iterations,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify сравнивает пароль с дайджестом за постоянное время.
// Ошибка возвращается только при пустых входных данных; битый дайджест —
// это просто несовпадение.
func (h *Hasher) Verify(password, digest string) (bool, error) {
	const op = "hasher.Verify"

	if password == "" || digest == "" {
		return false, fmt.Errorf("%s: %w: password and digest must be provided", op, ErrValidation)
	}

	p, salt, key, err := decode(digest)
	if err != nil {
		return false, nil
	}

	computed := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// decode разбирает PHC-строку argon2id.
func decode(digest string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return p, nil, nil, errMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedDigest
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, errMalformedDigest
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return p, nil, nil, errMalformedDigest
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformedDigest
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedDigest
	}

	return p, salt, key, nil
}
