package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/tokenauth/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// UserByEmail находит пользователя по email (точное совпадение).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// InsertUserIfAbsent атомарно создаёт пользователя, если email свободен.
	// При занятом email возвращает ErrAlreadyExists и ничего не меняет.
	InsertUserIfAbsent(ctx context.Context, user *models.User) (uuid.UUID, error)
	// RoleByID возвращает роль пользователя или ErrNotFound.
	RoleByID(ctx context.Context, id uuid.UUID) (string, error)
}

// KeyValue — хранилище строковых значений с TTL (сессии refresh-токенов).
type KeyValue interface {
	// SetIfAbsent записывает значение, только если ключа нет.
	// Возвращает false, если ключ уже существовал.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get возвращает значение и признак наличия ключа.
	Get(ctx context.Context, key string) (string, bool, error)
	// Delete удаляет ключ; отсутствие ключа не ошибка.
	Delete(ctx context.Context, key string) error
}
