// postgres реализует storage.UserStorage поверх pgxpool.
package postgres

import (
	"context"
	"fmt"

	"github.com/pribylovaa/tokenauth/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage — хранилище учётных записей в PostgreSQL.
type Storage struct {
	db *pgxpool.Pool
}

// Option настраивает пул до подключения.
type Option func(*pgxpool.Config)

// WithMaxConns ограничивает размер пула. n <= 0 оставляет значение pgxpool.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// New открывает пул и проверяет доступность базы.
// Пул закрывается, если первый Ping не прошёл.
func New(ctx context.Context, dbURL string, opts ...Option) (*Storage, error) {
	const op = "storage.postgres.New"

	cfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// Ping — readiness-проверка для health.
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Storage) Close() {
	s.db.Close()
}

var _ storage.UserStorage = (*Storage)(nil)
