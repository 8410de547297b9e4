package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/tokenauth/internal/models"
	"github.com/pribylovaa/tokenauth/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// InsertUserIfAbsent создает пользователя, если email ещё не занят.
// Проверка и вставка выполняются одним запросом, поэтому два параллельных
// вызова с одним email не могут создать две записи.
func (s *Storage) InsertUserIfAbsent(ctx context.Context, user *models.User) (uuid.UUID, error) {
	const op = "storage.postgres.InsertUserIfAbsent"

	query := `
		INSERT INTO users(id, email, password_hash, role,
			first_name, last_name, phone, street, city, state, zip_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`

	var id uuid.UUID
	err := s.db.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Profile.FirstName,
		user.Profile.LastName,
		user.Profile.Phone,
		user.Profile.Street,
		user.Profile.City,
		user.Profile.State,
		user.Profile.ZipCode,
		user.CreatedAt,
	).Scan(&id)

	if err != nil {
		// ON CONFLICT DO NOTHING не возвращает строк.
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UserByEmail находит пользователя по email.
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	query := `
		SELECT id, email, password_hash, role,
			first_name, last_name, phone, street, city, state, zip_code, created_at
		FROM users
		WHERE email = $1
	`

	var user models.User
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Profile.FirstName,
		&user.Profile.LastName,
		&user.Profile.Phone,
		&user.Profile.Street,
		&user.Profile.City,
		&user.Profile.State,
		&user.Profile.ZipCode,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

// RoleByID возвращает роль пользователя по ID.
func (s *Storage) RoleByID(ctx context.Context, id uuid.UUID) (string, error) {
	const op = "storage.postgres.RoleByID"

	var role string
	err := s.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return role, nil
}
