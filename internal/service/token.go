package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pribylovaa/tokenauth/internal/models"
	"github.com/pribylovaa/tokenauth/internal/pkg/log"
	"github.com/pribylovaa/tokenauth/internal/refresh"

	"github.com/google/uuid"
)

// mintAccess выпускает access-токен для пользователя.
func (s *Service) mintAccess(ctx context.Context, userID uuid.UUID, role string) (*models.AccessToken, error) {
	const op = "service.token.mintAccess"

	signed, exp, err := s.tokens.Mint(userID.String(), role)
	if err != nil {
		log.From(ctx).Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AccessToken{Token: signed, ExpiresAt: exp.UTC()}, nil
}

// openSession выпускает и сохраняет refresh-токен. Коллизия ключа
// не перезаписывает чужую сессию: генерируем токен заново.
func (s *Service) openSession(ctx context.Context, userID uuid.UUID) (string, error) {
	const (
		op          = "service.token.openSession"
		maxAttempts = 5
	)

	lg := log.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		plain, err := s.refresh.Issue()
		if err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		if err := s.refresh.Persist(ctx, plain, userID); err != nil {
			if errors.Is(err, refresh.ErrCollision) {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			lg.Error("refresh_store_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w: %w", op, ErrDatabaseOperation, err)
		}

		return plain, nil
	}

	lg.Error("refresh_collision_exhausted",
		slog.String("op", op),
		slog.Int("attempts", maxAttempts),
	)
	return "", fmt.Errorf("%s: %w: %w", op, ErrDatabaseOperation, refresh.ErrCollision)
}
