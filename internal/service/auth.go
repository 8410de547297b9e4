package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/pribylovaa/tokenauth/internal/models"
	"github.com/pribylovaa/tokenauth/internal/pkg/log"
	"github.com/pribylovaa/tokenauth/internal/pkg/redact"
	"github.com/pribylovaa/tokenauth/internal/storage"
	"github.com/pribylovaa/tokenauth/internal/token"

	"github.com/google/uuid"
)

// Login выполняет вход по email+пароль и открывает сессию.
//
// Неизвестный email и неверный пароль неразличимы для вызывающего:
// оба дают ErrInvalidCredentials, и в обоих случаях выполняется проверка argon2.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	const op = "service.auth.Login"

	lg := log.From(ctx).With(slog.String("op", op), slog.String("email", redact.Email(email)))

	if email == "" || password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyDigest)
			lg.Info("login_failed", slog.String("reason", "unknown_email"))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		lg.Error("user_lookup_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDatabaseOperation, err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		lg.Info("login_failed", slog.String("reason", "bad_password"))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	role := user.Role
	if role == "" {
		role = models.RoleClient
	}

	access, err := s.mintAccess(ctx, user.ID, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.openSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("login_succeeded",
		slog.String("user_id", user.ID.String()),
		slog.String("refresh", redact.Token(refreshToken)),
	)

	return &models.LoginResult{
		UserID:       user.ID.String(),
		Access:       *access,
		RefreshToken: refreshToken,
		Role:         role,
		Profile:      user.Profile,
	}, nil
}

// Register создаёт пользователя с ролью client. Пароль хэшируется до
// обращения к хранилищу; открытый пароль дальше сервиса не уходит.
func (s *Service) Register(ctx context.Context, reg models.Registration) (uuid.UUID, error) {
	const op = "service.auth.Register"

	lg := log.From(ctx).With(slog.String("op", op), slog.String("email", redact.Email(reg.Email)))

	if err := validateEmail(reg.Email); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if reg.Password == "" {
		return uuid.Nil, fmt.Errorf("%s: %w: password is empty", op, ErrValidation)
	}

	digest, err := s.hasher.Hash(reg.Password)
	if err != nil {
		lg.Error("password_hash_failed", slog.String("err", err.Error()))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        reg.Email,
		PasswordHash: digest,
		Role:         models.RoleClient,
		Profile:      reg.Profile,
		CreatedAt:    s.now().UTC(),
	}

	id, err := s.users.InsertUserIfAbsent(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			lg.Info("register_conflict")
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUserAlreadyExists)
		}

		lg.Error("user_insert_failed", slog.String("err", err.Error()))
		return uuid.Nil, fmt.Errorf("%s: %w: %w", op, ErrDatabaseOperation, err)
	}

	lg.Info("user_registered", slog.String("user_id", id.String()))

	return id, nil
}

// Refresh выпускает новый access-токен по refresh-токену.
// Роль перечитывается из хранилища пользователей. Refresh-токен не ротируется.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.AccessToken, error) {
	const op = "service.auth.Refresh"

	lg := log.From(ctx).With(slog.String("op", op), slog.String("refresh", redact.Token(refreshToken)))

	if refreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrAuthenticationRequired)
	}

	userID, found, err := s.refresh.Resolve(ctx, refreshToken)
	if err != nil {
		lg.Error("refresh_lookup_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDatabaseOperation, err)
	}
	if !found {
		lg.Info("refresh_unknown")
		return nil, fmt.Errorf("%s: %w", op, ErrAuthenticationRequired)
	}

	role, err := s.users.RoleByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_user_missing", slog.String("user_id", userID.String()))
			return nil, fmt.Errorf("%s: %w", op, ErrAuthenticationRequired)
		}

		lg.Error("role_lookup_failed", slog.String("err", err.Error()))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDatabaseOperation, err)
	}
	if role == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrAuthenticationRequired)
	}

	access, err := s.mintAccess(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return access, nil
}

// Logout закрывает сессию. Для вызывающего всегда успешен: пустой или
// неизвестный токен игнорируется, сбой хранилища только логируется.
func (s *Service) Logout(ctx context.Context, refreshToken string) {
	const op = "service.auth.Logout"

	if refreshToken == "" {
		return
	}

	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		log.From(ctx).Error("refresh_revoke_failed",
			slog.String("op", op),
			slog.String("refresh", redact.Token(refreshToken)),
			slog.String("err", err.Error()),
		)
	}
}

// Authenticate проверяет access-токен защищённого запроса.
// Возвращает ErrTokenExpired или ErrTokenInvalid.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*token.Claims, error) {
	const op = "service.auth.Authenticate"

	claims, err := s.tokens.Validate(accessToken)
	if err != nil {
		log.From(ctx).Debug("access_token_rejected",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return claims, nil
}

// validateEmail принимает только «голый» адрес вида local@domain.
// Регистр сохраняется: email сравнивается как есть.
func validateEmail(email string) error {
	const op = "service.auth.validateEmail"

	if email == "" {
		return fmt.Errorf("%s: %w: email is empty", op, ErrValidation)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%s: %w: malformed email", op, ErrValidation)
	}

	return nil
}
