package handlers

import (
	"time"

	"github.com/pribylovaa/tokenauth/internal/models"
)

const tokenTypeBearer = "bearer"

// RegisterRequest — тело POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
}

// ToModel переводит запрос в доменную модель.
func (r RegisterRequest) ToModel() models.Registration {
	return models.Registration{
		Email:    r.Email,
		Password: r.Password,
		Profile: models.Profile{
			FirstName: r.FirstName,
			LastName:  r.LastName,
			Phone:     r.Phone,
			Street:    r.Street,
			City:      r.City,
			State:     r.State,
			ZipCode:   r.ZipCode,
		},
	}
}

// RegisterResponse — ответ на успешную регистрацию.
type RegisterResponse struct {
	Created bool   `json:"created"`
	UserID  string `json:"user_id"`
}

// LoginRequest — тело POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse — ответ на успешный вход. Refresh-токен в тело не попадает.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        string    `json:"role"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Status      string    `json:"status"`
}

// LoginFromModel собирает ответ из результата сервиса.
func LoginFromModel(res *models.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: res.Access.Token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   res.Access.ExpiresAt,
		Role:        res.Role,
		FirstName:   res.Profile.FirstName,
		LastName:    res.Profile.LastName,
		Status:      "logged in",
	}
}

// RefreshResponse — ответ POST /auth/refresh.
type RefreshResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// StatusResponse — простой ответ со статусом.
type StatusResponse struct {
	Status string `json:"status"`
}

// MeResponse — ответ GET /me.
type MeResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
