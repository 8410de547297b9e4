package models

import (
	"time"

	"github.com/google/uuid"
)

// RoleClient — роль, назначаемая при самостоятельной регистрации.
const RoleClient = "client"

// Profile — профильные поля пользователя. Сервис их не интерпретирует,
// только сохраняет и отдаёт обратно.
type Profile struct {
	FirstName string
	LastName  string
	Phone     string
	Street    string
	City      string
	State     string
	ZipCode   string
}

// User - модель пользователя в системе.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
	Profile      Profile
	CreatedAt    time.Time
}

// Registration — входные данные регистрации.
type Registration struct {
	Email    string
	Password string
	Profile  Profile
}
