package models

import "time"

// AccessToken — подписанный короткоживущий токен доступа и момент его истечения (UTC).
type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

// LoginResult — результат успешного входа.
//
// Описание:
//   - Access — JWT для заголовка Authorization;
//   - RefreshToken — непрозрачный секрет; транспорт кладёт его только в HttpOnly-cookie
//     и никогда не отдаёт в теле ответа;
//   - Role и Profile — данные пользователя для клиента.
type LoginResult struct {
	UserID       string
	Access       AccessToken
	RefreshToken string
	Role         string
	Profile      Profile
}
