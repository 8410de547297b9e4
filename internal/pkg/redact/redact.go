// redact маскирует чувствительные данные перед записью в лог:
// e-mail (оставляем домен) и токены (оставляем короткий отпечаток,
// по которому можно сопоставить записи, не раскрывая сам секрет).
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать ровно один '@', иначе возвращается "***";
//   - от локальной части остаются первые две руны + "***";
//   - если локальная часть не длиннее двух рун — "***@<domain>";
//   - домен возвращается без изменений.
//
// Примеры:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает отпечаток токена: первые 8 hex-символов sha256.
// Пустой токен отображается как "[EMPTY_TOKEN]".
func Token(s string) string {
	if s == "" {
		return "[EMPTY_TOKEN]"
	}

	sum := sha256.Sum256([]byte(s))
	return "tok:" + hex.EncodeToString(sum[:4])
}
