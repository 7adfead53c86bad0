// Package auth проверяет подписанные bearer-токены и права ролей.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	// ErrMissingToken: запрос пришёл без токена.
	ErrMissingToken = errors.New("auth: missing token")
	// ErrInvalidToken: токен повреждён или подпись не сходится.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Identity: проверенный владелец токена.
type Identity struct {
	UserID string
	Role   Role
}

// Signer выпускает и проверяет токены вида <userID>.<role>.<подпись>,
// подпись: HMAC-SHA256 от "<userID>.<role>" в base64 без паддинга.
type Signer struct {
	secret []byte
}

// NewSigner создаёт Signer с общим секретом.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Issue выпускает токен для пользователя с ролью.
func (s *Signer) Issue(userID string, role Role) (string, error) {
	if userID == "" || strings.Contains(userID, ".") || role == "" || strings.Contains(string(role), ".") {
		return "", ErrInvalidToken
	}
	payload := userID + "." + string(role)
	return payload + "." + s.sign(payload), nil
}

// Parse проверяет подпись и возвращает владельца токена.
func (s *Signer) Parse(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Identity{}, ErrInvalidToken
	}

	expected := s.sign(parts[0] + "." + parts[1])
	if !hmac.Equal([]byte(parts[2]), []byte(expected)) {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: parts[0], Role: Role(parts[1])}, nil
}

func (s *Signer) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// BearerToken извлекает токен из значения заголовка Authorization.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, "Bearer") {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
