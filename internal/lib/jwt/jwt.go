package jwt

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingUserIDClaim = errors.New("uid missing in token")
)

type Parser struct {
	Secret string
}

func New(secret string) *Parser {
	return &Parser{
		Secret: secret,
	}
}

// * ParseToken извлекает userID из JWT токена
func (p *Parser) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(p.Secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	// * uid может прийти и числом, и строкой в зависимости от издателя
	switch uid := claims["uid"].(type) {
	case string:
		if uid == "" {
			return "", ErrMissingUserIDClaim
		}
		return uid, nil
	case float64:
		return fmt.Sprintf("%.0f", uid), nil
	default:
		return "", ErrMissingUserIDClaim
	}
}
