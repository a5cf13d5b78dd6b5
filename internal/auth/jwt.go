package auth

import (
	"errors"
	"time"

	"github.com/geocoder89/labhub/internal/domain/session"
	"github.com/golang-jwt/jwt/v5"
)

const tokenTypeAccess = "access"

type Claims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// Manager signs session rows into bearer tokens. The same session always
// signs to the same token, so a reused session hands back an identical token.
type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (m *Manager) Sign(s session.Session) (string, error) {
	if s.ID == "" || s.UserID == "" {
		return "", errors.New("session id and user id are required")
	}

	claims := Claims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt.UTC().Truncate(time.Second)),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt.UTC().Truncate(time.Second)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, errors.New("invalid token type")
	}

	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("missing token identity")
	}

	return claims, nil
}
