package session

import (
	"errors"
	"fmt"
	"time"

	"listTracker/internal/models/list"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoToken      = errors.New("нет токена сессии")
	ErrInvalidToken = errors.New("недействительный токен сессии")
)

const DefaultTTL = 24 * time.Hour

type claims struct {
	Username string     `json:"username"`
	Color    list.Color `json:"color,omitempty"`
	jwt.RegisteredClaims
}

// Manager выпускает и проверяет токены сессии, подписанные HS256.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("пустой секрет сессии")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (m *Manager) Issue(user list.User) (string, error) {
	if user.ID == uuid.Nil {
		return "", errors.New("пустой id пользователя")
	}
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: user.Username,
		Color:    user.Color,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}
	return signed, nil
}

func (m *Manager) Parse(raw string) (list.User, error) {
	if raw == "" {
		return list.User{}, ErrNoToken
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return list.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return list.User{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return list.User{ID: id, Username: c.Username, Color: c.Color}, nil
}
