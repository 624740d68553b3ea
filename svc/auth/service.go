package auth

import (
	"context"
	"errors"
	"time"

	"github.com/threew1h/converter/pkg/jwt"
)

// Config holds token issuing and verification settings.
type Config struct {
	SigningKey string        `env:"JWT_SIGNING_KEY,required"`
	TokenTTL   time.Duration `env:"JWT_TOKEN_TTL" envDefault:"720h"`
}

// Service verifies bearer tokens and resolves the calling user.
type Service struct {
	jwt *jwt.Service
	ttl time.Duration
}

// NewService creates an auth service from the configuration.
// Panics if the signing key is empty: the API cannot authenticate without it.
func NewService(cfg Config) *Service {
	svc, err := jwt.NewFromString(cfg.SigningKey)
	if err != nil {
		panic("auth: " + err.Error())
	}
	// Only the unset zero value gets the default; a negative TTL is kept and
	// issues already-expired tokens.
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = 720 * time.Hour
	}
	return &Service{jwt: svc, ttl: ttl}
}

// Authenticate verifies the token and returns the user it was issued to.
func (s *Service) Authenticate(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	if err := s.jwt.Parse(token, &claims); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

// IssueToken signs a token for the user. Used by account tooling and tests;
// the API itself only verifies.
func (s *Service) IssueToken(user User) (string, error) {
	now := time.Now()
	return s.jwt.Generate(Claims{
		Subject:   user.ID,
		Email:     user.Email,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
}
