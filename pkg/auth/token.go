package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sss135790/quick-clinic/internal/model"
)

// Claims is the identity carried by a session token.
type Claims struct {
	UserID uuid.UUID  `json:"id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// HasRole is plain equality on the role claim.
func (c *Claims) HasRole(role model.Role) bool {
	return c != nil && c.Role == role
}

var ErrEmptySecret = errors.New("token signing secret is empty")

// TokenService issues and verifies HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the user and returns it with its expiry.
func (s *TokenService) Issue(userID uuid.UUID, email string, role model.Role) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, ErrEmptySecret
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify returns the claims of a valid token. Any failure, including a bad
// signature, a foreign algorithm, expiry or malformed claims, yields false.
func (s *TokenService) Verify(token string) (*Claims, bool) {
	if token == "" || len(s.secret) == 0 {
		return nil, false
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}

	if claims.UserID == uuid.Nil || !claims.Role.Valid() {
		return nil, false
	}
	return claims, true
}
