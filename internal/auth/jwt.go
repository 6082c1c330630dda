package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

// Principal kinds carried in token claims. User and admin identities are
// disjoint; a token of one kind never authorizes the other surface.
const (
	KindUser  = "user"
	KindAdmin = "admin"
)

// Claims holds JWT claims: subject ID plus principal kind.
type Claims struct {
	SubjectID uuid.UUID `json:"sub_id"`
	Kind      string    `json:"kind"`
	jwt.RegisteredClaims
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret   []byte
	userTTL  time.Duration
	adminTTL time.Duration
}

// NewJWTService creates a JWT service with per-kind TTLs.
func NewJWTService(secret string, userExpireHours, adminExpireHours int) *JWTService {
	return &JWTService{
		secret:   []byte(secret),
		userTTL:  time.Duration(userExpireHours) * time.Hour,
		adminTTL: time.Duration(adminExpireHours) * time.Hour,
	}
}

// GenerateUser creates a bearer token for a user principal.
func (s *JWTService) GenerateUser(userID uuid.UUID) (string, error) {
	return s.generate(userID, KindUser, s.userTTL)
}

// GenerateAdmin creates a bearer token for an admin principal.
func (s *JWTService) GenerateAdmin(adminID uuid.UUID) (string, error) {
	return s.generate(adminID, KindAdmin, s.adminTTL)
}

func (s *JWTService) generate(subjectID uuid.UUID, kind string, ttl time.Duration) (string, error) {
	claims := Claims{
		SubjectID: subjectID,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a JWT, returning claims or error.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != KindUser && claims.Kind != KindAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
