package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/promarket/promarket/internal/domain"
)

// Claims is the session token payload: the subject id rides in the
// registered Subject field, the role in a private claim.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() (domain.Identity, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: bad subject claim", domain.ErrInvalidToken)
	}
	role, ok := domain.ParseRole(c.Role)
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: bad role claim", domain.ErrInvalidToken)
	}
	return domain.Identity{SubjectID: id, Role: role}, nil
}

// Service signs and verifies session tokens. It holds nothing but the
// signing secret and the TTL.
type Service struct {
	Secret []byte
	TTL    time.Duration
}

func (s *Service) Sign(subjectID uuid.UUID, role domain.Role) (string, *Claims, error) {
	now := time.Now().UTC()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.Secret)
	if err != nil {
		return "", nil, err
	}
	return signed, &claims, nil
}

func (s *Service) Parse(raw string) (*Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return &claims, nil
}
