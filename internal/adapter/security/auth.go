// Package security implements domain.AuthService with bcrypt password hashes
// and HS256 signed JWTs.
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "merchsy"

// Claims is the JWT payload. UserID is the hex id of the account.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type Service struct {
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewService(secret string, tokenTTL time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyCredentials reports domain.ErrInvalidCredentials on any mismatch.
func (s *Service) VerifyCredentials(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (s *Service) IssueToken(userID domain.ID) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates signature, expiry and issuer and returns the user id.
// Every failure maps to domain.ErrUnauthenticated.
func (s *Service) VerifyToken(token string) (domain.ID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ID{}, fmt.Errorf("%w: token has expired", domain.ErrUnauthenticated)
		}
		return domain.ID{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	id, err := domain.ParseID(claims.UserID)
	if err != nil {
		return domain.ID{}, fmt.Errorf("%w: malformed user_id claim", domain.ErrUnauthenticated)
	}
	return id, nil
}
