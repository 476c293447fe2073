package auth

import (
	"SourceHub/entity"
	"SourceHub/internal/lib/sl"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Claims struct {
	jwt.RegisteredClaims
	Username string           `json:"username"`
	Name     string           `json:"name"`
	Role     entity.AdminRole `json:"role"`
}

// Service issues and validates admin session tokens. Logged out tokens are
// kept in a revocation list until they would have expired anyway.
type Service struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked map[string]time.Time
	mu      sync.Mutex
	log     *slog.Logger
}

func NewAuthService(logger *slog.Logger, secret string, ttl time.Duration) *Service {
	return &Service{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
		log:     logger.With(sl.Module("auth-service")),
	}
}

func (s *Service) IssueToken(admin *entity.AdminAuth) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   admin.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: admin.Username,
		Name:     admin.Name,
		Role:     admin.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *Service) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", entity.ErrUnauthorized)
	}
	return claims, nil
}

// ValidateToken returns the admin identity carried by a live token.
func (s *Service) ValidateToken(tokenString string) (*entity.AdminAuth, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", entity.ErrUnauthorized)
	}

	return &entity.AdminAuth{
		ID:       claims.Subject,
		Username: claims.Username,
		Name:     claims.Name,
		Role:     claims.Role,
	}, nil
}

// RevokeToken invalidates a token before its expiry.
func (s *Service) RevokeToken(tokenString string) error {
	claims, err := s.parse(tokenString)
	if err != nil {
		return err
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
		}
	}
	s.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *Service) HashPassword(password string) (string, error) {
	return HashPassword(password)
}

func (s *Service) CheckPassword(hash, password string) bool {
	return CheckPassword(hash, password)
}
