package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
)

// ErrSessionInvalidated is returned when a token's JTI no longer matches
// the stored session (a newer login superseded it, or it expired).
var ErrSessionInvalidated = errors.New("session invalidated")

// Claims extends JWT standard claims with the student identity. The roll
// number is both the subject and the key for all persisted state; the
// identity itself is self-asserted at registration and never verified.
type Claims struct {
	jwt.RegisteredClaims
	Student model.StudentIdentity `json:"student"`
}

// AuthService issues and validates student session tokens.
type AuthService struct {
	cfg *config.Config
	kv  repository.KV
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, kv repository.KV) *AuthService {
	return &AuthService{cfg: cfg, kv: kv}
}

// RegisterStudent creates a session token for a self-asserted identity and
// records its JTI as the single active session for the roll number. A new
// registration overwrites any existing session (last login wins).
func (s *AuthService) RegisterStudent(ctx context.Context, student model.StudentIdentity) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   student.RollNo,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		Student: student,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	sessionKey := config.StoreKey.StudentSessionKey(student.RollNo)
	if err := s.kv.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Student.RollNo == "" {
		return nil, errors.New("token carries no roll number")
	}

	return claims, nil
}

// ValidateStudentSession checks that the token's JTI is still the active
// session for the roll number.
func (s *AuthService) ValidateStudentSession(ctx context.Context, rollNo, jti string) error {
	sessionKey := config.StoreKey.StudentSessionKey(rollNo)
	stored, err := s.kv.Get(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, repository.ErrKeyNotFound) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}
