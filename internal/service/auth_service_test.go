package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/model"
	"github.com/taleemlabs/taleem-backend/internal/repository"
)

func newAuthService() *AuthService {
	cfg := &config.Config{
		JWTSecret: "unit-test-secret",
		JWTExpiry: time.Hour,
	}
	return NewAuthService(cfg, repository.NewMemoryKV())
}

func TestRegisterAndValidate(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	student := model.StudentIdentity{Name: "Zainab", ClassName: "10th", SchoolName: "City School", RollNo: "z1"}

	token, err := svc.RegisterStudent(ctx, student)
	if err != nil {
		t.Fatalf("RegisterStudent: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Student != student {
		t.Errorf("claims.Student = %+v, want %+v", claims.Student, student)
	}
	if claims.Subject != "z1" {
		t.Errorf("Subject = %q, want roll number", claims.Subject)
	}

	if err := svc.ValidateStudentSession(ctx, "z1", claims.ID); err != nil {
		t.Errorf("ValidateStudentSession: %v", err)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService()

	if _, err := svc.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token accepted")
	}
	if _, err := svc.ValidateToken(""); err == nil {
		t.Error("empty token accepted")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	ctx := context.Background()
	issuer := NewAuthService(&config.Config{JWTSecret: "secret-a", JWTExpiry: time.Hour}, repository.NewMemoryKV())
	verifier := NewAuthService(&config.Config{JWTSecret: "secret-b", JWTExpiry: time.Hour}, repository.NewMemoryKV())

	token, err := issuer.RegisterStudent(ctx, model.StudentIdentity{RollNo: "x1", Name: "A", ClassName: "9th", SchoolName: "S"})
	if err != nil {
		t.Fatalf("RegisterStudent: %v", err)
	}
	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestLastLoginWins(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	student := model.StudentIdentity{Name: "Zara", ClassName: "9th", SchoolName: "City School", RollNo: "z2"}

	first, err := svc.RegisterStudent(ctx, student)
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	second, err := svc.RegisterStudent(ctx, student)
	if err != nil {
		t.Fatalf("second register: %v", err)
	}

	firstClaims, err := svc.ValidateToken(first)
	if err != nil {
		t.Fatalf("first token: %v", err)
	}
	secondClaims, err := svc.ValidateToken(second)
	if err != nil {
		t.Fatalf("second token: %v", err)
	}

	// The first token still parses, but its session has been superseded.
	if err := svc.ValidateStudentSession(ctx, "z2", firstClaims.ID); !errors.Is(err, ErrSessionInvalidated) {
		t.Errorf("superseded session: got %v, want ErrSessionInvalidated", err)
	}
	if err := svc.ValidateStudentSession(ctx, "z2", secondClaims.ID); err != nil {
		t.Errorf("active session rejected: %v", err)
	}
}

func TestValidateStudentSessionMissing(t *testing.T) {
	svc := newAuthService()

	if err := svc.ValidateStudentSession(context.Background(), "ghost", "some-jti"); !errors.Is(err, ErrSessionInvalidated) {
		t.Errorf("missing session: got %v, want ErrSessionInvalidated", err)
	}
}
