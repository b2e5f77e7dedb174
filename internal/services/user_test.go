package services

import (
	"context"
	"testing"
	"time"

	"archive-backend/internal/fake"

	"github.com/golang-jwt/jwt/v5"
)

const testJWTSecret = "test-secret"

func TestCreateUserIssuesVerifiableToken(t *testing.T) {
	backend := fake.NewBackend()
	svc := NewUserService(backend.Users(), testJWTSecret, time.Hour)
	ctx := context.Background()

	session, err := svc.CreateUser(ctx)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if session.User.ID == "" || session.Token == "" {
		t.Fatal("expected user id and token")
	}

	identity, err := svc.VerifySession(ctx, session.Token)
	if err != nil {
		t.Fatalf("VerifySession: %v", err)
	}
	if identity.UserID != session.User.ID {
		t.Errorf("expected %s, got %s", session.User.ID, identity.UserID)
	}
}

func TestVerifySessionRejectsBadTokens(t *testing.T) {
	backend := fake.NewBackend()
	backend.AddUser(userA)
	svc := NewUserService(backend.Users(), testJWTSecret, time.Hour)
	ctx := context.Background()

	otherSecret := NewUserService(backend.Users(), "other-secret", time.Hour)
	forged, _ := otherSecret.GenerateJWT(userA)

	expired := NewUserService(backend.Users(), testJWTSecret, -time.Minute)
	stale, _ := expired.GenerateJWT(userA)

	unknown, _ := svc.GenerateJWT(userB)

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userA}).
		SignedString([]byte(testJWTSecret))

	for name, token := range map[string]string{
		"garbage":      "not-a-jwt",
		"wrong secret": forged,
		"expired":      stale,
		"unknown user": unknown,
		"no expiry":    noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.VerifySession(ctx, token)
			assertKind(t, err, KindUnauthenticated)
		})
	}
}

func TestValidateJWTReturnsSubject(t *testing.T) {
	svc := NewUserService(fake.NewBackend().Users(), testJWTSecret, time.Hour)

	token, err := svc.GenerateJWT(userA)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	userID, err := svc.ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if userID != userA {
		t.Errorf("expected %s, got %s", userA, userID)
	}
}
