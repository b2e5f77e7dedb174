package services

import (
	"context"
	"fmt"
	"time"

	"archive-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserStore persists accounts
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Exists(ctx context.Context, id string) (bool, error)
}

// UserService issues and verifies session tokens
type UserService struct {
	userRepo  UserStore
	jwtSecret string
	tokenTTL  time.Duration
}

// NewUserService creates a new user service
func NewUserService(userRepo UserStore, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Session is a newly created account and its bearer token
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("subject not found in token")
	}

	return claims.Subject, nil
}

// VerifySession resolves a bearer token to the identity of an existing user
func (s *UserService) VerifySession(ctx context.Context, token string) (Identity, error) {
	userID, err := s.ValidateJWT(token)
	if err != nil {
		return Identity{}, &Error{Kind: KindUnauthenticated, Message: "Invalid token", Err: err}
	}

	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return Identity{}, upstream("Failed to verify session", err)
	}
	if !exists {
		return Identity{}, &Error{Kind: KindUnauthenticated, Message: "Invalid token"}
	}

	return Identity{UserID: userID}, nil
}

// CreateUser creates a new anonymous user and signs a token for it
func (s *UserService) CreateUser(ctx context.Context) (*Session, error) {
	user := &models.User{
		ID: uuid.New().String(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, upstream("Failed to create user", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, upstream("Failed to create user", err)
	}

	return &Session{User: user, Token: token}, nil
}
