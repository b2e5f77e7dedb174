package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"archive-backend/internal/services"
)

type stubVerifier struct {
	userID string
	err    error
	token  string
}

func (s *stubVerifier) VerifySession(ctx context.Context, token string) (services.Identity, error) {
	s.token = token
	if s.err != nil {
		return services.Identity{}, s.err
	}
	return services.Identity{UserID: s.userID}, nil
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		verifier *stubVerifier
		status   int
	}{
		{"valid token", "Bearer abc", &stubVerifier{userID: "user-1"}, http.StatusOK},
		{"lowercase scheme", "bearer abc", &stubVerifier{userID: "user-1"}, http.StatusOK},
		{"missing header", "", &stubVerifier{userID: "user-1"}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", &stubVerifier{userID: "user-1"}, http.StatusUnauthorized},
		{"empty token", "Bearer ", &stubVerifier{userID: "user-1"}, http.StatusUnauthorized},
		{"rejected token", "Bearer abc", &stubVerifier{err: &services.Error{Kind: services.KindUnauthenticated, Message: "Invalid token"}}, http.StatusUnauthorized},
		{"verifier failure", "Bearer abc", &stubVerifier{err: errors.New("connection refused")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got services.Identity
			handler := AuthMiddleware(tt.verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = GetIdentity(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if tt.status == http.StatusOK {
				if got.UserID != "user-1" {
					t.Errorf("expected identity user-1, got %q", got.UserID)
				}
				if tt.verifier.token != "abc" {
					t.Errorf("verifier saw token %q", tt.verifier.token)
				}
			}
		})
	}
}

func TestGetIdentityWithoutMiddleware(t *testing.T) {
	if GetIdentity(context.Background()).Authenticated() {
		t.Error("expected anonymous identity")
	}
	ctx := WithIdentity(context.Background(), services.Identity{UserID: "user-1"})
	if GetIdentity(ctx).UserID != "user-1" {
		t.Error("identity not stored in context")
	}
}
