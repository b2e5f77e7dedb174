package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"archive-backend/internal/services"

	"github.com/rs/zerolog/log"
)

type contextKey string

const identityKey contextKey = "identity"

// SessionVerifier resolves bearer tokens to caller identities
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (services.Identity, error)
}

// AuthMiddleware rejects requests without a valid bearer token
func AuthMiddleware(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			identity, err := verifier.VerifySession(r.Context(), strings.TrimSpace(token))
			if err != nil {
				if services.KindOf(err) != services.KindUnauthenticated {
					log.Error().Err(err).Msg("Failed to verify session")
					respondError(w, services.MessageOf(err), http.StatusInternalServerError)
					return
				}
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity stores the caller identity in ctx
func WithIdentity(ctx context.Context, identity services.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the caller identity from context
func GetIdentity(ctx context.Context) services.Identity {
	identity, ok := ctx.Value(identityKey).(services.Identity)
	if !ok {
		return services.Identity{}
	}
	return identity
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
