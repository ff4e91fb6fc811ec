package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/newsroom/internal/auth"
)

// Auth authenticates requests with an access token. The token is read from the
// Authorization header, or from the "token" query parameter for websocket
// upgrades where browsers cannot set headers.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" && isWebSocketUpgrade(r) {
				tok = r.URL.Query().Get("token")
			}

			if ctx, ok := authenticate(r.Context(), tok, jwtSecret); ok {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			writeProblem(w, http.StatusUnauthorized, "missing or invalid credentials")
		})
	}
}

func extractBearer(r *http.Request) string {
	scheme, tok, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func authenticate(ctx context.Context, tok, secret string) (context.Context, bool) {
	if tok == "" {
		return ctx, false
	}

	claims, err := auth.ValidateToken(secret, tok)
	if err != nil || !claims.IsAccess() {
		return ctx, false
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return ctx, false
	}

	return WithUser(ctx, userID, claims.Role), true
}
