package middleware

import (
	"context"
	"net/http"
	"strings"

	"boron/internal/gateway/service/generate"
)

// SessionVerifier resolves a bearer token to a caller identity.
// Auth internals live elsewhere; the gateway only needs the mapping.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (generate.Session, bool)
}

// StaticVerifier accepts a single preshared token. It is the default
// when no external verifier is wired.
type StaticVerifier struct {
	Token  string
	UserID string
}

func (v StaticVerifier) Verify(_ context.Context, token string) (generate.Session, bool) {
	want := strings.TrimSpace(v.Token)
	if want == "" || strings.TrimSpace(token) != want {
		return generate.Session{}, false
	}
	userID := strings.TrimSpace(v.UserID)
	if userID == "" {
		userID = "local-user"
	}
	return generate.Session{UserID: userID, Token: want}, true
}

type sessionKey struct{}

// SessionFrom returns the verified session attached by Session().
func SessionFrom(ctx context.Context) (generate.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(generate.Session)
	return s, ok
}

// BearerToken extracts the token from the Authorization header, or the
// access_token query parameter for websocket upgrades where headers
// cannot be set by the browser client.
func BearerToken(r *http.Request) string {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

// Session verifies the caller and attaches the session to the request
// context. Requests without a valid session get 401.
func Session(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				http.Error(w, "session verifier is not configured", http.StatusInternalServerError)
				return
			}
			sess, ok := verifier.Verify(r.Context(), BearerToken(r))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
		})
	}
}
