package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"boron/internal/tester"
)

func TestStaticVerifier(t *testing.T) {
	v := StaticVerifier{Token: "secret", UserID: "user-1"}

	sess, ok := v.Verify(nil, "secret")
	tester.True(t, ok)
	tester.Eq(t, sess.UserID, "user-1")

	_, ok = v.Verify(nil, "wrong")
	tester.False(t, ok)

	// An empty configured token never matches, even an empty input.
	_, ok = StaticVerifier{}.Verify(nil, "")
	tester.False(t, ok)
}

func TestSessionMiddleware(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		tester.True(t, ok)
		got = sess.UserID
		w.WriteHeader(http.StatusNoContent)
	})
	h := Session(StaticVerifier{Token: "secret", UserID: "user-1"})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	tester.Eq(t, rec.Code, http.StatusNoContent)
	tester.Eq(t, got, "user-1")

	req = httptest.NewRequest(http.MethodGet, "/api/rooms", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	tester.Eq(t, rec.Code, http.StatusUnauthorized)
}

func TestBearerTokenFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws/generate?access_token=secret", nil)
	tester.Eq(t, BearerToken(req), "secret")

	req = httptest.NewRequest(http.MethodGet, "/ws/generate", nil)
	req.Header.Set("Authorization", "bearer secret")
	tester.Eq(t, BearerToken(req), "secret")
}
