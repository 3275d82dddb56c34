package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const testJWTSecret = "test-secret"

func signHS256(t *testing.T, subject string, emailVerified bool) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":            subject,
		"email":          subject + "@example.com",
		"email_verified": emailVerified,
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestAuthMiddlewareInjectsVerifiedIdentity(t *testing.T) {
	var gotUserID string
	var gotVerified bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = r.Context().Value(UserContextKey).(string)
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			gotVerified = claims.EmailVerified
		}
	})
	handler := AuthMiddleware(testJWTSecret, zerolog.Nop())(next)

	req := httptest.NewRequest(http.MethodGet, "/usage/me", nil)
	req.Header.Set("Authorization", "Bearer "+signHS256(t, "user-1", true))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUserID != "user-1" {
		t.Fatalf("expected user-1 in context, got %q", gotUserID)
	}
	if !gotVerified {
		t.Fatal("expected email_verified claim in context")
	}
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	handler := AuthMiddleware(testJWTSecret, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without credentials")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/usage/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsBadSignature(t *testing.T) {
	handler := AuthMiddleware("a-different-secret", zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a forged token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/usage/me", nil)
	req.Header.Set("Authorization", "Bearer "+signHS256(t, "user-1", false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSharedSecretMiddlewareUnconfiguredDeniesAll(t *testing.T) {
	handler := SharedSecretMiddleware("", zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a configured secret")
	}))

	req := httptest.NewRequest(http.MethodPost, "/cron/reset-daily", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for a missing configuration, got %d", rec.Code)
	}
}
