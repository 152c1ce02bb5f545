package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsroute/fsroute/middleware"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, issuer string) string {
	t.Helper()
	claims := &jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    issuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func authHandler(cfg middleware.BearerAuthConfig, claims **jwt.RegisteredClaims) middleware.HandlerFunc {
	return middleware.BearerAuth(cfg)(func(w http.ResponseWriter, r *http.Request) error {
		if claims != nil {
			*claims = middleware.ClaimsFromRequest(r)
		}
		w.WriteHeader(http.StatusOK)
		return nil
	})
}

func TestBearerAuth_ValidToken(t *testing.T) {
	var claims *jwt.RegisteredClaims
	h := authHandler(middleware.BearerAuthConfig{Secret: testSecret}, &claims)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, ""))

	rec := httptest.NewRecorder()
	require.NoError(t, h(rec, req))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	h := authHandler(middleware.BearerAuthConfig{Secret: testSecret}, nil)

	rec := httptest.NewRecorder()
	require.NoError(t, h(rec, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestBearerAuth_WrongSecret(t *testing.T) {
	h := authHandler(middleware.BearerAuthConfig{Secret: testSecret}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", ""))

	rec := httptest.NewRecorder()
	require.NoError(t, h(rec, req))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerAuth_IssuerEnforced(t *testing.T) {
	h := authHandler(middleware.BearerAuthConfig{Secret: testSecret, Issuer: "fsroute"}, nil)

	t.Run("Match", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "fsroute"))
		rec := httptest.NewRecorder()
		require.NoError(t, h(rec, req))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Mismatch", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "someone-else"))
		rec := httptest.NewRecorder()
		require.NoError(t, h(rec, req))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBearerAuth_SkipperBypasses(t *testing.T) {
	h := authHandler(middleware.BearerAuthConfig{
		Secret:  testSecret,
		Skipper: func(r *http.Request) bool { return r.URL.Path == "/public" },
	}, nil)

	rec := httptest.NewRecorder()
	require.NoError(t, h(rec, httptest.NewRequest(http.MethodGet, "/public", nil)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
