package auth_test

import (
	"ar_hunt/hunt_server/auth"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func protectedRouter() http.Handler {
	m := auth.NewJwtManager(testSecret)
	r := chi.NewRouter()
	r.Use(m.Verifier(), m.Authenticator())
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		userId, err := auth.ValueFromContext(r, "user_id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(userId))
	})
	return r
}

func get(t *testing.T, token string) *http.Response {
	req := httptest.NewRequest("GET", "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	protectedRouter().ServeHTTP(w, req)
	return w.Result()
}

func forgeToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestJwtRoundTrip(t *testing.T) {
	userId := uuid.New()
	token, err := auth.NewJwtManager(testSecret).CreateUserJwt(userId)
	require.NoError(t, err)

	res := get(t, token)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestJwtRejected(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, get(t, "").StatusCode)

	expired := forgeToken(t, testSecret, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, get(t, expired).StatusCode)

	wrongKey := forgeToken(t, []byte("other-secret"), jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, get(t, wrongKey).StatusCode)
}

func TestJwtMissingClaim(t *testing.T) {
	token := forgeToken(t, testSecret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusBadRequest, get(t, token).StatusCode)
}
