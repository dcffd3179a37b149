package auth_test

import (
	"ar_hunt/hunt_server/auth"
	"ar_hunt/utils"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callUnity(t *testing.T, secret, header string) (int, utils.Result) {
	handler := auth.UnitySecretOnly(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w, "ok")
	}))

	req := httptest.NewRequest("POST", "/api/unity/points", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var res utils.Result
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&res))
	return w.Result().StatusCode, res
}

func TestUnitySecretOnly(t *testing.T) {
	code, res := callUnity(t, "s3cret", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized, token not found", res.Error)

	code, res = callUnity(t, "s3cret", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Unauthorized, invalid token", res.Error)

	code, _ = callUnity(t, "s3cret", "s3cret")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, res = callUnity(t, "s3cret", "Bearer s3cret")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, res.Status)
}

func TestUnitySecretOnlyEmptySecret(t *testing.T) {
	code, _ := callUnity(t, "", "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, code)
}
