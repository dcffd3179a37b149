package auth

import (
	"ar_hunt/utils"
	"context"
	"crypto/subtle"
	"net/http"
)

const unityRequestContextKey requestContextKey = "unity"

func isUnityRequest(r *http.Request) bool {
	v, ok := r.Context().Value(unityRequestContextKey).(bool)
	return ok && v
}

// UnitySecretOnly admits requests carrying "Authorization: Bearer <secret>".
func UnitySecretOnly(secret string) func(http.Handler) http.Handler {
	expected := []byte("Bearer " + secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized, token not found")
				return
			}

			if secret == "" || subtle.ConstantTimeCompare([]byte(header), expected) != 1 {
				utils.WriteError(w, http.StatusUnauthorized, "Unauthorized, invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), unityRequestContextKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func PostOnly(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, http.StatusForbidden, "HTTP Post only")
}
