package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type Keys struct {
	Public []string
	Admin  []string
}

func readAuth(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

func hasKey(given string, set []string) bool {
	if given == "" {
		return false
	}
	found := 0
	for _, k := range set {
		found |= subtle.ConstantTimeCompare([]byte(k), []byte(given))
	}
	return found == 1
}

// RequireAny allows requests that present either a public or admin key.
// With no keys configured every request passes.
func RequireAny(keys Keys) func(http.Handler) http.Handler {
	if len(keys.Public) == 0 && len(keys.Admin) == 0 {
		return passthrough
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			if hasKey(key, keys.Public) || hasKey(key, keys.Admin) {
				next.ServeHTTP(w, r)
				return
			}
			Error(w, http.StatusUnauthorized, "unauthorized")
		})
	}
}

// RequireAdmin only permits requests that present an admin key: 401 when no
// key is sent, 403 for any other key. With no admin keys configured every
// request passes.
func RequireAdmin(keys Keys) func(http.Handler) http.Handler {
	if len(keys.Admin) == 0 {
		return passthrough
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := readAuth(r)
			switch {
			case hasKey(key, keys.Admin):
				next.ServeHTTP(w, r)
			case key == "":
				Error(w, http.StatusUnauthorized, "unauthorized")
			default:
				Error(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}

func passthrough(next http.Handler) http.Handler { return next }

// Error writes {"error": msg} with the given status.
func Error(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + strings.ReplaceAll(msg, `"`, `'`) + `"}`))
}
