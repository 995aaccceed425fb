package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// Context keys for request information
type contextKey string

// UsernameKey holds the authenticated username
const UsernameKey contextKey = "username"

// BasicAuth checks HTTP basic credentials against a username and a bcrypt
// password hash. An empty hash disables the check.
func BasicAuth(username, passwordHash string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if passwordHash == "" {
			return next
		}
		hash := []byte(passwordHash)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok {
				unauthorized(w, "Authorization required")
				return
			}

			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			// Always run bcrypt so a wrong username costs the same as a wrong password
			passOK := bcrypt.CompareHashAndPassword(hash, []byte(pass)) == nil
			if !userOK || !passOK {
				unauthorized(w, "Invalid credentials")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUsername(r, user)))
		})
	}
}

func withUsername(r *http.Request, user string) context.Context {
	return context.WithValue(r.Context(), UsernameKey, user)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="honeydash", charset="UTF-8"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `","success":false}`))
}
